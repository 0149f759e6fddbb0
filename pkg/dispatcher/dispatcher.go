// Package dispatcher runs tool invocations: it resolves the operation,
// validates arguments, consults the result cache, calls the bound handler,
// and renders the envelope as text. It also serves the NATS request envelope.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/statsig-mcp/pkg/cache"
	"github.com/morezero/statsig-mcp/pkg/console"
	"github.com/morezero/statsig-mcp/pkg/events"
	"github.com/morezero/statsig-mcp/pkg/format"
	"github.com/morezero/statsig-mcp/pkg/registry"
)

const logPrefix = "dispatcher:dispatch"

// ToolsetVersion is the version of the tool catalog served, checked against
// the range in a NATS request's cap field.
const ToolsetVersion = "1.0.0"

// Outcomes reported to the metrics recorder.
const (
	OutcomeOK               = "ok"
	OutcomeUpstreamError    = "upstream_error"
	OutcomeInvalidArgument  = "invalid_argument"
	OutcomeUnknownOperation = "unknown_operation"
)

// Recorder receives per-call measurements.
type Recorder interface {
	RecordToolCall(ctx context.Context, operation, outcome string, elapsed time.Duration)
	RecordCacheLookup(ctx context.Context, operation string, hit bool)
}

// Result is the outcome of one dispatch. Err is set only for calls rejected
// before reaching the handler (*registry.UnknownOperationError or
// *InvalidArgumentError); upstream failures are carried by Envelope.
type Result struct {
	Operation string
	Envelope  console.Envelope
	Text      string
	IsError   bool
	Cached    bool
	Err       error
}

// Options configures a Dispatcher. Zero values disable the feature.
type Options struct {
	Cache       cache.Cache
	Dedupe      bool
	Publisher   events.EventPublisher
	Metrics     Recorder
	Environment string
}

// Dispatcher is safe for concurrent use. The cache is its only mutable shared state.
type Dispatcher struct {
	registry  *registry.Registry
	cache     cache.Cache
	dedupe    *cache.Deduper
	publisher events.EventPublisher
	metrics   Recorder
	env       string
	now       func() time.Time
}

// New creates a Dispatcher over reg.
func New(reg *registry.Registry, opts Options) *Dispatcher {
	d := &Dispatcher{
		registry:  reg,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		env:       opts.Environment,
		now:       time.Now,
	}
	if d.publisher == nil {
		d.publisher = &events.NoOpPublisher{}
	}
	if opts.Dedupe {
		d.dedupe = cache.NewDeduper()
	}
	return d
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *registry.Registry { return d.registry }

// Dispatch runs operation name with args. It never panics past its boundary
// and always returns a non-nil Result with rendered text.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) *Result {
	start := d.now()
	slog.Debug(fmt.Sprintf("%s - operation=%s", logPrefix, name))

	desc, err := d.registry.Resolve(name)
	if err != nil {
		d.record(ctx, name, OutcomeUnknownOperation, start)
		return rejected(name, err)
	}

	validated, err := validate(desc, args)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - %v", logPrefix, err))
		d.record(ctx, name, OutcomeInvalidArgument, start)
		return rejected(name, err)
	}

	res := &Result{Operation: name}
	useCache := desc.Cacheable && d.cache != nil
	var key string
	var gen uint64
	if useCache {
		key = cache.Key(name, validated)
		env, hit := d.cache.Get(ctx, key)
		d.recordCache(ctx, name, hit)
		if hit {
			res.Envelope, res.Cached = env, true
		} else {
			gen = d.cache.Generation(ctx, desc.Resource)
		}
	}

	if !res.Cached {
		call := func() console.Envelope { return d.invoke(ctx, desc, validated) }
		if useCache && d.dedupe != nil {
			res.Envelope, _ = d.dedupe.Do(key, call)
		} else {
			res.Envelope = call()
		}

		if res.Envelope.Success {
			if useCache && !d.cache.SetIfCurrent(ctx, key, desc.Resource, gen, res.Envelope) {
				slog.Debug(fmt.Sprintf("%s - %s result not cached: %s changed during the call", logPrefix, name, desc.Resource))
			}
			if desc.Mutates() {
				d.afterMutation(ctx, desc, validated)
			}
		}
	}

	res.IsError = !res.Envelope.Success
	res.Text = format.Format(desc.Kind, desc.Subject(validated), res.Envelope)

	outcome := OutcomeOK
	if res.IsError {
		outcome = OutcomeUpstreamError
	}
	d.record(ctx, name, outcome, start)
	return res
}

// invoke calls the handler, converting a panic into a failure envelope.
func (d *Dispatcher) invoke(ctx context.Context, desc registry.Descriptor, args registry.Args) (env console.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - handler %s panicked: %v", logPrefix, desc.Name, r))
			env = console.Fail("internal error while running %s", desc.Name)
		}
	}()
	return desc.Handler(ctx, args)
}

// afterMutation drops cached reads of the mutated resource and announces the change.
func (d *Dispatcher) afterMutation(ctx context.Context, desc registry.Descriptor, args registry.Args) {
	invalidated := 0
	if d.cache != nil {
		invalidated = d.cache.InvalidateResource(ctx, desc.Resource)
		if invalidated > 0 {
			slog.Debug(fmt.Sprintf("%s - %s invalidated %d cached %s entries", logPrefix, desc.Name, invalidated, desc.Resource))
		}
	}

	event := &events.ResourceChangedEvent{
		ID:          uuid.NewString(),
		Resource:    desc.Resource,
		Action:      actionFor(desc.Kind),
		Operation:   desc.Name,
		EntityID:    desc.Subject(args).ID,
		Environment: d.env,
		Invalidated: invalidated,
	}
	event.Stamp(d.now())
	if err := d.publisher.PublishChanged(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish change for %s: %v", logPrefix, desc.Name, err))
	}
}

func actionFor(kind format.Kind) string {
	switch kind {
	case format.KindCreate:
		return events.ActionCreated
	case format.KindDelete:
		return events.ActionDeleted
	case format.KindEvent:
		return events.ActionLogged
	}
	return events.ActionUpdated
}

func rejected(name string, err error) *Result {
	return &Result{
		Operation: name,
		Envelope:  console.Fail("%s", err.Error()),
		Text:      format.Error(err.Error()),
		IsError:   true,
		Err:       err,
	}
}

func (d *Dispatcher) record(ctx context.Context, name, outcome string, start time.Time) {
	if d.metrics != nil {
		d.metrics.RecordToolCall(ctx, name, outcome, d.now().Sub(start))
	}
}

func (d *Dispatcher) recordCache(ctx context.Context, name string, hit bool) {
	if d.metrics != nil {
		d.metrics.RecordCacheLookup(ctx, name, hit)
	}
}

// IsInvalidArgument reports whether err is an *InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}

// IsUnknownOperation reports whether err is a *registry.UnknownOperationError.
func IsUnknownOperation(err error) bool {
	var target *registry.UnknownOperationError
	return errors.As(err, &target)
}
