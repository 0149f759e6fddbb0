package console

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Results methods relay upstream statistics verbatim. Options map one-to-one
// onto query parameters; nothing is filtered or recomputed locally.

// ResultsOptions controls GetExperimentResults. Nil and empty fields are not sent.
type ResultsOptions struct {
	IncludeMetrics *bool
	ControlGroupID string
	StartDate      string
	EndDate        string
}

func (o ResultsOptions) query() url.Values {
	q := url.Values{}
	setBool(q, "include_metrics", o.IncludeMetrics)
	setString(q, "control_group_id", o.ControlGroupID)
	setString(q, "start_date", o.StartDate)
	setString(q, "end_date", o.EndDate)
	return q
}

// Export formats accepted by ExportPulseReport.
const (
	ExportJSON = "json"
	ExportCSV  = "csv"
)

// GetExperimentResults fetches upstream-computed results for an experiment.
func (c *Client) GetExperimentResults(ctx context.Context, experimentID string, opts ResultsOptions) Envelope {
	if env, ok := requireID("experiment_id", experimentID); !ok {
		return env
	}
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("experiments", experimentID, "results"), query: opts.query(),
		action: "get results for", noun: "experiment", id: experimentID,
	})
}

// GetExperimentPulse fetches the pulse summary. includeHealth nil leaves the upstream default.
func (c *Client) GetExperimentPulse(ctx context.Context, experimentID string, includeHealth *bool) Envelope {
	if env, ok := requireID("experiment_id", experimentID); !ok {
		return env
	}
	q := url.Values{}
	setBool(q, "include_health", includeHealth)
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("experiments", experimentID, "pulse"), query: q,
		action: "get pulse for", noun: "experiment", id: experimentID,
	})
}

// GetMetricDetails fetches per-metric statistics within an experiment.
func (c *Client) GetMetricDetails(ctx context.Context, experimentID, metricName string, includeCUPED *bool) Envelope {
	if env, ok := requireID("experiment_id", experimentID); !ok {
		return env
	}
	if env, ok := requireID("metric_name", metricName); !ok {
		return env
	}
	q := url.Values{}
	setBool(q, "include_cuped", includeCUPED)
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("experiments", experimentID, "metrics", metricName), query: q,
		action: "get metric details for", noun: "experiment metric", id: experimentID + "/" + metricName,
	})
}

// ExportPulseReport exports the pulse report. CSV payloads arrive in data.content unmodified.
func (c *Client) ExportPulseReport(ctx context.Context, experimentID, format string) Envelope {
	if env, ok := requireID("experiment_id", experimentID); !ok {
		return env
	}
	if format == "" {
		format = ExportJSON
	}
	if format != ExportJSON && format != ExportCSV {
		return Fail("format must be one of %s, %s (got %q)", ExportJSON, ExportCSV, format)
	}
	return c.do(ctx, c.console, call{
		method: http.MethodGet, path: path("experiments", experimentID, "pulse", "export"),
		query:  url.Values{"format": {format}},
		action: "export pulse report for", noun: "experiment", id: experimentID,
	})
}

func setBool(q url.Values, key string, v *bool) {
	if v != nil {
		q.Set(key, strconv.FormatBool(*v))
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}
