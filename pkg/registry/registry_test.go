package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/morezero/statsig-mcp/pkg/console"
	"github.com/morezero/statsig-mcp/pkg/format"
)

func noop(context.Context, Args) console.Envelope { return console.OK(nil) }

func testClient(t *testing.T, evaluation bool) *console.Client {
	t.Helper()
	cfg := console.Config{APIKey: "k", DisableLogging: true}
	if !evaluation {
		return console.NewClientWithSenders(cfg, nil, nil, nil)
	}
	cfg.ServerSecret = "secret-k"
	c, err := console.NewClient(cfg)
	if err != nil {
		t.Fatalf("registry:registry_test - NewClient: %v", err)
	}
	return c
}

func TestRegister_Duplicate(t *testing.T) {
	r := New()
	if err := r.Register(Descriptor{Name: "list_gates", Handler: noop}); err != nil {
		t.Fatalf("registry:registry_test - first Register: %v", err)
	}
	err := r.Register(Descriptor{Name: "list_gates", Handler: noop})
	var dup *DuplicateOperationError
	if !errors.As(err, &dup) {
		t.Fatalf("registry:registry_test - expected DuplicateOperationError, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("registry:registry_test - Len = %d, want 1", r.Len())
	}
}

func TestRegister_Invalid(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
	}{
		{"empty name", Descriptor{Handler: noop}},
		{"nil handler", Descriptor{Name: "x"}},
		{"duplicate param", Descriptor{Name: "x", Handler: noop, Params: []Param{{Name: "a"}, {Name: "a"}}}},
		{"undeclared id param", Descriptor{Name: "x", Handler: noop, IDParam: "gate_id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := New().Register(tt.d); err == nil {
				t.Error("registry:registry_test - expected error")
			}
		})
	}
}

func TestResolve_Unknown(t *testing.T) {
	_, err := New().Resolve("launch_rocket")
	var unknown *UnknownOperationError
	if !errors.As(err, &unknown) {
		t.Fatalf("registry:registry_test - expected UnknownOperationError, got %v", err)
	}
	if err.Error() != "unknown operation: launch_rocket" {
		t.Errorf("registry:registry_test - message = %q", err.Error())
	}
}

func TestDescribeAll_RegistrationOrder(t *testing.T) {
	r := New()
	for _, name := range []string{"b", "a", "c"} {
		if err := r.Register(Descriptor{Name: name, Handler: noop}); err != nil {
			t.Fatal(err)
		}
	}
	got := r.Names()
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("registry:registry_test - Names = %v, want %v", got, want)
		}
	}
	if len(r.DescribeAll()) != 3 {
		t.Errorf("registry:registry_test - DescribeAll returned %d", len(r.DescribeAll()))
	}
}

func TestNewCatalog_ConsoleOnly(t *testing.T) {
	reg, err := NewCatalog(testClient(t, false))
	if err != nil {
		t.Fatalf("registry:registry_test - NewCatalog: %v", err)
	}
	for _, name := range []string{
		"list_gates", "get_gate", "create_gate", "update_gate", "delete_gate",
		"list_experiments", "get_experiment", "create_experiment", "update_experiment", "delete_experiment",
		"list_dynamic_configs", "get_dynamic_config", "create_dynamic_config", "update_dynamic_config", "delete_dynamic_config",
		"list_segments", "get_segment", "create_segment",
		"list_metrics", "get_metric",
		"get_experiment_results", "get_experiment_pulse", "get_metric_details", "export_pulse_report",
		"list_audit_logs", "list_target_apps", "get_target_app", "list_api_keys",
		"query_events", "list_team_users", "get_user_by_email",
	} {
		if _, err := reg.Resolve(name); err != nil {
			t.Errorf("registry:registry_test - Resolve(%s): %v", name, err)
		}
	}
	if _, err := reg.Resolve("check_feature_gate"); err == nil {
		t.Error("registry:registry_test - evaluation operations should be absent without a server secret")
	}
}

func TestNewCatalog_WithEvaluation(t *testing.T) {
	reg, err := NewCatalog(testClient(t, true))
	if err != nil {
		t.Fatalf("registry:registry_test - NewCatalog: %v", err)
	}
	for _, name := range []string{"check_feature_gate", "get_config_for_user", "get_experiment_assignment", "get_layer", "log_event"} {
		d, err := reg.Resolve(name)
		if err != nil {
			t.Fatalf("registry:registry_test - Resolve(%s): %v", name, err)
		}
		if d.Cacheable {
			t.Errorf("registry:registry_test - %s must not be cacheable", name)
		}
		if p, ok := d.Param("user_id"); !ok || !p.Required {
			t.Errorf("registry:registry_test - %s should require user_id", name)
		}
	}
}

func TestNewCatalog_Flags(t *testing.T) {
	reg, err := NewCatalog(testClient(t, false))
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range reg.DescribeAll() {
		if d.Cacheable && d.Mutates() {
			t.Errorf("registry:registry_test - %s is cacheable but mutates", d.Name)
		}
		if d.Resource == "" {
			t.Errorf("registry:registry_test - %s has no resource", d.Name)
		}
		if d.Description == "" {
			t.Errorf("registry:registry_test - %s has no description", d.Name)
		}
	}

	del, _ := reg.Resolve("delete_gate")
	if !del.Destructive || del.Kind != format.KindDelete {
		t.Errorf("registry:registry_test - delete_gate flags = %+v", del)
	}
	results, _ := reg.Resolve("get_experiment_results")
	if results.Resource != "experiments" {
		t.Errorf("registry:registry_test - results resource = %q, want experiments", results.Resource)
	}
	if p, _ := results.Param("include_metrics"); p.Default != true {
		t.Errorf("registry:registry_test - include_metrics default = %v", p.Default)
	}
	export, _ := reg.Resolve("export_pulse_report")
	if p, _ := export.Param("format"); len(p.Enum) != 2 || p.Default != console.ExportJSON {
		t.Errorf("registry:registry_test - format param = %+v", p)
	}
}

func TestDescriptorSubject(t *testing.T) {
	reg, err := NewCatalog(testClient(t, false))
	if err != nil {
		t.Fatal(err)
	}
	d, _ := reg.Resolve("export_pulse_report")
	s := d.Subject(Args{"experiment_id": "exp_1", "format": "csv"})
	if s.ID != "exp_1" || s.Hint != "csv" || s.Noun != "experiment" {
		t.Errorf("registry:registry_test - Subject = %+v", s)
	}
}

func TestArgsAccessors(t *testing.T) {
	a := Args{"limit": float64(5), "flag": "true", "name": "x", "obj": map[string]any{"k": 1}}
	if a.Int("limit") != 5 {
		t.Errorf("registry:registry_test - Int = %d", a.Int("limit"))
	}
	if !a.Bool("flag") {
		t.Error("registry:registry_test - Bool(\"true\") = false")
	}
	if a.BoolPtr("missing") != nil || a.StringPtr("missing") != nil || a.Map("missing") != nil {
		t.Error("registry:registry_test - absent keys should yield nil")
	}
	if p := a.StringPtr("name"); p == nil || *p != "x" {
		t.Errorf("registry:registry_test - StringPtr = %v", p)
	}
	if a.Map("obj")["k"] != 1 {
		t.Errorf("registry:registry_test - Map = %v", a.Map("obj"))
	}
}
