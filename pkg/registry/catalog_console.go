package registry

import (
	"context"

	"github.com/morezero/statsig-mcp/pkg/console"
	"github.com/morezero/statsig-mcp/pkg/format"
)

func gateTools(c *console.Client) []Descriptor {
	base := Descriptor{Resource: "gates", Noun: "gate", Plural: "gates"}
	return []Descriptor{
		read(with(base, Descriptor{
			Name: "list_gates", Title: "List feature gates", Kind: format.KindList,
			Description: "List all feature gates in the project.",
			Params:      []Param{limitParam("gates")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.ListGates(ctx, a.Int("limit"))
			},
		})),
		read(with(base, Descriptor{
			Name: "get_gate", Title: "Get feature gate", Kind: format.KindItem, IDParam: "gate_id",
			Description: "Get the full definition of a feature gate, including its rules.",
			Params:      []Param{reqString("gate_id", "ID of the feature gate")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.GetGate(ctx, a.String("gate_id"))
			},
		})),
		with(base, Descriptor{
			Name: "create_gate", Title: "Create feature gate", Kind: format.KindCreate, IDParam: "name",
			Description: "Create a new feature gate.",
			Params: []Param{
				reqString("name", "Name of the new gate"),
				{Name: "description", Type: TypeString, Default: "", Description: "Gate description"},
				optBool("is_enabled", "Whether the gate starts enabled", false),
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.CreateGate(ctx, a.String("name"), a.String("description"), a.Bool("is_enabled"))
			},
		}),
		with(base, Descriptor{
			Name: "update_gate", Title: "Update feature gate", Kind: format.KindUpdate, IDParam: "gate_id", Idempotent: true,
			Description: "Update the name, description, or enabled state of a feature gate.",
			Params: []Param{
				reqString("gate_id", "ID of the feature gate"),
				optString("name", "New name"),
				optString("description", "New description"),
				optBool("is_enabled", "Enable or disable the gate", nil),
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.UpdateGate(ctx, a.String("gate_id"), console.GateUpdate{
					Name:        a.StringPtr("name"),
					Description: a.StringPtr("description"),
					IsEnabled:   a.BoolPtr("is_enabled"),
				})
			},
		}),
		with(base, Descriptor{
			Name: "delete_gate", Title: "Delete feature gate", Kind: format.KindDelete, IDParam: "gate_id", Destructive: true,
			Description: "Delete a feature gate.",
			Params:      []Param{reqString("gate_id", "ID of the feature gate")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.DeleteGate(ctx, a.String("gate_id"))
			},
		}),
	}
}

func experimentTools(c *console.Client) []Descriptor {
	base := Descriptor{Resource: "experiments", Noun: "experiment", Plural: "experiments"}
	return []Descriptor{
		read(with(base, Descriptor{
			Name: "list_experiments", Title: "List experiments", Kind: format.KindList,
			Description: "List all experiments in the project.",
			Params:      []Param{limitParam("experiments")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.ListExperiments(ctx, a.Int("limit"))
			},
		})),
		read(with(base, Descriptor{
			Name: "get_experiment", Title: "Get experiment", Kind: format.KindItem, IDParam: "experiment_id",
			Description: "Get the definition of an experiment: groups, allocation, hypothesis, status.",
			Params:      []Param{reqString("experiment_id", "ID of the experiment")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.GetExperiment(ctx, a.String("experiment_id"))
			},
		})),
		with(base, Descriptor{
			Name: "create_experiment", Title: "Create experiment", Kind: format.KindCreate, IDParam: "name",
			Description: "Create a new experiment.",
			Params: []Param{
				reqString("name", "Name of the new experiment"),
				{Name: "description", Type: TypeString, Default: "", Description: "Experiment description"},
				optString("hypothesis", "Hypothesis being tested"),
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.CreateExperiment(ctx, a.String("name"), a.String("description"), a.String("hypothesis"))
			},
		}),
		with(base, Descriptor{
			Name: "update_experiment", Title: "Update experiment", Kind: format.KindUpdate, IDParam: "experiment_id", Idempotent: true,
			Description: "Update an experiment. Fields in 'updates' are sent to the API as-is.",
			Params: []Param{
				reqString("experiment_id", "ID of the experiment"),
				optString("name", "New name"),
				optString("description", "New description"),
				optString("hypothesis", "New hypothesis"),
				optObject("updates", "Additional raw fields to update"),
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.UpdateExperiment(ctx, a.String("experiment_id"), entityUpdate(a))
			},
		}),
		with(base, Descriptor{
			Name: "delete_experiment", Title: "Delete experiment", Kind: format.KindDelete, IDParam: "experiment_id", Destructive: true,
			Description: "Delete an experiment.",
			Params:      []Param{reqString("experiment_id", "ID of the experiment")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.DeleteExperiment(ctx, a.String("experiment_id"))
			},
		}),
	}
}

func dynamicConfigTools(c *console.Client) []Descriptor {
	base := Descriptor{Resource: "dynamic_configs", Noun: "dynamic config", Plural: "dynamic configs"}
	return []Descriptor{
		read(with(base, Descriptor{
			Name: "list_dynamic_configs", Title: "List dynamic configs", Kind: format.KindList,
			Description: "List all dynamic configs in the project.",
			Params:      []Param{limitParam("configs")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.ListDynamicConfigs(ctx, a.Int("limit"))
			},
		})),
		read(with(base, Descriptor{
			Name: "get_dynamic_config", Title: "Get dynamic config", Kind: format.KindItem, IDParam: "config_id",
			Description: "Get the definition of a dynamic config.",
			Params:      []Param{reqString("config_id", "ID of the dynamic config")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.GetDynamicConfig(ctx, a.String("config_id"))
			},
		})),
		with(base, Descriptor{
			Name: "create_dynamic_config", Title: "Create dynamic config", Kind: format.KindCreate, IDParam: "name",
			Description: "Create a new dynamic config.",
			Params: []Param{
				reqString("name", "Name of the new config"),
				{Name: "description", Type: TypeString, Default: "", Description: "Config description"},
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.CreateDynamicConfig(ctx, a.String("name"), a.String("description"))
			},
		}),
		with(base, Descriptor{
			Name: "update_dynamic_config", Title: "Update dynamic config", Kind: format.KindUpdate, IDParam: "config_id", Idempotent: true,
			Description: "Update a dynamic config. Fields in 'updates' are sent to the API as-is.",
			Params: []Param{
				reqString("config_id", "ID of the dynamic config"),
				optString("name", "New name"),
				optString("description", "New description"),
				optObject("updates", "Additional raw fields to update"),
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.UpdateDynamicConfig(ctx, a.String("config_id"), entityUpdate(a))
			},
		}),
		with(base, Descriptor{
			Name: "delete_dynamic_config", Title: "Delete dynamic config", Kind: format.KindDelete, IDParam: "config_id", Destructive: true,
			Description: "Delete a dynamic config.",
			Params:      []Param{reqString("config_id", "ID of the dynamic config")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.DeleteDynamicConfig(ctx, a.String("config_id"))
			},
		}),
	}
}

func segmentTools(c *console.Client) []Descriptor {
	base := Descriptor{Resource: "segments", Noun: "segment", Plural: "segments"}
	return []Descriptor{
		read(with(base, Descriptor{
			Name: "list_segments", Title: "List segments", Kind: format.KindList,
			Description: "List all user segments.",
			Params:      []Param{limitParam("segments")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.ListSegments(ctx, a.Int("limit"))
			},
		})),
		read(with(base, Descriptor{
			Name: "get_segment", Title: "Get segment", Kind: format.KindItem, IDParam: "segment_id",
			Description: "Get the definition of a segment.",
			Params:      []Param{reqString("segment_id", "ID of the segment")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.GetSegment(ctx, a.String("segment_id"))
			},
		})),
		with(base, Descriptor{
			Name: "create_segment", Title: "Create segment", Kind: format.KindCreate, IDParam: "name",
			Description: "Create a new segment.",
			Params: []Param{
				reqString("name", "Name of the new segment"),
				{Name: "description", Type: TypeString, Default: "", Description: "Segment description"},
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.CreateSegment(ctx, a.String("name"), a.String("description"))
			},
		}),
	}
}

func metricTools(c *console.Client) []Descriptor {
	base := Descriptor{Resource: "metrics", Noun: "metric", Plural: "metrics"}
	return []Descriptor{
		read(with(base, Descriptor{
			Name: "list_metrics", Title: "List metrics", Kind: format.KindList,
			Description: "List metric definitions.",
			Params:      []Param{limitParam("metrics")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.ListMetrics(ctx, a.Int("limit"))
			},
		})),
		read(with(base, Descriptor{
			Name: "get_metric", Title: "Get metric", Kind: format.KindItem, IDParam: "metric_id",
			Description: "Get a metric definition.",
			Params:      []Param{reqString("metric_id", "ID of the metric")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.GetMetric(ctx, a.String("metric_id"))
			},
		})),
	}
}

func auditTools(c *console.Client) []Descriptor {
	return []Descriptor{
		read(Descriptor{
			Name: "list_audit_logs", Title: "List audit logs", Kind: format.KindList,
			Resource: "audit_logs", Noun: "audit log", Plural: "audit log entries",
			Description: "List audit log entries, optionally within a date range.",
			Params: []Param{
				optInt("limit", "Maximum number of entries to return", console.DefaultAuditLimit),
				optString("from_date", "Start date (ISO 8601)"),
				optString("to_date", "End date (ISO 8601)"),
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.ListAuditLogs(ctx, a.Int("limit"), a.String("from_date"), a.String("to_date"))
			},
		}),
	}
}

func projectTools(c *console.Client) []Descriptor {
	return []Descriptor{
		read(Descriptor{
			Name: "list_target_apps", Title: "List target apps", Kind: format.KindList,
			Resource: "target_apps", Noun: "target app", Plural: "target apps",
			Description: "List target apps.",
			Handler: func(ctx context.Context, _ Args) console.Envelope {
				return c.ListTargetApps(ctx)
			},
		}),
		read(Descriptor{
			Name: "get_target_app", Title: "Get target app", Kind: format.KindItem, IDParam: "app_id",
			Resource: "target_apps", Noun: "target app", Plural: "target apps",
			Description: "Get a target app.",
			Params:      []Param{reqString("app_id", "ID of the target app")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.GetTargetApp(ctx, a.String("app_id"))
			},
		}),
		read(Descriptor{
			Name: "list_api_keys", Title: "List API keys", Kind: format.KindList,
			Resource: "keys", Noun: "API key", Plural: "API keys",
			Description: "List the project's API keys.",
			Handler: func(ctx context.Context, _ Args) console.Envelope {
				return c.ListAPIKeys(ctx)
			},
		}),
	}
}

func eventTools(c *console.Client) []Descriptor {
	return []Descriptor{
		read(Descriptor{
			Name: "query_events", Title: "Query event types", Kind: format.KindList, IDParam: "event_name",
			Resource: "events", Noun: "event", Plural: "event types",
			Description: "List logged event types, or get details of one event type. Shows event definitions, not per-user history.",
			Params: []Param{
				optString("event_name", "Event type to describe; omit to list all"),
				optInt("limit", "Maximum number of event types to return", console.DefaultEventLimit),
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.QueryEvents(ctx, a.String("event_name"), a.Int("limit"))
			},
		}),
	}
}

func teamTools(c *console.Client) []Descriptor {
	base := Descriptor{Resource: "users", Noun: "user", Plural: "team users"}
	return []Descriptor{
		read(with(base, Descriptor{
			Name: "list_team_users", Title: "List team users", Kind: format.KindList,
			Description: "List members of the project team (not end users).",
			Handler: func(ctx context.Context, _ Args) console.Envelope {
				return c.ListTeamUsers(ctx)
			},
		})),
		read(with(base, Descriptor{
			Name: "get_user_by_email", Title: "Get team user", Kind: format.KindItem, IDParam: "email",
			Description: "Look up a team member by email.",
			Params:      []Param{reqString("email", "Email address of the team member")},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.GetUserByEmail(ctx, a.String("email"))
			},
		})),
	}
}

// with fills resource naming from base into d.
func with(base, d Descriptor) Descriptor {
	d.Resource = base.Resource
	d.Noun = base.Noun
	d.Plural = base.Plural
	return d
}

func entityUpdate(a Args) console.Update {
	return console.Update{
		Name:        a.StringPtr("name"),
		Description: a.StringPtr("description"),
		Hypothesis:  a.StringPtr("hypothesis"),
		Fields:      a.Map("updates"),
	}
}
