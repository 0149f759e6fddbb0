package registry

import (
	"context"

	"github.com/morezero/statsig-mcp/pkg/console"
	"github.com/morezero/statsig-mcp/pkg/format"
)

// resultTools relay upstream-computed experiment statistics. They share the
// experiments resource so an experiment mutation drops cached results too.
func resultTools(c *console.Client) []Descriptor {
	base := Descriptor{Resource: "experiments", Noun: "experiment", Plural: "experiments"}
	return []Descriptor{
		read(with(base, Descriptor{
			Name: "get_experiment_results", Title: "Get experiment results", Kind: format.KindResults, IDParam: "experiment_id",
			Description: "Get statistical results for an experiment: per-group metric lifts, confidence intervals, and significance, as computed by the platform.",
			Params: []Param{
				reqString("experiment_id", "ID of the experiment"),
				optBool("include_metrics", "Include per-metric breakdown", true),
				optString("control_group_id", "Group to treat as control"),
				optString("start_date", "Start of the analysis window (YYYY-MM-DD)"),
				optString("end_date", "End of the analysis window (YYYY-MM-DD)"),
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.GetExperimentResults(ctx, a.String("experiment_id"), console.ResultsOptions{
					IncludeMetrics: a.BoolPtr("include_metrics"),
					ControlGroupID: a.String("control_group_id"),
					StartDate:      a.String("start_date"),
					EndDate:        a.String("end_date"),
				})
			},
		})),
		read(with(base, Descriptor{
			Name: "get_experiment_pulse", Title: "Get experiment pulse", Kind: format.KindResults, IDParam: "experiment_id",
			Description: "Get the pulse summary of an experiment, optionally with health checks.",
			Params: []Param{
				reqString("experiment_id", "ID of the experiment"),
				optBool("include_health", "Include health check status", true),
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.GetExperimentPulse(ctx, a.String("experiment_id"), a.BoolPtr("include_health"))
			},
		})),
		read(with(base, Descriptor{
			Name: "get_metric_details", Title: "Get experiment metric details", Kind: format.KindResults, IDParam: "experiment_id",
			Description: "Get detailed statistics for one metric of an experiment.",
			Params: []Param{
				reqString("experiment_id", "ID of the experiment"),
				reqString("metric_name", "Name of the metric"),
				optBool("include_cuped", "Include CUPED variance-reduced estimates", nil),
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.GetMetricDetails(ctx, a.String("experiment_id"), a.String("metric_name"), a.BoolPtr("include_cuped"))
			},
		})),
		read(with(base, Descriptor{
			Name: "export_pulse_report", Title: "Export pulse report", Kind: format.KindExport, IDParam: "experiment_id",
			Description: "Export the pulse report of an experiment as JSON or CSV.",
			Params: []Param{
				reqString("experiment_id", "ID of the experiment"),
				{
					Name: "format", Type: TypeString, Default: console.ExportJSON,
					Description: "Report format",
					Enum:        []string{console.ExportJSON, console.ExportCSV},
				},
			},
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.ExportPulseReport(ctx, a.String("experiment_id"), a.String("format"))
			},
		})),
	}
}
