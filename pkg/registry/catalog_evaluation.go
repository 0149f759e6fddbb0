package registry

import (
	"context"

	"github.com/morezero/statsig-mcp/pkg/console"
	"github.com/morezero/statsig-mcp/pkg/format"
)

func userParams() []Param {
	return []Param{
		reqString("user_id", "ID of the end user"),
		optString("user_email", "User email"),
		optString("user_country", "User country code"),
		optString("user_ip", "User IP address"),
		optString("user_agent", "User agent string"),
		optString("app_version", "Client app version"),
		optString("locale", "User locale"),
		optObject("custom_attributes", "Custom user attributes"),
		optObject("private_attributes", "Attributes used for evaluation but never logged"),
	}
}

func userFrom(a Args) console.User {
	return console.User{
		UserID:            a.String("user_id"),
		Email:             a.String("user_email"),
		Country:           a.String("user_country"),
		IP:                a.String("user_ip"),
		UserAgent:         a.String("user_agent"),
		AppVersion:        a.String("app_version"),
		Locale:            a.String("locale"),
		Custom:            a.Map("custom_attributes"),
		PrivateAttributes: a.Map("private_attributes"),
	}
}

// evaluationTools evaluate gates and configs for a specific user. Results
// depend on live rollout state, so none are cached.
func evaluationTools(c *console.Client) []Descriptor {
	evaluation := func(name, title, noun, idParam, desc string, fn func(context.Context, console.User, string) console.Envelope) Descriptor {
		return Descriptor{
			Name: name, Title: title, Description: desc,
			Kind: format.KindEvaluation, Resource: "evaluation", Noun: noun, Plural: noun + "s",
			IDParam: idParam, ReadOnly: true, Idempotent: true,
			Params: append(userParams(), reqString(idParam, "Name of the "+noun)),
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return fn(ctx, userFrom(a), a.String(idParam))
			},
		}
	}

	return []Descriptor{
		evaluation("check_feature_gate", "Check feature gate", "gate", "gate_name",
			"Check whether a feature gate passes for a user.", c.CheckFeatureGate),
		evaluation("get_config_for_user", "Get config for user", "dynamic config", "config_name",
			"Get the dynamic config values a user receives.", c.GetConfigForUser),
		evaluation("get_experiment_assignment", "Get experiment assignment", "experiment", "experiment_name",
			"Get the experiment group and parameters a user is assigned.", c.GetExperimentAssignment),
		evaluation("get_layer", "Get layer", "layer", "layer_name",
			"Get the layer parameters a user receives.", c.GetLayerForUser),
		{
			Name: "log_event", Title: "Log event", Kind: format.KindEvent,
			Resource: "events", Noun: "event", Plural: "events", IDParam: "event_name",
			Description: "Log a custom event for a user.",
			Params: append(userParams(),
				reqString("event_name", "Name of the event"),
				Param{Name: "value", Type: TypeScalar, Description: "Event value (string or number)"},
				optObject("metadata", "Event metadata"),
			),
			Handler: func(ctx context.Context, a Args) console.Envelope {
				return c.LogEvent(ctx, userFrom(a), a.String("event_name"), a.Value("value"), a.Map("metadata"))
			},
		},
	}
}
