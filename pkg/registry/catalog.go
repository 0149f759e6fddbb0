package registry

import (
	"fmt"
	"log/slog"

	"github.com/morezero/statsig-mcp/pkg/console"
)

const catalogLogPrefix = "registry:catalog"

// NewCatalog builds the full operation catalog bound to c. Evaluation
// operations are only registered when c has evaluation configured.
func NewCatalog(c *console.Client) (*Registry, error) {
	reg := New()
	families := [][]Descriptor{
		gateTools(c),
		experimentTools(c),
		dynamicConfigTools(c),
		segmentTools(c),
		metricTools(c),
		resultTools(c),
		auditTools(c),
		projectTools(c),
		eventTools(c),
		teamTools(c),
	}
	if c.EvaluationEnabled() {
		families = append(families, evaluationTools(c))
	}

	for _, family := range families {
		for _, d := range family {
			if err := reg.Register(d); err != nil {
				return nil, fmt.Errorf("%s - %w", catalogLogPrefix, err)
			}
		}
	}
	slog.Info(fmt.Sprintf("%s - Registered %d operations", catalogLogPrefix, reg.Len()))
	return reg, nil
}

func reqString(name, desc string) Param {
	return Param{Name: name, Type: TypeString, Required: true, Description: desc}
}

func optString(name, desc string) Param {
	return Param{Name: name, Type: TypeString, Description: desc}
}

func optInt(name, desc string, def any) Param {
	return Param{Name: name, Type: TypeInteger, Description: desc, Default: def}
}

func optBool(name, desc string, def any) Param {
	return Param{Name: name, Type: TypeBoolean, Description: desc, Default: def}
}

func optObject(name, desc string) Param {
	return Param{Name: name, Type: TypeObject, Description: desc}
}

func limitParam(what string) Param {
	return optInt("limit", "Maximum number of "+what+" to return", nil)
}

// read marks d as a cacheable, idempotent read.
func read(d Descriptor) Descriptor {
	d.ReadOnly = true
	d.Idempotent = true
	d.Cacheable = true
	return d
}
