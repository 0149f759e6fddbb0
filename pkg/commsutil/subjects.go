package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	// SubjectTools carries tool invocations (request/reply).
	SubjectTools = "cap.statsig.console.v1"
	// SubjectChangeEvent receives every upstream change made through a tool.
	SubjectChangeEvent = "statsig.changed"
)

// DescribeSubject returns the catalog subject paired with a tools subject.
func DescribeSubject(toolsSubject string) string {
	return toolsSubject + ".describe"
}

// BuildChangeSubject builds the per-resource change event subject under global.
// Characters that NATS treats as tokens or wildcards are replaced.
func BuildChangeSubject(global, resource string) string {
	safe := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(resource)
	return fmt.Sprintf("%s.%s", global, safe)
}
