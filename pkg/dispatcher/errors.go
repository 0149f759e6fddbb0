package dispatcher

import "fmt"

// InvalidArgumentError rejects a call before any upstream request is made.
type InvalidArgumentError struct {
	Operation string
	Field     string
	Reason    string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument '%s' for %s: %s", e.Field, e.Operation, e.Reason)
}
