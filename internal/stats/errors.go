package stats

import (
	"fmt"

	"github.com/splitcheck/splitcheck/internal/experiment"
)

// InsufficientDataError is returned when an arm has zero trials. The engine
// never silently returns a zeroed result.
type InsufficientDataError struct {
	Group experiment.Group
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s arm has zero trials", e.Group)
}
