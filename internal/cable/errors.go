package cable

import "fmt"

// TopologyError reports a malformed branch tree: an out-of-range parent
// index, a cycle, a missing or duplicated root, or fan-out above the
// configured maximum. Always fatal, surfaced at indexing time.
type TopologyError struct {
	Cell    int // cell index, -1 if not cell-specific
	Branch  int // branch index within the cell, -1 if not branch-specific
	Message string
}

func (e *TopologyError) Error() string {
	if e.Branch >= 0 {
		return fmt.Sprintf("topology: cell %d branch %d: %s", e.Cell, e.Branch, e.Message)
	}
	if e.Cell >= 0 {
		return fmt.Sprintf("topology: cell %d: %s", e.Cell, e.Message)
	}
	return fmt.Sprintf("topology: %s", e.Message)
}

// ConfigurationError reports an invalid model setup: channel insertion on
// a nonexistent compartment, missing parameters, or a state vector whose
// shape does not match the network.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Message)
}

// NumericalError reports a singular or non-finite term encountered during
// the implicit solve, with enough context to locate the offending row.
type NumericalError struct {
	Branch      int
	Compartment int
	Message     string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical: branch %d compartment %d: %s", e.Branch, e.Compartment, e.Message)
}
