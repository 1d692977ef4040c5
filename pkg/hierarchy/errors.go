package hierarchy

import "fmt"

// DuplicateNameError is returned when adding a cluster whose name is taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("cluster %q already exists", e.Name)
}

// ProtectedNodeError is returned when deleting or reparenting the root cluster.
type ProtectedNodeError struct {
	Name string
}

func (e *ProtectedNodeError) Error() string {
	return fmt.Sprintf("cluster %q is protected and cannot be deleted or moved", e.Name)
}

// CycleError is returned when a reparent would make a cluster its own ancestor.
type CycleError struct {
	Name      string
	NewParent string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("moving cluster %q under %q would create a cycle", e.Name, e.NewParent)
}
