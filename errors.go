package reactor

import (
	"fmt"
	"strings"
)

// A ProjectNotFoundError is returned when no descriptor exists in a directory or any of its
// ancestors.
type ProjectNotFoundError struct {
	Dir string
}

func (e *ProjectNotFoundError) Error() string {
	return fmt.Sprintf("no project descriptor found in %s or any parent directory", e.Dir)
}

// A MalformedDescriptorError is returned when a descriptor exists but cannot be parsed.
type MalformedDescriptorError struct {
	File string
	Err  error
}

func (e *MalformedDescriptorError) Error() string {
	return fmt.Sprintf("malformed project descriptor %s: %v", e.File, e.Err)
}

func (e *MalformedDescriptorError) Unwrap() error { return e.Err }

// A DuplicateProjectError is returned when two distinct directories declare the same [ProjectId].
type DuplicateProjectError struct {
	Id        ProjectId
	FirstDir  string
	SecondDir string
}

func (e *DuplicateProjectError) Error() string {
	return fmt.Sprintf("project %v is declared in both:\n  - %s\n  - %s", e.Id, e.FirstDir, e.SecondDir)
}

// A CyclicDependencyError is returned when local projects depend on each other in a cycle.  The
// first and last elements of Cycle are the same project.
type CyclicDependencyError struct {
	Cycle []ProjectId
}

func (e *CyclicDependencyError) Error() string {
	ids := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		ids[i] = id.String()
	}
	return fmt.Sprintf("local dependency cycle: %s", strings.Join(ids, " -> "))
}

// A DiscoveryError wraps a filesystem failure encountered while discovering a workspace.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("workspace discovery failed at %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }
