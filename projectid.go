package reactor

import (
	"fmt"
	"strings"
)

// A ProjectId identifies a project within a [Workspace].  The version is not part of
// the identity: a project occupies exactly one directory no matter which version its descriptor
// currently resolves to.
type ProjectId struct {
	GroupId    string
	ArtifactId string
}

// NewProjectId constructs a new [ProjectId] from its group and artifact components.
func NewProjectId(groupId, artifactId string) ProjectId {
	return ProjectId{GroupId: groupId, ArtifactId: artifactId}
}

// ParseProjectId breaks a "group:artifact" string into its components.  Any trailing components
// (such as a version in "group:artifact:version") are ignored.
func ParseProjectId(s string) ProjectId {
	parts := append(strings.SplitN(s, ":", 3), "", "")
	return NewProjectId(parts[0], parts[1])
}

func (id ProjectId) String() string {
	return id.GroupId + ":" + id.ArtifactId
}

// Check asserts that both components are non-empty and contain no separator or whitespace
// characters.  Components that still contain an unresolved "${...}" expression are rejected.
func (id ProjectId) Check() error {
	for _, c := range []struct{ name, v string }{
		{"groupId", id.GroupId},
		{"artifactId", id.ArtifactId},
	} {
		if c.v == "" {
			return fmt.Errorf("%s is the empty string", c.name)
		}
		if strings.ContainsAny(c.v, ": \t\r\n") {
			return fmt.Errorf("%s %q contains a separator or whitespace character", c.name, c.v)
		}
		if strings.Contains(c.v, "${") {
			return fmt.Errorf("%s %q contains an unresolved expression", c.name, c.v)
		}
	}
	return nil
}

// ProjectIdCompare orders two [ProjectId] values by group, then by artifact.
func ProjectIdCompare(a, b ProjectId) int {
	if cmp := strings.Compare(a.GroupId, b.GroupId); cmp != 0 {
		return cmp
	}
	return strings.Compare(a.ArtifactId, b.ArtifactId)
}
