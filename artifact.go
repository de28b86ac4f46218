package reactor

import (
	"fmt"
	"os"
	"strings"
)

// ArtifactCoords identify an artifact requested from a workspace.
type ArtifactCoords struct {
	GroupId    string
	ArtifactId string
	Classifier string
	// Type is the artifact type, such as "jar" or "pom".  The empty string means "jar".
	Type string
	// Version may be empty or contain unresolved placeholders, in which case any version matches.
	Version string
}

func (a ArtifactCoords) String() string {
	typ := a.Type
	if typ == "" {
		typ = "jar"
	}
	if a.Classifier != "" {
		return fmt.Sprintf("%s:%s:%s:%s:%s", a.GroupId, a.ArtifactId, typ, a.Classifier, a.Version)
	}
	return fmt.Sprintf("%s:%s:%s:%s", a.GroupId, a.ArtifactId, typ, a.Version)
}

// FindArtifact maps an artifact to the local file or directory that provides it.  A "pom" artifact
// is provided by the project's descriptor file.  Any other artifact is provided by the project's
// [Project.OutputDir], or [Project.TestOutputDir] for the "tests" classifier and the "test-jar"
// type, once that directory exists.  The bool is false if no workspace project provides the
// artifact.
func (ws *Workspace) FindArtifact(a ArtifactCoords) (string, bool) {
	p := ws.Project(NewProjectId(a.GroupId, a.ArtifactId))
	if p == nil {
		return "", false
	}
	if a.Version != "" && a.Version != p.version && !strings.Contains(a.Version, "${") {
		return "", false
	}
	if a.Type == "pom" {
		return p.DescriptorFile(), true
	}
	dir := p.OutputDir()
	if a.Classifier == "tests" || a.Type == "test-jar" {
		dir = p.TestOutputDir()
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return "", false
	}
	return dir, true
}
