package reactor

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PomName is the descriptor file name used by [PomProvider].
const PomName = "pom.xml"

// A PomProvider is a [DescriptorProvider] that reads Maven-style pom.xml files.  Only the elements
// needed for workspace discovery are decoded; everything else is ignored.
type PomProvider struct{}

var _ DescriptorProvider = PomProvider{}

func (PomProvider) DescriptorName() string {
	return PomName
}

func (PomProvider) HasDescriptor(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, PomName))
	return err == nil && fi.Mode().IsRegular()
}

func (PomProvider) ReadDescriptor(dir string) (*Descriptor, error) {
	file := filepath.Join(dir, PomName)
	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoDescriptor)
	} else if err != nil {
		return nil, &DiscoveryError{Path: file, Err: err}
	}
	return ParsePom(file, data)
}

// ParsePom decodes the content of a pom.xml file.  The file argument is only recorded in the
// returned [Descriptor] and in errors.
func ParsePom(file string, data []byte) (*Descriptor, error) {
	var p pomXml
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, &MalformedDescriptorError{File: file, Err: err}
	}
	d := &Descriptor{
		File:          file,
		GroupId:       strings.TrimSpace(p.GroupId),
		ArtifactId:    strings.TrimSpace(p.ArtifactId),
		Version:       strings.TrimSpace(p.Version),
		Packaging:     strings.TrimSpace(p.Packaging),
		Properties:    map[string]string(p.Properties),
		BuildDir:      strings.TrimSpace(p.Build.Directory),
		OutputDir:     strings.TrimSpace(p.Build.OutputDirectory),
		TestOutputDir: strings.TrimSpace(p.Build.TestOutputDirectory),
	}
	if d.Properties == nil {
		d.Properties = map[string]string{}
	}
	if p.Parent != nil {
		rp := DefaultRelativePath()
		if p.Parent.RelativePath != nil {
			rp = ExplicitRelativePath(strings.TrimSpace(*p.Parent.RelativePath))
		}
		d.Parent = &ParentRef{
			GroupId:      strings.TrimSpace(p.Parent.GroupId),
			ArtifactId:   strings.TrimSpace(p.Parent.ArtifactId),
			Version:      strings.TrimSpace(p.Parent.Version),
			RelativePath: rp,
		}
	}
	for _, m := range p.Modules {
		if m = strings.TrimSpace(m); m != "" {
			d.Modules = append(d.Modules, m)
		}
	}
	for _, dep := range p.Dependencies {
		d.Dependencies = append(d.Dependencies, DependencyDecl{
			GroupId:    strings.TrimSpace(dep.GroupId),
			ArtifactId: strings.TrimSpace(dep.ArtifactId),
			Version:    strings.TrimSpace(dep.Version),
			Type:       strings.TrimSpace(dep.Type),
			Classifier: strings.TrimSpace(dep.Classifier),
			Scope:      strings.TrimSpace(dep.Scope),
		})
	}
	if d.ArtifactId == "" {
		return nil, &MalformedDescriptorError{File: file, Err: errors.New("missing artifactId")}
	}
	if d.EffectiveGroupId() == "" {
		return nil, &MalformedDescriptorError{File: file, Err: errors.New("missing groupId")}
	}
	return d, nil
}

type pomXml struct {
	XMLName      xml.Name        `xml:"project"`
	GroupId      string          `xml:"groupId"`
	ArtifactId   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Packaging    string          `xml:"packaging"`
	Parent       *pomParent      `xml:"parent"`
	Modules      []string        `xml:"modules>module"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Properties   pomProperties   `xml:"properties"`
	Build        struct {
		Directory           string `xml:"directory"`
		OutputDirectory     string `xml:"outputDirectory"`
		TestOutputDirectory string `xml:"testOutputDirectory"`
	} `xml:"build"`
}

type pomParent struct {
	GroupId    string `xml:"groupId"`
	ArtifactId string `xml:"artifactId"`
	Version    string `xml:"version"`
	// nil when the element is absent; a pointer to "" for <relativePath/>.
	RelativePath *string `xml:"relativePath"`
}

type pomDependency struct {
	GroupId    string `xml:"groupId"`
	ArtifactId string `xml:"artifactId"`
	Version    string `xml:"version"`
	Type       string `xml:"type"`
	Classifier string `xml:"classifier"`
	Scope      string `xml:"scope"`
}

// pomProperties decodes <properties>, whose child element names are the property names.
type pomProperties map[string]string

func (pp *pomProperties) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	if *pp == nil {
		*pp = pomProperties{}
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := dec.DecodeElement(&v, &t); err != nil {
				return err
			}
			(*pp)[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			return nil
		}
	}
}
