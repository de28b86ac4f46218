package reactor_test

import (
	"regexp"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/rhansen/reactor"
)

func TestParseProjectId(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]ProjectId{
		"g:a":       NewProjectId("g", "a"),
		"g:a:1.0":   NewProjectId("g", "a"),
		"g:a:jar:1": NewProjectId("g", "a"),
		"g":         NewProjectId("g", ""),
		"":          {},
	} {
		if got := ParseProjectId(in); got != want {
			t.Errorf("ParseProjectId(%q) = %#v, want %#v", in, got, want)
		}
	}
}

func TestProjectId_Check(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		desc    string
		id      ProjectId
		wantErr string
	}{
		{"valid", NewProjectId("org.acme", "a-b_c"), ""},
		{"empty group", NewProjectId("", "a"), `groupId is the empty string`},
		{"empty artifact", NewProjectId("g", ""), `artifactId is the empty string`},
		{"separator", NewProjectId("g", "a:b"), `separator or whitespace`},
		{"whitespace", NewProjectId("g g", "a"), `separator or whitespace`},
		{"unresolved", NewProjectId("${g}", "a"), `unresolved expression`},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			err := tc.id.Check()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("got error %v, want nil", err)
				}
				return
			}
			if err == nil || !regexp.MustCompile(tc.wantErr).MatchString(err.Error()) {
				t.Errorf("got error %v, want error matching %q", err, tc.wantErr)
			}
		})
	}
}

func TestProjectIdCompare(t *testing.T) {
	t.Parallel()
	ids := []ProjectId{
		NewProjectId("org.b", "a"),
		NewProjectId("org.a", "z"),
		NewProjectId("org.a", "b"),
	}
	slices.SortFunc(ids, ProjectIdCompare)
	want := []ProjectId{
		NewProjectId("org.a", "b"),
		NewProjectId("org.a", "z"),
		NewProjectId("org.b", "a"),
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
