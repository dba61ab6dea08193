package release_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koruva/devkit/pkg/release"
)

// fakeRunner satisfies release.CommandRunner and records every invocation.
type fakeRunner struct {
	calls   [][]string
	outputs map[string]string
	failOn  string
}

func (f *fakeRunner) record(name string, args ...string) string {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	return strings.Join(call, " ")
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	key := f.record(name, args...)
	if f.failOn != "" && strings.HasPrefix(key, f.failOn) {
		return eris.Errorf("%s exited with status 1", key)
	}
	return nil
}

func (f *fakeRunner) RunEnv(ctx context.Context, extraEnv []string, name string, args ...string) error {
	return f.Run(ctx, name, args...)
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	key := f.record(name, args...)
	if f.failOn != "" && strings.HasPrefix(key, f.failOn) {
		return "", eris.Errorf("%s exited with status 1", key)
	}
	return f.outputs[key], nil
}

func (f *fakeRunner) called(prefix string) bool {
	for _, call := range f.calls {
		if strings.HasPrefix(strings.Join(call, " "), prefix) {
			return true
		}
	}
	return false
}

func TestGenerateGroupsConventionalCommits(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"git tag --list v* --sort=-v:refname": "v0.2.0\nv0.1.0",
		"git log --no-merges --pretty=format:%s v0.2.0..HEAD": strings.Join([]string{
			"feat(cards): add deck export",
			"fix: handle empty deck names",
			"update readme",
		}, "\n"),
		"git log --no-merges --pretty=format:%s v0.1.0..v0.2.0": "feat: initial deck review flow",
		"git log --no-merges --pretty=format:%s v0.1.0":         "chore: project scaffold",
	}}

	gen := &release.ChangelogGenerator{
		Runner: runner,
		Now:    func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) },
	}

	doc, err := gen.Generate(context.Background(), "0.3.0")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "# Changelog\n"))
	assert.Contains(t, doc, "## v0.3.0 (2026-08-26)")
	assert.Contains(t, doc, "### Features\n\n- **cards:** add deck export")
	assert.Contains(t, doc, "### Bug Fixes\n\n- handle empty deck names")
	assert.Contains(t, doc, "### Other\n\n- update readme")
	assert.Contains(t, doc, "## v0.2.0")
	assert.Contains(t, doc, "- initial deck review flow")
	assert.Contains(t, doc, "## v0.1.0")

	// release sections are ordered newest first
	assert.Less(t, strings.Index(doc, "## v0.3.0"), strings.Index(doc, "## v0.2.0"))
	assert.Less(t, strings.Index(doc, "## v0.2.0"), strings.Index(doc, "## v0.1.0"))
}

func TestGenerateSkipsEmptyUpcomingRelease(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{
		"git tag --list v* --sort=-v:refname":                  "v0.1.0",
		"git log --no-merges --pretty=format:%s v0.1.0..HEAD":  "",
		"git log --no-merges --pretty=format:%s v0.1.0":        "feat: initial import",
	}}

	gen := &release.ChangelogGenerator{Runner: runner}

	doc, err := gen.Generate(context.Background(), "0.1.0")
	require.NoError(t, err)

	assert.NotContains(t, doc, "## v0.1.0 (")
	assert.Contains(t, doc, "## v0.1.0\n")
}

func TestGeneratePropagatesGitFailure(t *testing.T) {
	runner := &fakeRunner{failOn: "git tag"}
	gen := &release.ChangelogGenerator{Runner: runner}

	_, err := gen.Generate(context.Background(), "0.1.0")
	require.Error(t, err)
}
