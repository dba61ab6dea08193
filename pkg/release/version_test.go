package release_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koruva/devkit/pkg/release"
)

func TestResolveBumpKeywords(t *testing.T) {
	current := semver.MustParse("1.2.3")

	tests := []struct {
		spec string
		want string
	}{
		{"major", "2.0.0"},
		{"minor", "1.3.0"},
		{"patch", "1.2.4"},
		{"3.0.0", "3.0.0"},
		{"v1.5.0", "1.5.0"},
	}

	for _, tc := range tests {
		next, err := release.Resolve(current, tc.spec)
		require.NoError(t, err, tc.spec)
		assert.Equal(t, tc.want, next.String())
	}
}

func TestResolveRejectsGarbage(t *testing.T) {
	current := semver.MustParse("1.2.3")

	_, err := release.Resolve(current, "banana")
	require.Error(t, err)

	_, err = release.Resolve(current, "1.2")
	require.Error(t, err)
}

func writeProject(t *testing.T, version string) *release.Bumper {
	t.Helper()

	root := t.TempDir()
	pyproject := "[project]\nname = \"koruva\"\nversion = \"" + version + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte(pyproject), 0o600))

	initPy := "__version__ = \"" + version + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "__init__.py"), []byte(initPy), 0o600))

	return &release.Bumper{
		Root:        root,
		VersionFile: "pyproject.toml",
		ExtraFiles:  []string{"__init__.py"},
	}
}

func TestBumperCurrent(t *testing.T) {
	bumper := writeProject(t, "0.3.1")

	current, err := bumper.Current()
	require.NoError(t, err)
	assert.Equal(t, "0.3.1", current.String())
}

func TestBumperCurrentFailsWithoutVersionFile(t *testing.T) {
	bumper := &release.Bumper{Root: t.TempDir(), VersionFile: "pyproject.toml"}

	_, err := bumper.Current()
	require.Error(t, err)
}

func TestBumperApplyRewritesAllFiles(t *testing.T) {
	bumper := writeProject(t, "0.3.1")

	changed, err := bumper.Apply(semver.MustParse("0.3.1"), semver.MustParse("0.4.0"))
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	current, err := bumper.Current()
	require.NoError(t, err)
	assert.Equal(t, "0.4.0", current.String())

	initPy, err := os.ReadFile(filepath.Join(bumper.Root, "__init__.py"))
	require.NoError(t, err)
	assert.Equal(t, "__version__ = \"0.4.0\"\n", string(initPy))
}

func TestBumperApplySameVersionChangesNothing(t *testing.T) {
	bumper := writeProject(t, "0.3.1")

	changed, err := bumper.Apply(semver.MustParse("0.3.1"), semver.MustParse("0.3.1"))
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestBumperApplyLeavesForeignVersionsAlone(t *testing.T) {
	bumper := writeProject(t, "0.3.1")
	extra := filepath.Join(bumper.Root, "other.toml")
	require.NoError(t, os.WriteFile(extra, []byte("version = \"9.9.9\"\n"), 0o600))
	bumper.ExtraFiles = append(bumper.ExtraFiles, "other.toml")

	changed, err := bumper.Apply(semver.MustParse("0.3.1"), semver.MustParse("0.4.0"))
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	content, err := os.ReadFile(extra)
	require.NoError(t, err)
	assert.Equal(t, "version = \"9.9.9\"\n", string(content))
}
