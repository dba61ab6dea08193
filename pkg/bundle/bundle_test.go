package bundle_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koruva/devkit/pkg/bundle"
	"github.com/koruva/devkit/pkg/release"
)

type fakeRunner struct {
	calls   [][]string
	envs    [][]string
	failOn  string
	runHook func(call []string) error
}

func (f *fakeRunner) record(env []string, name string, args ...string) string {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)
	f.envs = append(f.envs, env)
	return strings.Join(call, " ")
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	return f.RunEnv(ctx, nil, name, args...)
}

func (f *fakeRunner) RunEnv(ctx context.Context, extraEnv []string, name string, args ...string) error {
	key := f.record(extraEnv, name, args...)
	if f.failOn != "" && strings.HasPrefix(key, f.failOn) {
		return eris.Errorf("%s exited with status 1", key)
	}
	if f.runHook != nil {
		return f.runHook(append([]string{name}, args...))
	}
	return nil
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	f.record(nil, name, args...)
	return "", nil
}

func (f *fakeRunner) call(prefix string) ([]string, []string) {
	for idx, call := range f.calls {
		if strings.HasPrefix(strings.Join(call, " "), prefix) {
			return call, f.envs[idx]
		}
	}
	return nil, nil
}

func projectRoot(t *testing.T, version string) string {
	t.Helper()

	root := t.TempDir()
	pyproject := "[project]\nname = \"koruva\"\nversion = \"" + version + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte(pyproject), 0o600))
	return root
}

func newPackager(root string, runner release.CommandRunner) *bundle.Packager {
	return &bundle.Packager{
		Root: root,
		Cfg: bundle.EmbedConfig{
			Project:        "koruva",
			RuntimeVersion: "3.13",
			Isolated:       true,
			ExposeMetadata: true,
			DistDir:        "dist",
			Tool:           ".tools/pyapp",
		},
		Bumper: &release.Bumper{Root: root, VersionFile: "pyproject.toml"},
		Runner: runner,
		Log:    zerolog.Nop(),
	}
}

func TestPackagerBuildsAndRenamesArtifact(t *testing.T) {
	root := projectRoot(t, "1.2.3")
	wheel := filepath.Join(root, "dist", "koruva-1.2.3-py3-none-any.whl")
	require.NoError(t, os.MkdirAll(filepath.Dir(wheel), 0o755))
	require.NoError(t, os.WriteFile(wheel, []byte("wheel"), 0o600))

	runner := &fakeRunner{runHook: func(call []string) error {
		if call[0] == ".tools/pyapp" {
			// the embed tool drops the raw executable in the project root
			return os.WriteFile(filepath.Join(root, "koruva"), []byte("binary"), 0o700)
		}
		return nil
	}}

	packager := newPackager(root, runner)
	artifact, err := packager.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "koruva-1.2.3"), artifact)
	_, statErr := os.Stat(artifact)
	require.NoError(t, statErr)

	_, embedEnv := runner.call(".tools/pyapp build")
	require.NotNil(t, embedEnv)
	assert.Contains(t, embedEnv, "PYAPP_PROJECT_NAME=koruva")
	assert.Contains(t, embedEnv, "PYAPP_PROJECT_VERSION=1.2.3")
	assert.Contains(t, embedEnv, "PYAPP_PROJECT_PATH="+wheel)
	assert.Contains(t, embedEnv, "PYAPP_PYTHON_VERSION=3.13")
	assert.Contains(t, embedEnv, "PYAPP_FULL_ISOLATION=1")
	assert.Contains(t, embedEnv, "PYAPP_EXPOSE_METADATA=1")

	buildCall, _ := runner.call("uv build")
	require.NotNil(t, buildCall)
}

func TestPackagerFailsWithoutVersion(t *testing.T) {
	runner := &fakeRunner{}
	packager := newPackager(t.TempDir(), runner)

	_, err := packager.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, runner.calls, "a failed version lookup must abort the whole sequence")
}

func TestPackagerFailsWithoutDistributable(t *testing.T) {
	root := projectRoot(t, "1.2.3")
	runner := &fakeRunner{}
	packager := newPackager(root, runner)

	_, err := packager.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no distributable")

	embedCall, _ := runner.call(".tools/pyapp")
	assert.Nil(t, embedCall, "the embed tool must not run without a package")
}

func TestPackagerStopsWhenBuildFails(t *testing.T) {
	root := projectRoot(t, "1.2.3")
	runner := &fakeRunner{failOn: "uv build"}
	packager := newPackager(root, runner)

	_, err := packager.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, runner.calls, 1)
}

func TestImageBuilderTagsVersionAndLatest(t *testing.T) {
	root := projectRoot(t, "2.1.0")
	runner := &fakeRunner{}
	builder := &bundle.ImageBuilder{
		Root:   root,
		Name:   "koruva",
		Bumper: &release.Bumper{Root: root, VersionFile: "pyproject.toml"},
		Runner: runner,
		Log:    zerolog.Nop(),
	}

	require.NoError(t, builder.Run(context.Background()))

	syncCall, _ := runner.call("uv sync --frozen")
	require.NotNil(t, syncCall)

	buildCall, buildEnv := runner.call("docker build")
	require.NotNil(t, buildCall)
	joined := strings.Join(buildCall, " ")
	assert.Contains(t, joined, "-t koruva:2.1.0")
	assert.Contains(t, joined, "-t koruva:latest")
	assert.Contains(t, joined, "--build-arg DEBUG=false")
	assert.Contains(t, buildEnv, "DEBUG=false")

	// sync runs before the image build
	assert.Equal(t, "uv", runner.calls[0][0])
}

func TestImageBuilderFailsWithoutVersion(t *testing.T) {
	runner := &fakeRunner{}
	builder := &bundle.ImageBuilder{
		Root:   t.TempDir(),
		Name:   "koruva",
		Bumper: &release.Bumper{Root: t.TempDir(), VersionFile: "pyproject.toml"},
		Runner: runner,
		Log:    zerolog.Nop(),
	}

	require.Error(t, builder.Run(context.Background()))
	assert.Empty(t, runner.calls)
}
