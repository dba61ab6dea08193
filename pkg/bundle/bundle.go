// Package bundle produces the deployable artifacts: a self-contained binary
// built from the backend's distributable package and the container image.
// Both pipelines are strictly sequential and fail-fast; they rely on the
// delegated tools for any atomicity.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"context"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/koruva/devkit/pkg/release"
)

// EmbedConfig carries everything the binary-embedding tool needs. The values
// are handed to the tool through its environment at invocation time instead
// of being read from the process environment ad hoc.
type EmbedConfig struct {
	Project        string
	RuntimeVersion string
	Isolated       bool
	ExposeMetadata bool
	DistDir        string
	Tool           string
}

func boolFlag(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

func (c EmbedConfig) environ(version, distPath string) []string {
	return []string{
		"PYAPP_PROJECT_NAME=" + c.Project,
		"PYAPP_PROJECT_VERSION=" + version,
		"PYAPP_PROJECT_PATH=" + distPath,
		"PYAPP_PYTHON_VERSION=" + c.RuntimeVersion,
		"PYAPP_FULL_ISOLATION=" + boolFlag(c.Isolated),
		"PYAPP_EXPOSE_METADATA=" + boolFlag(c.ExposeMetadata),
	}
}

// Packager builds the self-contained executable.
type Packager struct {
	Root   string
	Cfg    EmbedConfig
	Bumper *release.Bumper
	Runner release.CommandRunner
	Log    zerolog.Logger
}

// ArtifactName returns the final name of the packaged binary.
func (p *Packager) ArtifactName(version string) string {
	ext := ""
	if runtime.GOOS == "windows" {
		ext = ".exe"
	}
	return fmt.Sprintf("%s-%s%s", p.Cfg.Project, version, ext)
}

// Run builds the distributable package, embeds it into a platform executable
// and renames the output to carry the version string.
func (p *Packager) Run(ctx context.Context) (string, error) {
	version, err := p.Bumper.Current()
	if err != nil {
		return "", eris.Wrap(err, "failed to resolve the current version")
	}

	p.Log.Info().Msgf("Building distributable package for %s %s", p.Cfg.Project, version)
	err = p.Runner.Run(ctx, "uv", "build")
	if err != nil {
		return "", err
	}

	distPath, err := p.findDistributable(version.String())
	if err != nil {
		return "", err
	}

	p.Log.Info().Msgf("Embedding %s", distPath)
	err = p.Runner.RunEnv(ctx, p.Cfg.environ(version.String(), distPath), p.Cfg.Tool, "build")
	if err != nil {
		return "", err
	}

	produced := filepath.Join(p.Root, p.Cfg.Project)
	if runtime.GOOS == "windows" {
		produced += ".exe"
	}

	artifact := filepath.Join(p.Root, p.ArtifactName(version.String()))
	err = os.Rename(produced, artifact)
	if err != nil {
		return "", eris.Wrapf(err, "failed to rename %s", produced)
	}

	p.Log.Info().Msgf("Built %s", artifact)
	return artifact, nil
}

// findDistributable locates the wheel the package manager wrote for the
// given version.
func (p *Packager) findDistributable(version string) (string, error) {
	// wheel names normalize dashes to underscores
	normalized := strings.ReplaceAll(p.Cfg.Project, "-", "_")
	pattern := filepath.Join(p.Root, p.Cfg.DistDir, fmt.Sprintf("%s-%s-*.whl", normalized, version))

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", eris.Wrapf(err, "bad distributable pattern %s", pattern)
	}

	if len(matches) == 0 {
		return "", eris.Errorf("no distributable matching %s, did the build succeed?", pattern)
	}

	if len(matches) > 1 {
		return "", eris.Errorf("found %d distributables matching %s, clean the %s directory", len(matches), pattern, p.Cfg.DistDir)
	}

	return matches[0], nil
}
