package bundle

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/koruva/devkit/pkg/release"
)

// ImageBuilder builds and tags the deployment container image.
type ImageBuilder struct {
	Root   string
	Name   string
	Bumper *release.Bumper
	Runner release.CommandRunner
	Log    zerolog.Logger
}

// Run syncs the local dependencies (build-time asset generation needs them)
// and builds the image with a versioned tag and latest.
func (b *ImageBuilder) Run(ctx context.Context) error {
	version, err := b.Bumper.Current()
	if err != nil {
		return eris.Wrap(err, "failed to resolve the current version")
	}

	err = b.Runner.Run(ctx, "uv", "sync", "--frozen")
	if err != nil {
		return err
	}

	versioned := fmt.Sprintf("%s:%s", b.Name, version)
	latest := fmt.Sprintf("%s:latest", b.Name)

	b.Log.Info().Msgf("Building image %s", versioned)
	// debug stays off in deployment images no matter what the local
	// environment says
	return b.Runner.RunEnv(ctx, []string{"DEBUG=false"},
		"docker", "build",
		"--build-arg", "DEBUG=false",
		"-t", versioned,
		"-t", latest,
		".")
}
