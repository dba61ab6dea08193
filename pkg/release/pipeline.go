package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// ChangelogFile is the document regenerated on every release.
const ChangelogFile = "CHANGELOG.md"

// Pipeline sequences version bump, changelog regeneration, the conditional
// commit/tag and the final push. Any step failure aborts the whole sequence;
// a failure after the bump leaves the working tree dirty on purpose so the
// operator can inspect it.
type Pipeline struct {
	Root      string
	Remote    string
	Bumper    *Bumper
	Changelog *ChangelogGenerator
	Runner    CommandRunner
	Log       zerolog.Logger
}

// New wires a pipeline for the given project root.
func New(root, remote, versionFile string, extraFiles []string, runner CommandRunner, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		Root:      root,
		Remote:    remote,
		Bumper:    &Bumper{Root: root, VersionFile: versionFile, ExtraFiles: extraFiles},
		Changelog: &ChangelogGenerator{Runner: runner},
		Runner:    runner,
		Log:       logger,
	}
}

// Run executes the release sequence for the given version specifier.
func (p *Pipeline) Run(ctx context.Context, spec string) error {
	current, err := p.Bumper.Current()
	if err != nil {
		return err
	}

	next, err := Resolve(current, spec)
	if err != nil {
		return err
	}

	if next.LessThan(current) {
		return eris.Errorf("refusing to bump from %s down to %s", current, next)
	}

	p.Log.Info().Msgf("Bumping version %s -> %s", current, next)
	changed, err := p.Bumper.Apply(current, next)
	if err != nil {
		return eris.Wrap(err, "version bump failed")
	}
	p.Log.Debug().Msgf("%d file(s) rewritten", changed)

	p.Log.Info().Msg("Regenerating changelog")
	changelog, err := p.Changelog.Generate(ctx, next.String())
	if err != nil {
		return eris.Wrap(err, "changelog generation failed")
	}

	err = p.writeChangelog(changelog)
	if err != nil {
		return err
	}

	status, err := p.Runner.Output(ctx, "git", "status", "--porcelain")
	if err != nil {
		return eris.Wrap(err, "failed to inspect the working tree")
	}

	if strings.TrimSpace(status) == "" {
		p.Log.Info().Msg("No changes to commit.")
		return p.push(ctx)
	}

	err = p.Runner.Run(ctx, "git", "add", "-A")
	if err != nil {
		return err
	}

	err = p.Runner.Run(ctx, "git", "commit", "-m", fmt.Sprintf("chore(release): version %s", next))
	if err != nil {
		return err
	}

	tag := "v" + next.String()
	err = p.Runner.Run(ctx, "git", "tag", "-f", "-a", tag, "-m", fmt.Sprintf("Release %s", tag))
	if err != nil {
		return err
	}

	return p.push(ctx)
}

func (p *Pipeline) writeChangelog(content string) error {
	if content == "" {
		return nil
	}

	path := filepath.Join(p.Root, ChangelogFile)
	existing, err := os.ReadFile(path)
	if err == nil && string(existing) == content {
		return nil
	}
	if err != nil && !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "failed to read %s", ChangelogFile)
	}

	err = os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		return eris.Wrapf(err, "failed to write %s", ChangelogFile)
	}

	return nil
}

func (p *Pipeline) push(ctx context.Context) error {
	err := p.Runner.Run(ctx, "git", "push", p.Remote)
	if err != nil {
		return err
	}

	return p.Runner.Run(ctx, "git", "push", p.Remote, "--tags")
}
