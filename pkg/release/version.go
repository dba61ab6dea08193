package release

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rotisserie/eris"
)

var versionLinePattern = regexp.MustCompile(`(?m)^(\s*(?:__)?version(?:__)?\s*=\s*")([^"]+)(")`)

// Resolve turns a version specifier (an exact version or one of the bump
// keywords major, minor and patch) into the next version.
func Resolve(current *semver.Version, spec string) (*semver.Version, error) {
	switch spec {
	case "major":
		next := current.IncMajor()
		return &next, nil
	case "minor":
		next := current.IncMinor()
		return &next, nil
	case "patch":
		next := current.IncPatch()
		return &next, nil
	}

	next, err := semver.StrictNewVersion(strings.TrimPrefix(spec, "v"))
	if err != nil {
		return nil, eris.Wrapf(err, "%s is neither a bump keyword nor a valid version", spec)
	}

	return next, nil
}

// Bumper reads and rewrites the version references tracked in project files.
type Bumper struct {
	// Root is the project root all file paths are relative to.
	Root string
	// VersionFile is the canonical file the current version is read from.
	VersionFile string
	// ExtraFiles lists additional files whose version references are
	// rewritten on bump.
	ExtraFiles []string
}

// Current reads the version from the canonical version file.
func (b *Bumper) Current() (*semver.Version, error) {
	path := filepath.Join(b.Root, b.VersionFile)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read version file %s", b.VersionFile)
	}

	match := versionLinePattern.FindSubmatch(content)
	if match == nil {
		return nil, eris.Errorf("no version reference found in %s", b.VersionFile)
	}

	version, err := semver.StrictNewVersion(string(match[2]))
	if err != nil {
		return nil, eris.Wrapf(err, "%s contains the invalid version %s", b.VersionFile, match[2])
	}

	return version, nil
}

// Apply rewrites every version reference from old to next and reports how
// many files actually changed. A bump to the current version is a no-op.
func (b *Bumper) Apply(old, next *semver.Version) (int, error) {
	changed := 0
	for _, file := range append([]string{b.VersionFile}, b.ExtraFiles...) {
		path := filepath.Join(b.Root, file)
		content, err := os.ReadFile(path)
		if err != nil {
			return changed, eris.Wrapf(err, "failed to read %s", file)
		}

		updated := versionLinePattern.ReplaceAllFunc(content, func(line []byte) []byte {
			sub := versionLinePattern.FindSubmatch(line)
			if string(sub[2]) != old.String() {
				return line
			}
			return []byte(string(sub[1]) + next.String() + string(sub[3]))
		})

		if string(updated) == string(content) {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return changed, eris.Wrapf(err, "failed to stat %s", file)
		}

		err = os.WriteFile(path, updated, info.Mode().Perm())
		if err != nil {
			return changed, eris.Wrapf(err, "failed to write %s", file)
		}

		changed++
	}

	return changed, nil
}
