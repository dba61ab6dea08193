package release

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

var conventionalPattern = regexp.MustCompile(`^(\w+)(\([^)]*\))?(!)?:\s*(.+)$`)

// section titles in the order they appear per release
var sectionOrder = []struct {
	commitType string
	title      string
}{
	{"feat", "Features"},
	{"fix", "Bug Fixes"},
	{"perf", "Performance"},
	{"refactor", "Refactoring"},
	{"docs", "Documentation"},
	{"", "Other"},
}

// ChangelogGenerator regenerates CHANGELOG.md from the commit history.
type ChangelogGenerator struct {
	Runner CommandRunner
	// Now is overridable so tests produce stable dates.
	Now func() time.Time
}

func (g *ChangelogGenerator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Generate produces the full changelog document. nextVersion labels the
// changes since the most recent tag.
func (g *ChangelogGenerator) Generate(ctx context.Context, nextVersion string) (string, error) {
	tagOutput, err := g.Runner.Output(ctx, "git", "tag", "--list", "v*", "--sort=-v:refname")
	if err != nil {
		return "", eris.Wrap(err, "failed to list tags")
	}

	tags := []string{}
	for _, line := range strings.Split(tagOutput, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tags = append(tags, line)
		}
	}

	doc := strings.Builder{}
	doc.WriteString("# Changelog\n")

	// the upcoming release first, then one block per existing tag
	ranges := make([][2]string, 0, len(tags)+1)
	head := ""
	if len(tags) > 0 {
		head = tags[0]
	}
	ranges = append(ranges, [2]string{head, "v" + strings.TrimPrefix(nextVersion, "v")})
	for idx, tag := range tags {
		prev := ""
		if idx+1 < len(tags) {
			prev = tags[idx+1]
		}
		ranges = append(ranges, [2]string{prev, tag})
	}

	for idx, span := range ranges {
		logRange := "HEAD"
		if idx > 0 {
			logRange = span[1]
		}
		if span[0] != "" {
			logRange = span[0] + ".." + logRange
		}

		subjectOutput, err := g.Runner.Output(ctx, "git", "log", "--no-merges", "--pretty=format:%s", logRange)
		if err != nil {
			return "", eris.Wrapf(err, "failed to read history for %s", logRange)
		}

		subjects := []string{}
		for _, line := range strings.Split(subjectOutput, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				subjects = append(subjects, line)
			}
		}

		if len(subjects) == 0 && idx == 0 {
			// nothing new since the last tag; the document stays as it was
			continue
		}

		label := span[1]
		if idx == 0 {
			doc.WriteString(fmt.Sprintf("\n## %s (%s)\n", label, g.now().Format("2006-01-02")))
		} else {
			doc.WriteString(fmt.Sprintf("\n## %s\n", label))
		}
		doc.WriteString(renderSections(subjects))
	}

	return doc.String(), nil
}

// renderSections groups commit subjects by their conventional-commit type.
func renderSections(subjects []string) string {
	grouped := map[string][]string{}
	for _, subject := range subjects {
		commitType := ""
		text := subject

		if match := conventionalPattern.FindStringSubmatch(subject); match != nil {
			commitType = match[1]
			text = match[4]
			if scope := strings.Trim(match[2], "()"); scope != "" {
				text = fmt.Sprintf("**%s:** %s", scope, text)
			}
		}

		known := false
		for _, section := range sectionOrder {
			if section.commitType == commitType {
				known = true
				break
			}
		}
		if !known {
			commitType = ""
		}

		grouped[commitType] = append(grouped[commitType], text)
	}

	out := strings.Builder{}
	for _, section := range sectionOrder {
		items, ok := grouped[section.commitType]
		if !ok {
			continue
		}

		out.WriteString(fmt.Sprintf("\n### %s\n\n", section.title))
		for _, item := range items {
			out.WriteString("- " + item + "\n")
		}
	}

	return out.String()
}
