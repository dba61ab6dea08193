package buildsys_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koruva/devkit/pkg/buildsys"
)

func parseAndRun(t *testing.T, content, name string, dryRun, force bool) (string, error) {
	t.Helper()

	script, dir := writeScript(t, content)
	ctx := testContext()

	recipes, _, err := buildsys.Parse(ctx, script, dir, nil)
	require.NoError(t, err)

	recipe, ok := recipes[name]
	require.True(t, ok, "recipe %s not declared", name)

	return dir, buildsys.RunRecipe(ctx, dir, recipe, recipes, dryRun, force)
}

func TestRunRecipeRunsDependenciesFirst(t *testing.T) {
	dir, err := parseAndRun(t, `
def configure():
    task(name="install", group="deps", cmds=["echo install >> order.log"])
    task(name="cov", group="test", deps=["deps:install"], cmds=["echo test >> order.log"])
`, "test:cov", false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "order.log"))
	require.NoError(t, err)
	assert.Equal(t, "install\ntest\n", string(content))
}

func TestRunRecipeFailFast(t *testing.T) {
	dir, err := parseAndRun(t, `
def configure():
    task(name="broken", group="build", cmds=["false", "echo reached > reached.txt"])
`, "build:broken", false, false)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "reached.txt"))
	assert.True(t, os.IsNotExist(statErr), "second command must not run after a failure")
}

func TestRunRecipeFailingDependencyAbortsRecipe(t *testing.T) {
	dir, err := parseAndRun(t, `
def configure():
    task(name="bump", group="build", cmds=["false"])
    task(name="publish", group="build", deps=["build:bump"], cmds=["echo published > published.txt"])
`, "build:publish", false, false)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "published.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunRecipeDryRunExecutesNothing(t *testing.T) {
	dir, err := parseAndRun(t, `
def configure():
    task(name="gen", group="docs", cmds=["echo generated > site.txt"])
`, "docs:gen", true, false)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "site.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunRecipeSkipIfExists(t *testing.T) {
	script, dir := writeScript(t, `
def configure():
    task(
        name="bootstrap",
        group="deps",
        skip_if_exists=["marker.txt"],
        cmds=["echo ran >> runs.log"],
    )
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0o600))

	ctx := testContext()
	recipes, _, err := buildsys.Parse(ctx, script, dir, nil)
	require.NoError(t, err)

	require.NoError(t, buildsys.RunRecipe(ctx, dir, recipes["deps:bootstrap"], recipes, false, false))
	_, statErr := os.Stat(filepath.Join(dir, "runs.log"))
	assert.True(t, os.IsNotExist(statErr), "recipe must be skipped when all skip files exist")

	// force overrides the skip check
	require.NoError(t, buildsys.RunRecipe(ctx, dir, recipes["deps:bootstrap"], recipes, false, true))
	content, err := os.ReadFile(filepath.Join(dir, "runs.log"))
	require.NoError(t, err)
	assert.Equal(t, "ran\n", string(content))
}

func TestRunRecipeDetectsRecursion(t *testing.T) {
	_, err := parseAndRun(t, `
def configure():
    task(name="loop", group="build", deps=["build:loop"], cmds=["echo never"])
`, "build:loop", false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursively")
}

func TestRunRecipeEnvReachesCommands(t *testing.T) {
	dir, err := parseAndRun(t, `
def configure():
    task(
        name="env",
        group="test",
        env={"KORUVA_MODE": "ci"},
        cmds=["echo $KORUVA_MODE > mode.txt"],
    )
`, "test:env", false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "mode.txt"))
	require.NoError(t, err)
	assert.Equal(t, "ci\n", string(content))
}

func TestRunRecipeRunsEmbeddedRecipeOnce(t *testing.T) {
	dir, err := parseAndRun(t, `
def configure():
    shared = task(name="shared", group="deps", cmds=["echo shared >> shared.log"])
    task(name="all", group="build", deps=["deps:shared"], cmds=[shared, "echo done >> shared.log"])
`, "build:all", false, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "shared.log"))
	require.NoError(t, err)
	assert.Equal(t, "shared\ndone\n", string(content))
}
