package buildsys_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koruva/devkit/pkg/buildsys"
)

func testContext() context.Context {
	logger := zerolog.Nop()
	return buildsys.WithLogger(context.Background(), &logger)
}

func writeScript(t *testing.T, content string) (string, string) {
	t.Helper()

	dir := t.TempDir()
	script := filepath.Join(dir, "tasks.star")
	require.NoError(t, os.WriteFile(script, []byte(content), 0o600))
	return script, dir
}

func TestParseCollectsGroupedRecipes(t *testing.T) {
	script, dir := writeScript(t, `
port = option("port", default="8000", help="dev server port")

def configure():
    install = task(
        name="install",
        group="deps",
        desc="install dependencies",
        cmds=["echo installing"],
    )
    task(
        name="serve",
        group="django",
        desc="run the dev server on the configured port",
        deps=["deps:install"],
        cmds=["echo serving on " + port],
    )
`)

	recipes, options, err := buildsys.Parse(testContext(), script, dir, nil)
	require.NoError(t, err)

	require.Contains(t, recipes, "deps:install")
	require.Contains(t, recipes, "django:serve")
	assert.Equal(t, "deps", recipes["deps:install"].Group)
	assert.Equal(t, []string{"deps:install"}, recipes["django:serve"].Deps)

	require.Contains(t, options, "port")
	assert.Equal(t, "8000", options["port"].Default())
	assert.Equal(t, "dev server port", options["port"].Help)
}

func TestParseOptionOverride(t *testing.T) {
	script, dir := writeScript(t, `
port = option("port", default="8000")

def configure():
    task(name="serve", group="django", cmds=["echo " + port])
`)

	recipes, _, err := buildsys.Parse(testContext(), script, dir, map[string]string{"port": "9001"})
	require.NoError(t, err)

	serve := recipes["django:serve"]
	require.Len(t, serve.Cmds, 1)
	assert.Equal(t, "echo 9001", serve.Cmds[0].(buildsys.ShellCmd).Content)
}

func TestParseRejectsColonInName(t *testing.T) {
	script, dir := writeScript(t, `
def configure():
    task(name="deps:install", cmds=["echo nope"])
`)

	_, _, err := buildsys.Parse(testContext(), script, dir, nil)
	require.Error(t, err)
}

func TestParseRequiresConfigure(t *testing.T) {
	script, dir := writeScript(t, `x = 1`)

	_, _, err := buildsys.Parse(testContext(), script, dir, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configure")
}

func TestParseAnonymousRecipesStayHidden(t *testing.T) {
	script, dir := writeScript(t, `
def configure():
    helper = task(cmds=["echo helper"])
    task(name="build", group="build", cmds=[helper, "echo done"])
`)

	recipes, _, err := buildsys.Parse(testContext(), script, dir, nil)
	require.NoError(t, err)

	// only the named recipe is addressable
	require.Len(t, recipes, 1)
	require.Contains(t, recipes, "build:build")
	assert.Len(t, recipes["build:build"].Cmds, 2)
}

func TestParseTupleCommandsQuoteArguments(t *testing.T) {
	script, dir := writeScript(t, `
def configure():
    task(
        name="commit",
        group="build",
        cmds=[("git", "commit", "-m", "chore: release v1.2.3")],
    )
`)

	recipes, _, err := buildsys.Parse(testContext(), script, dir, nil)
	require.NoError(t, err)

	cmd := recipes["build:commit"].Cmds[0].(buildsys.ShellCmd)
	assert.Equal(t, "git commit -m 'chore: release v1.2.3'", cmd.Content)
}

func TestCacheRoundtrip(t *testing.T) {
	script, dir := writeScript(t, `
def configure():
    task(name="lint", group="lint", desc="run linters", cmds=["echo lint"])
`)

	recipes, _, err := buildsys.Parse(testContext(), script, dir, nil)
	require.NoError(t, err)

	cacheFile := filepath.Join(dir, "tasks.cache")
	options := map[string]string{"port": "8000"}
	require.NoError(t, buildsys.WriteCache(cacheFile, options, recipes))

	loadedOptions, loaded, err := buildsys.ReadCache(cacheFile)
	require.NoError(t, err)
	assert.Equal(t, options, loadedOptions)
	require.Contains(t, loaded, "lint:lint")
	assert.Equal(t, "run linters", loaded["lint:lint"].Desc)
}
