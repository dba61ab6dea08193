package pkg_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koruva/devkit/pkg"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestKvaRoundtrip(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "assets.kva")

	writer, err := pkg.NewKvaWriter(archive)
	require.NoError(t, err)

	require.NoError(t, writer.WriteFile("favicon.ico", strings.NewReader("icon-bytes")))
	require.NoError(t, writer.OpenDirectory("css"))
	require.NoError(t, writer.WriteFile("site.css", strings.NewReader("body { margin: 0 }")))
	require.NoError(t, writer.CloseDirectory())
	require.NoError(t, writer.Close())

	reader, err := pkg.OpenKva(archive)
	require.NoError(t, err)
	defer reader.Close()

	entries := reader.Entries()
	require.Len(t, entries, 2)
	require.Contains(t, entries, "favicon.ico")
	require.Contains(t, entries, "css/site.css")
	assert.EqualValues(t, 18, entries["css/site.css"].DecSize)

	content, err := reader.Open("css/site.css")
	require.NoError(t, err)
	data, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, "body { margin: 0 }", string(data))
}

func TestKvaWriterRejectsUnbalancedDirectories(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "broken.kva")

	writer, err := pkg.NewKvaWriter(archive)
	require.NoError(t, err)
	require.NoError(t, writer.OpenDirectory("static"))

	require.Error(t, writer.Close())
}

func TestOpenKvaRejectsForeignFiles(t *testing.T) {
	bogus := filepath.Join(t.TempDir(), "bogus.kva")
	require.NoError(t, writeFile(bogus, "definitely not an archive"))

	_, err := pkg.OpenKva(bogus)
	require.Error(t, err)
}
