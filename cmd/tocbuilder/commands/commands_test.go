package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"
)

// runCLI parses argv and executes the selected command.
func runCLI(t *testing.T, argv ...string) error {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(argv)
	require.NoError(t, err)
	return ctx.Run(&Global{})
}

func writeProject(t *testing.T, indexContent string) (configPath, outputDir string) {
	t.Helper()
	dir := t.TempDir()
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "index.rst"), []byte(indexContent), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "quickstart.rst"),
		[]byte("Quickstart\n==========\n"), 0o644))

	outputDir = filepath.Join(dir, "site")
	configPath = filepath.Join(dir, "tocbuilder.yaml")
	cfg := `
site:
  title: Test Docs
sources:
  - name: docs
    path: ` + docsDir + `
output:
  directory: ` + outputDir + `
state:
  database: ":memory:"
`
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o644))
	return configPath, outputDir
}

func TestBuildCmd_RendersSite(t *testing.T) {
	configPath, outputDir := writeProject(t, "Home\n====\n\n.. toctree::\n\n   quickstart\n")

	require.NoError(t, runCLI(t, "-c", configPath, "build"))

	for _, rel := range []string{"index.html", "quickstart.html", "manifest.json"} {
		_, err := os.Stat(filepath.Join(outputDir, rel))
		require.NoError(t, err, rel)
	}
}

func TestCheckCmd_FailsOnBrokenReference(t *testing.T) {
	configPath, _ := writeProject(t, "Home\n====\n\n.. toctree::\n\n   quickstart\n   missing\n")

	err := runCLI(t, "-c", configPath, "check")
	require.Error(t, err)
}

func TestInitCmd_WritesConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "tocbuilder.yaml")

	require.NoError(t, runCLI(t, "-c", configPath, "init"))
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "sources:")

	// Refuses to overwrite without --force.
	require.Error(t, runCLI(t, "-c", configPath, "init"))
	require.NoError(t, runCLI(t, "-c", configPath, "init", "--force"))
}

func TestDiscoverCmd_ListsDocuments(t *testing.T) {
	configPath, _ := writeProject(t, "Home\n====\n")

	require.NoError(t, runCLI(t, "-c", configPath, "discover"))
}

func TestHistoryCmd_WithoutStateDatabase(t *testing.T) {
	dir := t.TempDir()
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "index.rst"),
		[]byte("Home\n====\n"), 0o644))

	// No state section: the store is disabled and history has nothing to read.
	configPath := filepath.Join(dir, "tocbuilder.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
sources:
  - name: docs
    path: `+docsDir+`
output:
  directory: `+filepath.Join(dir, "site")+`
`), 0o644))

	err := runCLI(t, "-c", configPath, "history")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no state database")

	// Builds still work without a store.
	require.NoError(t, runCLI(t, "-c", configPath, "build"))
}
