package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan_SingleSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.rst", "xdggs\n=====\n\n.. toctree::\n\n   quickstart\n")
	writeFile(t, dir, "quickstart.rst", "Quickstart\n==========\n")
	writeFile(t, dir, "tutorials/h3.md", "# Working with H3\n")
	writeFile(t, dir, "_static/logo.png", "not-a-real-png")
	writeFile(t, dir, "_build/html/stale.rst", "Stale\n=====\n")
	writeFile(t, dir, ".hidden/secret.rst", "Secret\n======\n")

	docs, assets, err := NewScanner([]ScanSource{{Name: "docs", Dir: dir}}).Scan()
	require.NoError(t, err)

	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Docname)
	}
	require.Equal(t, []string{"index", "quickstart", "tutorials/h3"}, names)

	require.Len(t, assets, 1)
	require.Equal(t, filepath.Join("_static", "logo.png"), assets[0].RelativePath)

	index := docs[0]
	require.Equal(t, "xdggs", index.Title)
	require.Len(t, index.Toctrees, 1)
	require.NotEmpty(t, index.Fingerprint)
}

func TestScan_MultipleSourcesAreNamespaced(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	writeFile(t, a, "index.rst", "A\n=\n")
	writeFile(t, b, "index.rst", "B\n=\n")

	docs, _, err := NewScanner([]ScanSource{
		{Name: "alpha", Dir: a},
		{Name: "beta", Dir: b},
	}).Scan()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "alpha/index", docs[0].Docname)
	require.Equal(t, "beta/index", docs[1].Docname)
}

func TestScan_MissingSourceDir_Fails(t *testing.T) {
	_, _, err := NewScanner([]ScanSource{{Name: "docs", Dir: filepath.Join(t.TempDir(), "absent")}}).Scan()
	require.Error(t, err)
	require.Contains(t, err.Error(), "directory not found")
}

func TestScan_OrphanMarkers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scratch.rst", ":orphan:\n\nScratch\n=======\n")
	writeFile(t, dir, "notes.md", "---\norphan: true\n---\n# Notes\n")
	writeFile(t, dir, "normal.rst", "Normal\n======\n")

	docs, _, err := NewScanner([]ScanSource{{Name: "docs", Dir: dir}}).Scan()
	require.NoError(t, err)
	byName := map[string]Document{}
	for _, d := range docs {
		byName[d.Docname] = d
	}
	require.True(t, byName["scratch"].Orphan)
	require.True(t, byName["notes"].Orphan)
	require.False(t, byName["normal"].Orphan)
}

func TestDocname_Normalization(t *testing.T) {
	require.Equal(t, "guide/intro", Docname("docs", "guide/intro.rst", false))
	require.Equal(t, "guide/intro", Docname("docs", `guide\intro.md`, false))
	require.Equal(t, "docs/guide/intro", Docname("docs", "guide/intro.rst", true))
}

func TestExtractTitle_RSTForms(t *testing.T) {
	underline := Document{Format: FormatRST, Docname: "d", Content: []byte("My Title\n========\n\nBody.\n")}
	require.Equal(t, "My Title", ExtractTitle(&underline))

	overline := Document{Format: FormatRST, Docname: "d", Content: []byte("========\nMy Title\n========\n")}
	require.Equal(t, "My Title", ExtractTitle(&overline))

	none := Document{Format: FormatRST, Docname: "guide/getting-started", Content: []byte("just prose\nwith lines\n")}
	require.Equal(t, "getting started", ExtractTitle(&none))
}

func TestExtractTitle_Markdown(t *testing.T) {
	h1 := Document{Format: FormatMarkdown, Docname: "d", Content: []byte("# Heading One\n\nBody.\n")}
	require.Equal(t, "Heading One", ExtractTitle(&h1))

	fm := Document{Format: FormatMarkdown, Docname: "d", Content: []byte("---\ntitle: From Frontmatter\n---\n\nBody.\n")}
	require.Equal(t, "From Frontmatter", ExtractTitle(&fm))
}

func TestSetFingerprint_Deterministic(t *testing.T) {
	docs := []Document{
		{Docname: "b", Fingerprint: Fingerprint([]byte("two"))},
		{Docname: "a", Fingerprint: Fingerprint([]byte("one"))},
	}
	reordered := []Document{docs[1], docs[0]}

	require.Equal(t, SetFingerprint(docs), SetFingerprint(reordered))
	require.NotEqual(t, SetFingerprint(docs), SetFingerprint(docs[:1]))
	require.NotEmpty(t, SetFingerprint(nil))
}
