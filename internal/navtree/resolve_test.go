package navtree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tocbuilder/internal/directive"
	"git.home.luguber.info/inful/tocbuilder/internal/document"
)

func rstDoc(t *testing.T, docname, content string) document.Document {
	t.Helper()
	doc := document.Document{
		Docname: docname,
		Format:  document.FormatRST,
		Content: []byte(content),
	}
	doc.Toctrees, doc.Problems = directive.ParseRST([]byte(content))
	doc.Title = document.ExtractTitle(&doc)
	return doc
}

func TestResolve_IndexWithTwoGroups(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", `xdggs
=====

.. toctree::
   :maxdepth: 2
   :caption: User Guide

   Quickstart <quickstart>
   tutorials/index

.. toctree::
   :maxdepth: 2
   :caption: Technical information
   :hidden:

   changelog
   API reference <api>
`),
		rstDoc(t, "quickstart", "Quickstart\n==========\n"),
		rstDoc(t, "tutorials/index", "Tutorials\n=========\n\n.. toctree::\n\n   h3\n   healpix\n"),
		rstDoc(t, "tutorials/h3", "H3\n==\n"),
		rstDoc(t, "tutorials/healpix", "HEALPix\n=======\n"),
		rstDoc(t, "changelog", "Changelog\n=========\n"),
		rstDoc(t, "api", "API\n===\n"),
	}

	tree, diags := NewResolver(docs).Resolve("index")
	require.Empty(t, diags)
	require.Len(t, tree.Groups, 2)

	guide := tree.Groups[0]
	require.Equal(t, "User Guide", guide.Caption)
	require.False(t, guide.Hidden)
	require.Len(t, guide.Nodes, 2)
	require.Equal(t, "Quickstart", guide.Nodes[0].Title) // explicit label
	require.Equal(t, "quickstart", guide.Nodes[0].Docname)
	require.Equal(t, "Tutorials", guide.Nodes[1].Title) // derived from document title

	// Nested toctree of tutorials/index becomes children, resolved
	// relative to its directory.
	children := guide.Nodes[1].Children
	require.Len(t, children, 2)
	require.Equal(t, "tutorials/h3", children[0].Docname)
	require.Equal(t, "tutorials/healpix", children[1].Docname)

	tech := tree.Groups[1]
	require.True(t, tech.Hidden)
	require.Equal(t, "Technical information", tech.Caption)
	require.Equal(t, "API reference", tech.Nodes[1].Title)
}

func TestResolve_UnknownReferenceIsAnError(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", ".. toctree::\n\n   missing\n"),
	}
	tree, diags := NewResolver(docs).Resolve("index")
	require.Len(t, tree.Groups, 1)
	require.Empty(t, tree.Groups[0].Nodes)
	require.Len(t, diags, 1)
	require.Equal(t, SeverityError, diags[0].Severity)
	require.Contains(t, diags[0].Message, `unknown document "missing"`)
	require.Equal(t, 3, diags[0].Line)
}

func TestResolve_CycleDetected(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", ".. toctree::\n\n   a\n"),
		rstDoc(t, "a", "A\n=\n\n.. toctree::\n\n   b\n"),
		rstDoc(t, "b", "B\n=\n\n.. toctree::\n\n   a\n"),
	}
	tree, diags := NewResolver(docs).Resolve("index")
	require.Len(t, diags, 1)
	require.Equal(t, SeverityError, diags[0].Severity)
	require.Contains(t, diags[0].Message, "circular")
	require.Equal(t, "b", diags[0].Docname)

	// The cycle is cut, not followed: a -> b -> a(link only).
	a := tree.Groups[0].Nodes[0]
	b := a.Children[0]
	require.Equal(t, "a", b.Children[0].Docname)
	require.Empty(t, b.Children[0].Children)
}

func TestResolve_FirstReferenceWins(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", ".. toctree::\n\n   guide\n   appendix\n"),
		rstDoc(t, "guide", "Guide\n=====\n\n.. toctree::\n\n   shared\n"),
		rstDoc(t, "appendix", "Appendix\n========\n\n.. toctree::\n\n   shared\n"),
		rstDoc(t, "shared", "Shared\n======\n\n.. toctree::\n\n   deep\n"),
		rstDoc(t, "deep", "Deep\n====\n"),
	}
	tree, diags := NewResolver(docs).Resolve("index")
	require.Empty(t, diags)

	guide := tree.Groups[0].Nodes[0]
	appendix := tree.Groups[0].Nodes[1]

	// guide's reference came first and owns the expansion.
	require.Len(t, guide.Children, 1)
	require.Equal(t, "shared", guide.Children[0].Docname)
	require.Len(t, guide.Children[0].Children, 1)

	// appendix still links to shared but does not re-expand it.
	require.Len(t, appendix.Children, 1)
	require.Empty(t, appendix.Children[0].Children)
}

func TestResolve_SelfAndExternalEntries(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", "Home\n====\n\n.. toctree::\n\n   self\n   Issues <https://example.com/issues>\n"),
	}
	tree, diags := NewResolver(docs).Resolve("index")
	require.Empty(t, diags)

	nodes := tree.Groups[0].Nodes
	require.Len(t, nodes, 2)
	require.Equal(t, "index", nodes[0].Docname)
	require.Empty(t, nodes[0].Children)
	require.True(t, nodes[1].External)
	require.Equal(t, "https://example.com/issues", nodes[1].URL)
	require.Equal(t, "Issues", nodes[1].Title)
}

func TestResolve_GlobExpansionIsSortedAndExcludesSelf(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "guides/index", "Guides\n======\n\n.. toctree::\n   :glob:\n\n   *\n"),
		rstDoc(t, "guides/zebra", "Zebra\n=====\n"),
		rstDoc(t, "guides/alpha", "Alpha\n=====\n"),
	}
	tree, diags := NewResolver(docs).Resolve("guides/index")
	require.Empty(t, diags)

	nodes := tree.Groups[0].Nodes
	require.Len(t, nodes, 2)
	require.Equal(t, "guides/alpha", nodes[0].Docname)
	require.Equal(t, "guides/zebra", nodes[1].Docname)
}

func TestResolve_GlobWithNoMatchesWarns(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", ".. toctree::\n   :glob:\n\n   missing/*\n"),
	}
	_, diags := NewResolver(docs).Resolve("index")
	require.Len(t, diags, 1)
	require.Equal(t, SeverityWarning, diags[0].Severity)
	require.Contains(t, diags[0].Message, "matched no documents")
}

func TestResolve_ReversedEntries(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", ".. toctree::\n   :reversed:\n\n   a\n   b\n"),
		rstDoc(t, "a", "A\n=\n"),
		rstDoc(t, "b", "B\n=\n"),
	}
	tree, diags := NewResolver(docs).Resolve("index")
	require.Empty(t, diags)
	require.Equal(t, "b", tree.Groups[0].Nodes[0].Docname)
	require.Equal(t, "a", tree.Groups[0].Nodes[1].Docname)
}

func TestResolve_AbsoluteTargets(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", ".. toctree::\n\n   guide/intro\n"),
		rstDoc(t, "guide/intro", "Intro\n=====\n\n.. toctree::\n\n   /changelog\n"),
		rstDoc(t, "changelog", "Changelog\n=========\n"),
	}
	tree, diags := NewResolver(docs).Resolve("index")
	require.Empty(t, diags)
	intro := tree.Groups[0].Nodes[0]
	require.Equal(t, "changelog", intro.Children[0].Docname)
}

func TestResolve_MissingRoot(t *testing.T) {
	_, diags := NewResolver(nil).Resolve("index")
	require.Len(t, diags, 1)
	require.Contains(t, diags[0].Message, `root document "index" not found`)
}

func TestResolve_ParseProblemsSurfaceAsWarnings(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", ".. toctree::\n   :maxdepth: nope\n\n   a\n"),
		rstDoc(t, "a", "A\n=\n"),
	}
	_, diags := NewResolver(docs).Resolve("index")
	require.Len(t, diags, 1)
	require.Equal(t, SeverityWarning, diags[0].Severity)
	require.Contains(t, diags[0].Message, "maxdepth")
}

func TestReachableAndTruncated(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", ".. toctree::\n\n   a\n"),
		rstDoc(t, "a", "A\n=\n\n.. toctree::\n\n   b\n"),
		rstDoc(t, "b", "B\n=\n"),
		rstDoc(t, "unlinked", "Unlinked\n========\n"),
	}
	tree, _ := NewResolver(docs).Resolve("index")

	reach := tree.Reachable()
	require.Contains(t, reach, "index")
	require.Contains(t, reach, "a")
	require.Contains(t, reach, "b")
	require.NotContains(t, reach, "unlinked")

	cut := Truncated(tree.Groups[0].Nodes, 1)
	require.Len(t, cut, 1)
	require.Empty(t, cut[0].Children)
	// The original tree is untouched.
	require.Len(t, tree.Groups[0].Nodes[0].Children, 1)
}

func TestResolve_Deterministic(t *testing.T) {
	docs := []document.Document{
		rstDoc(t, "index", ".. toctree::\n   :glob:\n\n   guides/*\n"),
		rstDoc(t, "guides/a", "A\n=\n"),
		rstDoc(t, "guides/b", "B\n=\n"),
	}
	t1, d1 := NewResolver(docs).Resolve("index")
	t2, d2 := NewResolver(docs).Resolve("index")
	require.Equal(t, t1, t2)
	require.Equal(t, d1, d2)
}
