// Package render emits the built site: one HTML page per document with the
// global navigation sidebar, inline navigation for non-hidden toctree
// groups, copied assets, and a machine-readable manifest.
//
// Output is a pure function of the input document set and navigation tree;
// rendering the same inputs twice produces byte-identical files.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/tocbuilder/internal/directive"
	"git.home.luguber.info/inful/tocbuilder/internal/document"
	"git.home.luguber.info/inful/tocbuilder/internal/logfields"
	"git.home.luguber.info/inful/tocbuilder/internal/navtree"
)

// Site carries the site-level presentation settings.
type Site struct {
	Title       string
	Description string
	BaseURL     string // absolute site root; enables canonical links and manifest hrefs
}

// Renderer writes the built site to an output directory.
type Renderer struct {
	site     Site
	navDepth int // global navigation depth cap; 0 means unlimited
	markdown goldmark.Markdown
}

// New creates a renderer. navDepth caps navigation nesting everywhere; each
// group's own maxdepth can only tighten it further.
func New(site Site, navDepth int) *Renderer {
	return &Renderer{
		site:     site,
		navDepth: navDepth,
		markdown: goldmark.New(),
	}
}

// Render writes all pages, assets and the manifest. The output directory is
// created if needed; callers decide whether to clean it first.
func (r *Renderer) Render(outputDir string, docs []document.Document, assets []document.Asset, tree *navtree.Tree) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	namespaced := multipleSources(docs)

	for i := range docs {
		if err := r.renderPage(outputDir, &docs[i], tree); err != nil {
			return fmt.Errorf("render %s: %w", docs[i].Docname, err)
		}
	}

	for _, asset := range assets {
		if err := copyAsset(outputDir, asset, namespaced); err != nil {
			return fmt.Errorf("copy asset %s: %w", asset.RelativePath, err)
		}
	}

	if err := WriteManifest(filepath.Join(outputDir, "manifest.json"), r.site, docs, tree); err != nil {
		return err
	}

	slog.Info("Render complete", logfields.Path(outputDir), logfields.Count(len(docs)))
	return nil
}

func multipleSources(docs []document.Document) bool {
	first := ""
	for _, d := range docs {
		if first == "" {
			first = d.Source
		} else if d.Source != first {
			return true
		}
	}
	return false
}

func (r *Renderer) renderPage(outputDir string, doc *document.Document, tree *navtree.Tree) error {
	pageRel := doc.Docname + ".html"
	pagePath := filepath.Join(outputDir, filepath.FromSlash(pageRel))
	if err := os.MkdirAll(filepath.Dir(pagePath), 0o755); err != nil {
		return err
	}

	prefix := strings.Repeat("../", strings.Count(doc.Docname, "/"))

	body, err := r.renderBody(doc)
	if err != nil {
		return err
	}

	data := pageData{
		SiteTitle:   r.site.Title,
		Description: r.site.Description,
		Canonical:   absoluteURL(r.site.BaseURL, pageRel),
		Title:       doc.Title,
		Docname:     doc.Docname,
		Body:        body,
		Sidebar:     r.sidebarGroups(tree, prefix),
		Inline:      r.inlineGroups(doc, tree, prefix),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return err
	}
	return os.WriteFile(pagePath, buf.Bytes(), 0o644)
}

// renderBody converts document content to HTML. Toctree blocks are stripped
// first: their navigation markup belongs to the sidebar and inline sections,
// not the page body. Markdown is rendered properly; reStructuredText bodies
// are presented verbatim, since this tool's contract is navigation, not full
// RST rendering.
func (r *Renderer) renderBody(doc *document.Document) (template.HTML, error) {
	switch doc.Format {
	case document.FormatMarkdown:
		var buf bytes.Buffer
		if err := r.markdown.Convert(directive.StripMyST(doc.Content), &buf); err != nil {
			return "", err
		}
		return template.HTML(buf.String()), nil //nolint:gosec // goldmark output of trusted sources
	default:
		var buf bytes.Buffer
		if err := preTemplate.Execute(&buf, string(directive.StripRST(doc.Content))); err != nil {
			return "", err
		}
		return template.HTML(buf.String()), nil //nolint:gosec // template-escaped above
	}
}

// sidebarGroups renders every group, hidden ones included: hidden only
// suppresses inline rendering, not global navigation. The global depth cap
// applies; per-group maxdepth does not (it governs inline rendering only).
func (r *Renderer) sidebarGroups(tree *navtree.Tree, prefix string) []groupData {
	out := make([]groupData, 0, len(tree.Groups))
	for _, g := range tree.Groups {
		out = append(out, groupData{
			Caption: g.Caption,
			Nodes:   nodeData(navtree.Truncated(g.Nodes, r.navDepth), prefix),
		})
	}
	return out
}

// inlineGroups renders the document's own non-hidden toctrees, truncated to
// the tighter of the group maxdepth and the global cap. Only the root
// document declares groups in the global tree, so inline rendering applies
// there.
func (r *Renderer) inlineGroups(doc *document.Document, tree *navtree.Tree, prefix string) []groupData {
	if doc.Docname != tree.Root {
		return nil
	}
	var out []groupData
	for _, g := range tree.Groups {
		if g.Hidden {
			continue
		}
		out = append(out, groupData{
			Caption: g.Caption,
			Nodes:   nodeData(navtree.Truncated(g.Nodes, effectiveDepth(g.MaxDepth, r.navDepth)), prefix),
		})
	}
	return out
}

// effectiveDepth combines a group depth with the global cap; 0 means
// unlimited on either side.
func effectiveDepth(group, global int) int {
	switch {
	case group <= 0:
		return global
	case global <= 0:
		return group
	case global < group:
		return global
	default:
		return group
	}
}

// absoluteURL joins the configured base URL with a site-relative path, or
// returns "" when no base URL is set.
func absoluteURL(baseURL, rel string) string {
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + rel
}

func nodeData(nodes []*navtree.Node, prefix string) []nodeView {
	out := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		view := nodeView{Title: n.Title}
		if n.External {
			view.Href = n.URL
		} else {
			view.Href = prefix + n.Docname + ".html"
		}
		view.Children = nodeData(n.Children, prefix)
		out = append(out, view)
	}
	return out
}

func copyAsset(outputDir string, asset document.Asset, namespaced bool) error {
	rel := filepath.ToSlash(asset.RelativePath)
	if namespaced {
		rel = path.Join(asset.Source, rel)
	}
	dst := filepath.Join(outputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	src, err := os.Open(asset.Path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Clean removes a previous build output. Refuses obviously dangerous paths.
func Clean(outputDir string) error {
	if outputDir == "" || outputDir == "/" || outputDir == "." {
		return fmt.Errorf("refusing to clean output directory %q", outputDir)
	}
	return os.RemoveAll(outputDir)
}
