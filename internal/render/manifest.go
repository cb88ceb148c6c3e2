package render

import (
	"encoding/json"
	"fmt"
	"os"

	"git.home.luguber.info/inful/tocbuilder/internal/document"
	"git.home.luguber.info/inful/tocbuilder/internal/navtree"
)

// Manifest is the machine-readable description of a built site. It carries
// no timestamps so that identical inputs produce identical manifests.
type Manifest struct {
	Site            string          `json:"site"`
	Description     string          `json:"description,omitempty"`
	BaseURL         string          `json:"base_url,omitempty"`
	Root            string          `json:"root"`
	DocumentCount   int             `json:"document_count"`
	DocsFingerprint string          `json:"docs_fingerprint"`
	Groups          []ManifestGroup `json:"groups"`
}

// ManifestGroup mirrors one navigation group.
type ManifestGroup struct {
	Caption  string         `json:"caption,omitempty"`
	Hidden   bool           `json:"hidden,omitempty"`
	MaxDepth int            `json:"maxdepth,omitempty"`
	Nodes    []ManifestNode `json:"nodes"`
}

// ManifestNode mirrors one navigation entry. Href is the absolute page URL,
// present when the site has a base URL.
type ManifestNode struct {
	Title    string         `json:"title"`
	Docname  string         `json:"docname,omitempty"`
	URL      string         `json:"url,omitempty"`
	Href     string         `json:"href,omitempty"`
	External bool           `json:"external,omitempty"`
	Children []ManifestNode `json:"children,omitempty"`
}

// BuildManifest assembles the manifest for a document set and its tree.
func BuildManifest(site Site, docs []document.Document, tree *navtree.Tree) *Manifest {
	m := &Manifest{
		Site:            site.Title,
		Description:     site.Description,
		BaseURL:         site.BaseURL,
		Root:            tree.Root,
		DocumentCount:   len(docs),
		DocsFingerprint: document.SetFingerprint(docs),
	}
	for _, g := range tree.Groups {
		m.Groups = append(m.Groups, ManifestGroup{
			Caption:  g.Caption,
			Hidden:   g.Hidden,
			MaxDepth: g.MaxDepth,
			Nodes:    manifestNodes(g.Nodes, site.BaseURL),
		})
	}
	return m
}

func manifestNodes(nodes []*navtree.Node, baseURL string) []ManifestNode {
	out := make([]ManifestNode, 0, len(nodes))
	for _, n := range nodes {
		node := ManifestNode{
			Title:    n.Title,
			Docname:  n.Docname,
			URL:      n.URL,
			External: n.External,
			Children: manifestNodes(n.Children, baseURL),
		}
		if !n.External && n.Docname != "" {
			node.Href = absoluteURL(baseURL, n.Docname+".html")
		}
		out = append(out, node)
	}
	return out
}

// WriteManifest serializes the manifest to path with stable formatting.
func WriteManifest(path string, site Site, docs []document.Document, tree *navtree.Tree) error {
	m := BuildManifest(site, docs, tree)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
