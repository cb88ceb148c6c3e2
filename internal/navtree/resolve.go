package navtree

import (
	"fmt"
	"path"
	"sort"

	"git.home.luguber.info/inful/tocbuilder/internal/directive"
	"git.home.luguber.info/inful/tocbuilder/internal/document"
)

// Resolver builds a global navigation tree from a document set.
type Resolver struct {
	docs     map[string]*document.Document
	docnames []string // sorted, for deterministic glob expansion

	placed map[string]bool // docnames already expanded in the global tree
	stack  map[string]bool // docnames on the current expansion path

	diagnostics []Diagnostic
}

// NewResolver indexes the document set.
func NewResolver(docs []document.Document) *Resolver {
	index := make(map[string]*document.Document, len(docs))
	names := make([]string, 0, len(docs))
	for i := range docs {
		index[docs[i].Docname] = &docs[i]
		names = append(names, docs[i].Docname)
	}
	sort.Strings(names)
	return &Resolver{
		docs:     index,
		docnames: names,
		placed:   make(map[string]bool),
		stack:    make(map[string]bool),
	}
}

// Resolve builds the global tree rooted at the given docname.
//
// Syntax problems recorded on documents during parsing are surfaced as
// warnings alongside resolution diagnostics.
func (r *Resolver) Resolve(root string) (*Tree, []Diagnostic) {
	r.diagnostics = nil
	r.placed = make(map[string]bool)
	r.stack = make(map[string]bool)

	for _, name := range r.docnames {
		for _, p := range r.docs[name].Problems {
			r.diag(name, p.Line, SeverityWarning, p.Message)
		}
	}

	rootDoc, ok := r.docs[root]
	if !ok {
		r.diag(root, 0, SeverityError, fmt.Sprintf("root document %q not found", root))
		return &Tree{Root: root}, r.diagnostics
	}

	tree := &Tree{Root: root}
	r.placed[root] = true
	r.stack[root] = true
	defer delete(r.stack, root)

	for _, tt := range rootDoc.Toctrees {
		group := Group{
			Caption:    tt.Caption,
			Hidden:     tt.Hidden,
			MaxDepth:   tt.MaxDepth,
			TitlesOnly: tt.TitlesOnly,
			Numbered:   tt.Numbered,
			Nodes:      r.resolveEntries(rootDoc, tt),
		}
		tree.Groups = append(tree.Groups, group)
	}
	return tree, r.diagnostics
}

// resolveEntries resolves one toctree's entries into nodes.
func (r *Resolver) resolveEntries(containing *document.Document, tt directive.Toctree) []*Node {
	entries := tt.Entries
	if tt.Glob {
		entries = r.expandGlobs(containing, entries)
	}
	if tt.Reversed {
		reversed := make([]directive.Entry, len(entries))
		for i, e := range entries {
			reversed[len(entries)-1-i] = e
		}
		entries = reversed
	}

	var nodes []*Node
	for _, entry := range entries {
		if node := r.resolveEntry(containing, entry); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func (r *Resolver) resolveEntry(containing *document.Document, entry directive.Entry) *Node {
	if entry.IsExternal() {
		title := entry.Title
		if title == "" {
			title = entry.Target
		}
		return &Node{Title: title, URL: entry.Target, External: true}
	}

	target := containing.Docname
	if !entry.IsSelf() {
		target = resolveDocname(containing.Docname, entry.Target)
	}

	doc, ok := r.docs[target]
	if !ok {
		r.diag(containing.Docname, entry.Line, SeverityError,
			fmt.Sprintf("toctree references unknown document %q", target))
		return nil
	}

	title := entry.Title
	if title == "" {
		title = doc.Title
	}
	node := &Node{Title: title, Docname: target}

	if entry.IsSelf() {
		return node // never recurse into the containing document
	}
	if r.stack[target] {
		r.diag(containing.Docname, entry.Line, SeverityError,
			fmt.Sprintf("circular toctree reference to %q", target))
		return node
	}
	if r.placed[target] {
		// First reference wins: later references become plain links.
		return node
	}

	r.placed[target] = true
	r.stack[target] = true
	defer delete(r.stack, target)

	for _, sub := range doc.Toctrees {
		node.Children = append(node.Children, r.resolveEntries(doc, sub)...)
	}
	return node
}

// expandGlobs replaces pattern entries with matching docnames in sorted
// order, excluding the containing document. Non-pattern entries (explicit
// titles or exact names) pass through unchanged.
func (r *Resolver) expandGlobs(containing *document.Document, entries []directive.Entry) []directive.Entry {
	var out []directive.Entry
	for _, entry := range entries {
		if entry.Title != "" || entry.IsSelf() || entry.IsExternal() || !hasGlobMeta(entry.Target) {
			out = append(out, entry)
			continue
		}
		pattern := resolveDocname(containing.Docname, entry.Target)
		matched := false
		for _, name := range r.docnames {
			ok, err := path.Match(pattern, name)
			if err != nil {
				r.diag(containing.Docname, entry.Line, SeverityWarning,
					fmt.Sprintf("invalid glob pattern %q", entry.Target))
				break
			}
			if ok && name != containing.Docname {
				out = append(out, directive.Entry{Target: name, Line: entry.Line})
				matched = true
			}
		}
		if !matched {
			r.diag(containing.Docname, entry.Line, SeverityWarning,
				fmt.Sprintf("glob pattern %q matched no documents", entry.Target))
		}
	}
	return out
}

func hasGlobMeta(s string) bool {
	for _, c := range s {
		if c == '*' || c == '?' || c == '[' {
			return true
		}
	}
	return false
}

// resolveDocname resolves a toctree target against its containing document:
// absolute targets (leading "/") are project-relative, everything else is
// relative to the containing document's directory.
func resolveDocname(containing, target string) string {
	if path.IsAbs(target) {
		return path.Clean(target[1:])
	}
	return path.Clean(path.Join(path.Dir(containing), target))
}

func (r *Resolver) diag(docname string, line int, sev Severity, msg string) {
	r.diagnostics = append(r.diagnostics, Diagnostic{Docname: docname, Line: line, Severity: sev, Message: msg})
}
