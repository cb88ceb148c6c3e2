// Package navtree builds the global site navigation from per-document
// toctree directives, following the reference semantics of documentation
// generators: resolution starts at the root document, every document is
// expanded at most once (first reference wins), and cycles are reported
// rather than followed.
package navtree

import "fmt"

// Node is one entry in the navigation tree.
type Node struct {
	Title    string
	Docname  string  // empty for external entries
	URL      string  // set for external entries
	External bool
	Children []*Node
}

// Group is an ordered sequence of nodes declared by one toctree of the
// root document, with its presentation options.
type Group struct {
	Caption    string
	Hidden     bool // omitted from inline rendering, still part of global navigation
	MaxDepth   int  // 0 means unlimited
	TitlesOnly bool
	Numbered   bool
	Nodes      []*Node
}

// Tree is the resolved global navigation.
type Tree struct {
	Root   string // root docname
	Groups []Group
}

// Severity classifies resolution diagnostics.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a resolution finding tied to a source location.
type Diagnostic struct {
	Docname  string
	Line     int
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.Docname, d.Line, d.Severity, d.Message)
}

// Reachable returns the set of docnames present in the tree, including the
// root. Documents outside this set are orphans.
func (t *Tree) Reachable() map[string]struct{} {
	seen := map[string]struct{}{t.Root: {}}
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if !n.External && n.Docname != "" {
				seen[n.Docname] = struct{}{}
			}
			walk(n.Children)
		}
	}
	for _, g := range t.Groups {
		walk(g.Nodes)
	}
	return seen
}

// Truncated returns a copy of nodes cut to the given depth; depth 0 means
// unlimited. Used at render time to honor maxdepth without losing the full
// tree for global navigation.
func Truncated(nodes []*Node, depth int) []*Node {
	if depth <= 0 {
		return nodes
	}
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		cp := *n
		if depth == 1 {
			cp.Children = nil
		} else {
			cp.Children = Truncated(n.Children, depth-1)
		}
		out = append(out, &cp)
	}
	return out
}
