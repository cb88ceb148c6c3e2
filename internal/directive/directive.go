// Package directive parses toctree directive blocks out of documentation
// sources. Two syntaxes are understood: the reStructuredText directive
// (".. toctree::" with field options and indented entries) and the
// MyST-Markdown fenced block ("```{toctree}").
//
// Parsing is lenient: malformed constructs are reported as Problems and
// never abort the parse, so a single bad line cannot hide the rest of a
// document's navigation.
package directive

import "strings"

// Entry is a single toctree entry: a target document reference with an
// optional explicit display title and its source line for diagnostics.
type Entry struct {
	Title  string // explicit title from "Label <target>"; empty when derived from the target document
	Target string // docname, external URL, "self", or a glob pattern when the tree has Glob set
	Line   int    // 1-based line in the source document
}

// IsExternal reports whether the entry points outside the project.
func (e Entry) IsExternal() bool {
	return strings.HasPrefix(e.Target, "http://") || strings.HasPrefix(e.Target, "https://")
}

// IsSelf reports whether the entry is the "self" keyword, which inserts
// the containing document into its own tree.
func (e Entry) IsSelf() bool { return e.Target == "self" }

// Toctree is one parsed toctree directive.
type Toctree struct {
	MaxDepth   int    // 0 means unlimited
	Caption    string // group label shown above the entries
	Hidden     bool   // registered for global navigation but not rendered inline
	TitlesOnly bool
	Numbered   bool
	Glob       bool // entries are shell-style patterns
	Reversed   bool
	Entries    []Entry
	Line       int // 1-based line of the directive marker
}

// Problem is a non-fatal syntax finding produced during parsing.
type Problem struct {
	Line    int
	Message string
}
