package document

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/tocbuilder/internal/directive"
)

// Format identifies the source markup of a document.
type Format string

const (
	FormatRST      Format = "rst"
	FormatMarkdown Format = "markdown"
)

// Document represents a discovered documentation source file.
type Document struct {
	Path         string // absolute path to the file
	RelativePath string // path relative to the source root
	Source       string // source name from configuration
	Docname      string // normalized slash-separated reference name, no extension
	Format       Format
	Content      []byte
	Title        string // extracted section title; falls back to the docname base
	Fingerprint  string // sha256 of content, for change detection
	Orphan       bool   // explicitly excluded from orphan reporting

	Toctrees []directive.Toctree
	Problems []directive.Problem
}

// Asset is a discovered non-document file (images and other static files).
type Asset struct {
	Path         string
	RelativePath string
	Source       string
}

// Docname derives the canonical docname for a relative path. Names are
// NFC-normalized, slash-separated and extension-free. When namespaced is
// set (multiple sources), the source name becomes the leading path segment,
// mirroring how multi-repo sites keep references unambiguous.
func Docname(source, relPath string, namespaced bool) string {
	name := strings.ReplaceAll(relPath, "\\", "/")
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	name = norm.NFC.String(name)
	if namespaced {
		return source + "/" + name
	}
	return name
}

// FormatForPath reports the document format for a file name, or false for
// non-document files.
func FormatForPath(path string) (Format, bool) {
	switch {
	case strings.HasSuffix(path, ".rst"):
		return FormatRST, true
	case strings.HasSuffix(path, ".md"):
		return FormatMarkdown, true
	default:
		return "", false
	}
}
