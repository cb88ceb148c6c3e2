package linkcheck

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/tocbuilder/internal/navtree"
)

// HTMLLink is a link-carrying attribute extracted from rendered output.
type HTMLLink struct {
	URL       string
	Tag       string
	Attribute string
}

// ExtractHTMLLinks extracts href/src references from an HTML document.
func ExtractHTMLLinks(r io.Reader) ([]HTMLLink, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var links []HTMLLink
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			attr := ""
			switch n.Data {
			case "a", "link":
				attr = "href"
			case "img", "script":
				attr = "src"
			}
			if attr != "" {
				if v := getAttr(n, attr); v != "" {
					links = append(links, HTMLLink{URL: v, Tag: n.Data, Attribute: attr})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func getAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// VerifyRenderedOutput walks rendered HTML files and checks that every
// relative link resolves to a file in the output directory. External and
// fragment-only links are skipped.
func VerifyRenderedOutput(outputDir string) ([]Finding, error) {
	var findings []Finding

	err := filepath.WalkDir(outputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		links, err := ExtractHTMLLinks(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}

		rel, err := filepath.Rel(outputDir, p)
		if err != nil {
			return err
		}

		for _, link := range links {
			target, skip := internalTarget(link.URL)
			if skip {
				continue
			}
			var resolved string
			if strings.HasPrefix(target, "/") {
				// Site-absolute paths resolve against the output root.
				resolved = filepath.Join(outputDir, filepath.FromSlash(target))
			} else {
				resolved = filepath.Join(outputDir, filepath.FromSlash(path.Join(path.Dir(filepath.ToSlash(rel)), target)))
			}
			if _, err := os.Stat(resolved); err != nil {
				findings = append(findings, Finding{
					Docname:  filepath.ToSlash(rel),
					Severity: navtree.SeverityError,
					Rule:     RuleToctree,
					Message:  fmt.Sprintf("rendered link %q has no target file", link.URL),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortFindings(findings)
	return findings, nil
}

// internalTarget strips fragments and query strings from a relative link
// and reports whether the link should be skipped (external, anchor-only,
// or otherwise unresolvable locally).
func internalTarget(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "", true
	}
	if u.Path == "" {
		return "", true // fragment-only
	}
	return u.Path, false
}
