package document

import (
	"path"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractTitle returns the document's display title: the first section
// title of the body, a frontmatter title when present, or the docname base
// as a last resort.
func ExtractTitle(doc *Document) string {
	switch doc.Format {
	case FormatRST:
		if t := rstTitle(doc.Content); t != "" {
			return t
		}
	case FormatMarkdown:
		fm, body, had, err := splitFrontmatter(doc.Content)
		if err == nil {
			if had {
				if meta, err := parseFrontmatter(fm); err == nil {
					if t, ok := meta["title"].(string); ok && t != "" {
						return t
					}
				}
			}
			if t := markdownTitle(body); t != "" {
				return t
			}
		}
	}
	return fallbackTitle(doc.Docname)
}

// rstTitle finds the first section title: a text line whose following line
// is an adornment of punctuation at least as long as the text. The overline
// form (adornment above and below) is also accepted.
func rstTitle(content []byte) string {
	lines := strings.Split(string(content), "\n")
	for i := 0; i+1 < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		next := strings.TrimRight(lines[i+1], "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isAdornment(line) {
			// Overline form: adornment, title, adornment.
			if i+2 < len(lines) {
				title := strings.TrimRight(lines[i+1], "\r")
				under := strings.TrimRight(lines[i+2], "\r")
				if !isAdornment(title) && isAdornment(under) && len(under) >= len(strings.TrimSpace(title)) {
					return strings.TrimSpace(title)
				}
			}
			continue
		}
		if isAdornment(next) && len(next) >= len(strings.TrimSpace(line)) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

const adornmentChars = `=-~^"'` + "`" + `#*+.:_`

func isAdornment(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) < 2 {
		return false
	}
	ch := line[0]
	if !strings.ContainsRune(adornmentChars, rune(ch)) {
		return false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != ch {
			return false
		}
	}
	return true
}

// markdownTitle returns the text of the first level-1 heading.
func markdownTitle(body []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	title := ""
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || title != "" {
			return gmast.WalkContinue, nil
		}
		heading, ok := n.(*gmast.Heading)
		if !ok || heading.Level != 1 {
			return gmast.WalkContinue, nil
		}
		var sb strings.Builder
		for i := 0; i < heading.Lines().Len(); i++ {
			seg := heading.Lines().At(i)
			sb.Write(seg.Value(body))
		}
		title = strings.TrimSpace(sb.String())
		return gmast.WalkStop, nil
	})
	return title
}

func fallbackTitle(docname string) string {
	base := path.Base(docname)
	base = strings.ReplaceAll(base, "-", " ")
	base = strings.ReplaceAll(base, "_", " ")
	return base
}
