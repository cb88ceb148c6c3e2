package directive

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMyST extracts toctree blocks from a MyST-flavored Markdown document.
//
// MyST expresses directives as fenced code blocks whose info string is the
// braced directive name:
//
//	```{toctree}
//	:maxdepth: 2
//	:caption: User Guide
//
//	Quickstart <quickstart>
//	tutorials/index
//	```
func ParseMyST(content []byte) ([]Toctree, []Problem) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(content))

	var trees []Toctree
	var problems []Problem

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		fenced, ok := n.(*gmast.FencedCodeBlock)
		if !ok {
			return gmast.WalkContinue, nil
		}
		info := ""
		if fenced.Info != nil {
			info = strings.TrimSpace(string(fenced.Info.Value(content)))
		}
		if info != "{toctree}" {
			return gmast.WalkContinue, nil
		}

		tree := Toctree{}
		if fenced.Lines().Len() > 0 {
			first := fenced.Lines().At(0)
			tree.Line = lineAt(content, first.Start) - 1 // the fence opener precedes the first body line
		}

		var body []blockLine
		for i := 0; i < fenced.Lines().Len(); i++ {
			seg := fenced.Lines().At(i)
			raw := strings.TrimRight(string(seg.Value(content)), "\r\n")
			body = append(body, blockLine{
				text: strings.TrimSpace(raw),
				num:  lineAt(content, seg.Start),
			})
		}
		parseBody(body, &tree, &problems)
		trees = append(trees, tree)
		return gmast.WalkSkipChildren, nil
	})

	return trees, problems
}

// lineAt returns the 1-based line number of a byte offset.
func lineAt(content []byte, offset int) int {
	if offset > len(content) {
		offset = len(content)
	}
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
