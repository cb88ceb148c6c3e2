package directive

import (
	"strconv"
	"strings"
)

const rstMarker = ".. toctree::"

// ParseRST extracts all toctree directives from a reStructuredText document.
//
// Other directives and comment blocks (".. " lines that do not introduce a
// toctree, e.g. disabled image or badge markup) are inert and skipped along
// with their indented bodies.
func ParseRST(content []byte) ([]Toctree, []Problem) {
	lines := splitLines(string(content))

	var trees []Toctree
	var problems []Problem

	for i := 0; i < len(lines); {
		line := lines[i]
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)

		if !strings.HasPrefix(trimmed, rstMarker) {
			i++
			continue
		}

		tree := Toctree{Line: i + 1}
		block, next := collectIndentedBlock(lines, i+1, indent)
		parseBody(block, &tree, &problems)
		trees = append(trees, tree)
		i = next
	}

	return trees, problems
}

// blockLine pairs a dedented body line with its original line number.
type blockLine struct {
	text string // dedented content
	num  int    // 1-based source line
}

// collectIndentedBlock gathers the directive body: lines indented deeper
// than the marker, allowing interior blank lines. Returns the body and the
// index of the first line after the block.
func collectIndentedBlock(lines []string, start, markerIndent int) ([]blockLine, int) {
	var body []blockLine
	i := start
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			body = append(body, blockLine{text: "", num: i + 1})
			continue
		}
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)
		if indent <= markerIndent {
			break
		}
		body = append(body, blockLine{text: trimmed, num: i + 1})
	}
	// Trim trailing blanks so the block end is exact.
	for len(body) > 0 && body[len(body)-1].text == "" {
		body = body[:len(body)-1]
	}
	return body, i
}

// parseBody interprets a directive body: leading ":key: value" option
// fields, then entry lines.
func parseBody(body []blockLine, tree *Toctree, problems *[]Problem) {
	inOptions := true
	for _, bl := range body {
		if bl.text == "" {
			continue
		}
		if inOptions && strings.HasPrefix(bl.text, ":") {
			parseOption(bl, tree, problems)
			continue
		}
		inOptions = false
		if entry, ok := parseEntry(bl, problems); ok {
			tree.Entries = append(tree.Entries, entry)
		}
	}
}

func parseOption(bl blockLine, tree *Toctree, problems *[]Problem) {
	rest := bl.text[1:]
	name, value, found := strings.Cut(rest, ":")
	if !found {
		*problems = append(*problems, Problem{Line: bl.num, Message: "malformed option field: missing closing ':'"})
		return
	}
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	switch name {
	case "maxdepth":
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 0 {
			*problems = append(*problems, Problem{Line: bl.num, Message: "maxdepth requires a non-negative integer, got " + strconv.Quote(value)})
			return
		}
		tree.MaxDepth = depth
	case "caption":
		tree.Caption = value
	case "hidden":
		tree.Hidden = true
	case "titlesonly":
		tree.TitlesOnly = true
	case "numbered":
		tree.Numbered = true
	case "glob":
		tree.Glob = true
	case "reversed":
		tree.Reversed = true
	case "name", "class": // accepted by Sphinx, irrelevant to navigation
	default:
		*problems = append(*problems, Problem{Line: bl.num, Message: "unknown toctree option :" + name + ":"})
	}
}

// parseEntry parses one entry line: either a bare target or "Label <target>".
func parseEntry(bl blockLine, problems *[]Problem) (Entry, bool) {
	text := strings.TrimSpace(bl.text)

	if strings.HasSuffix(text, ">") {
		open := strings.LastIndex(text, "<")
		if open < 0 {
			*problems = append(*problems, Problem{Line: bl.num, Message: "entry ends with '>' but has no matching '<'"})
			return Entry{}, false
		}
		title := strings.TrimSpace(text[:open])
		target := strings.TrimSpace(text[open+1 : len(text)-1])
		if target == "" {
			*problems = append(*problems, Problem{Line: bl.num, Message: "entry has an empty target"})
			return Entry{}, false
		}
		return Entry{Title: title, Target: target, Line: bl.num}, true
	}

	if strings.Contains(text, "<") {
		*problems = append(*problems, Problem{Line: bl.num, Message: "entry has an unclosed '<'"})
		return Entry{}, false
	}

	return Entry{Target: text, Line: bl.num}, true
}

// splitLines splits on \n and tolerates \r\n endings.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
