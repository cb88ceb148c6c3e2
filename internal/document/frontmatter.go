package document

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter is returned when a frontmatter block opens but
// never closes.
var ErrMissingClosingDelimiter = errors.New("frontmatter: missing closing delimiter")

// splitFrontmatter separates YAML frontmatter (`---` delimited) from the
// Markdown body.
//
// If the document does not start with a frontmatter delimiter, had is false
// and body is the full input.
func splitFrontmatter(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := "\n"
	if bytes.HasPrefix(content, []byte("---\r\n")) {
		nl = "\r\n"
	}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	fmEnd := start + idx + len(nl)
	bodyStart := start + idx + len(closeSeq)
	return content[start:fmEnd], content[bodyStart:], true, nil
}

// parseFrontmatter parses raw YAML frontmatter (without delimiters) into a map.
func parseFrontmatter(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}
	out := map[string]any{}
	if err := yaml.Unmarshal(frontmatter, &out); err != nil {
		return nil, err
	}
	return out, nil
}
