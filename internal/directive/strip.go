package directive

import "strings"

// StripRST returns the document with toctree directive blocks removed, so
// navigation markup does not leak into rendered page bodies. Other
// directives and comment blocks are left untouched.
func StripRST(content []byte) []byte {
	lines := splitLines(string(content))
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		trimmed := strings.TrimLeft(lines[i], " ")
		if !strings.HasPrefix(trimmed, rstMarker) {
			out = append(out, lines[i])
			i++
			continue
		}
		indent := len(lines[i]) - len(trimmed)
		_, i = collectIndentedBlock(lines, i+1, indent)
	}
	return []byte(strings.Join(out, "\n"))
}

// StripMyST returns the document with fenced {toctree} blocks removed,
// fences included.
func StripMyST(content []byte) []byte {
	lines := splitLines(string(content))
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		marker, info, ok := fenceLine(lines[i])
		if !ok || info != "{toctree}" {
			out = append(out, lines[i])
			i++
			continue
		}
		i++
		for i < len(lines) {
			closing, closingInfo, isFence := fenceLine(lines[i])
			i++
			if isFence && closingInfo == "" && len(closing) >= len(marker) {
				break
			}
		}
	}
	return []byte(strings.Join(out, "\n"))
}

// fenceLine reports whether a line opens or closes a backtick code fence,
// returning the fence marker and the trimmed info string.
func fenceLine(line string) (marker, info string, ok bool) {
	trimmed := strings.TrimSpace(line)
	n := 0
	for n < len(trimmed) && trimmed[n] == '`' {
		n++
	}
	if n < 3 {
		return "", "", false
	}
	return trimmed[:n], strings.TrimSpace(trimmed[n:]), true
}
