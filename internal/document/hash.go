package document

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Fingerprint computes the content hash used for change detection.
func Fingerprint(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// SetFingerprint computes a deterministic hash over a whole document set.
// It is based on docnames and per-document fingerprints, so it changes when
// any document is added, removed, renamed or edited.
func SetFingerprint(docs []Document) string {
	if len(docs) == 0 {
		h := sha256.Sum256([]byte("empty-document-set"))
		return hex.EncodeToString(h[:])
	}

	entries := make([]string, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, d.Docname+"\x00"+d.Fingerprint)
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
