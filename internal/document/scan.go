package document

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/tocbuilder/internal/directive"
	"git.home.luguber.info/inful/tocbuilder/internal/logfields"
)

// ScanSource is a resolved source: a name and the local directory holding
// its documents (local path or a git checkout).
type ScanSource struct {
	Name string
	Dir  string
}

// Scanner discovers documentation files across sources.
type Scanner struct {
	sources []ScanSource
}

// NewScanner creates a scanner over the given resolved sources.
func NewScanner(sources []ScanSource) *Scanner {
	return &Scanner{sources: sources}
}

// Scan walks all sources and returns parsed documents and assets.
//
// Docnames are namespaced by source name when more than one source is
// configured, so references stay unambiguous across sources. Results are
// sorted by docname for deterministic downstream behavior.
func (s *Scanner) Scan() ([]Document, []Asset, error) {
	namespaced := len(s.sources) > 1

	var docs []Document
	var assets []Asset

	for _, src := range s.sources {
		if _, err := os.Stat(src.Dir); os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("source %q: directory not found: %s", src.Name, src.Dir)
		}
		slog.Info("Discovering documentation", logfields.Source(src.Name), logfields.Path(src.Dir))

		err := filepath.WalkDir(src.Dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if p != src.Dir && skipDir(name) {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(src.Dir, p)
			if err != nil {
				return err
			}

			format, isDoc := FormatForPath(name)
			if !isDoc {
				assets = append(assets, Asset{Path: p, RelativePath: rel, Source: src.Name})
				return nil
			}

			doc, err := loadDocument(p, rel, src.Name, format, namespaced)
			if err != nil {
				return fmt.Errorf("load %s: %w", p, err)
			}
			docs = append(docs, doc)
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("walk source %q: %w", src.Name, err)
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Docname < docs[j].Docname })
	sort.Slice(assets, func(i, j int) bool {
		if assets[i].Source != assets[j].Source {
			return assets[i].Source < assets[j].Source
		}
		return assets[i].RelativePath < assets[j].RelativePath
	})

	slog.Info("Discovery complete", logfields.Count(len(docs)), slog.Int("assets", len(assets)))
	return docs, assets, nil
}

func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "_build", "node_modules", "venv":
		return true
	}
	return false
}

func loadDocument(absPath, relPath, source string, format Format, namespaced bool) (Document, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		Path:         absPath,
		RelativePath: relPath,
		Source:       source,
		Docname:      Docname(source, relPath, namespaced),
		Format:       format,
		Content:      content,
		Fingerprint:  Fingerprint(content),
	}

	switch format {
	case FormatRST:
		doc.Toctrees, doc.Problems = directive.ParseRST(content)
		doc.Orphan = rstOrphan(content)
	case FormatMarkdown:
		doc.Toctrees, doc.Problems = directive.ParseMyST(content)
		doc.Orphan = markdownOrphan(content)
	}
	doc.Title = ExtractTitle(&doc)
	return doc, nil
}

// rstOrphan reports the ":orphan:" file-level metadata marker, which must
// appear before any body content.
func rstOrphan(content []byte) bool {
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return trimmed == ":orphan:"
	}
	return false
}

func markdownOrphan(content []byte) bool {
	fm, _, had, err := splitFrontmatter(content)
	if err != nil || !had {
		return false
	}
	meta, err := parseFrontmatter(fm)
	if err != nil {
		return false
	}
	orphan, ok := meta["orphan"].(bool)
	return ok && orphan
}
