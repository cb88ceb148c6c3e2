// Package linkcheck validates the structural integrity of a documentation
// set: every toctree reference must resolve, every document should be
// reachable from the navigation, and external entries can optionally be
// probed over HTTP.
package linkcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"git.home.luguber.info/inful/tocbuilder/internal/document"
	"git.home.luguber.info/inful/tocbuilder/internal/logfields"
	"git.home.luguber.info/inful/tocbuilder/internal/navtree"
)

// Rule names attached to findings for stable machine consumption.
const (
	RuleToctree  = "toctree"
	RuleOrphan   = "orphan"
	RuleExternal = "external-link"
)

// Finding is one validation result.
type Finding struct {
	Docname  string           `json:"docname"`
	Line     int              `json:"line,omitempty"`
	Severity navtree.Severity `json:"severity"`
	Rule     string           `json:"rule"`
	Message  string           `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: %s [%s]: %s", f.Docname, f.Line, f.Severity, f.Rule, f.Message)
}

// Report aggregates findings from one check run.
type Report struct {
	Findings []Finding `json:"findings"`
}

func (r *Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == navtree.SeverityError {
			return true
		}
	}
	return false
}

func (r *Report) HasWarnings() bool {
	for _, f := range r.Findings {
		if f.Severity == navtree.SeverityWarning {
			return true
		}
	}
	return false
}

// Options configures a Checker.
type Options struct {
	OrphanAllowlist []string
	CheckExternal   bool
	MaxConcurrent   int // concurrent external probes; defaults to 10
	HTTPClient      *http.Client
}

// Checker runs integrity validation over a resolved document set.
type Checker struct {
	allowlist     map[string]struct{}
	checkExternal bool
	maxConcurrent int
	httpClient    *http.Client
}

// NewChecker creates a checker from options.
func NewChecker(opts Options) *Checker {
	allow := make(map[string]struct{}, len(opts.OrphanAllowlist))
	for _, name := range opts.OrphanAllowlist {
		allow[name] = struct{}{}
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Checker{
		allowlist:     allow,
		checkExternal: opts.CheckExternal,
		maxConcurrent: maxConcurrent,
		httpClient:    client,
	}
}

// Check validates the document set against its resolved navigation.
// Resolution diagnostics are folded into the report so callers get a single
// result surface.
func (c *Checker) Check(ctx context.Context, docs []document.Document, tree *navtree.Tree, diags []navtree.Diagnostic) *Report {
	report := &Report{}

	for _, d := range diags {
		report.Findings = append(report.Findings, Finding{
			Docname:  d.Docname,
			Line:     d.Line,
			Severity: d.Severity,
			Rule:     RuleToctree,
			Message:  d.Message,
		})
	}

	reachable := tree.Reachable()
	for _, doc := range docs {
		if _, ok := reachable[doc.Docname]; ok {
			continue
		}
		if doc.Orphan {
			continue
		}
		if _, ok := c.allowlist[doc.Docname]; ok {
			continue
		}
		report.Findings = append(report.Findings, Finding{
			Docname:  doc.Docname,
			Severity: navtree.SeverityWarning,
			Rule:     RuleOrphan,
			Message:  "document is not reachable from any toctree",
		})
	}

	if c.checkExternal {
		report.Findings = append(report.Findings, c.probeExternal(ctx, tree)...)
	}

	sortFindings(report.Findings)
	return report
}

// probeExternal issues bounded-concurrency HEAD requests for external
// navigation entries.
func (c *Checker) probeExternal(ctx context.Context, tree *navtree.Tree) []Finding {
	urls := externalURLs(tree)
	if len(urls) == 0 {
		return nil
	}
	slog.Info("Probing external links", logfields.Count(len(urls)))

	sem := make(chan struct{}, c.maxConcurrent)
	var mu sync.Mutex
	var findings []Finding
	var wg sync.WaitGroup

	for _, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(url string) {
			defer wg.Done()
			defer func() { <-sem }()

			if msg, ok := c.probeOne(ctx, url); !ok {
				mu.Lock()
				findings = append(findings, Finding{
					Docname:  tree.Root,
					Severity: navtree.SeverityWarning,
					Rule:     RuleExternal,
					Message:  msg,
				})
				mu.Unlock()
			}
		}(u)
	}
	wg.Wait()
	return findings
}

func (c *Checker) probeOne(ctx context.Context, url string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Sprintf("external link %s: %v", url, err), false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("external link %s: %v", url, err), false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Sprintf("external link %s: status %d", url, resp.StatusCode), false
	}
	return "", true
}

func externalURLs(tree *navtree.Tree) []string {
	seen := map[string]struct{}{}
	var walk func(nodes []*navtree.Node)
	walk = func(nodes []*navtree.Node) {
		for _, n := range nodes {
			if n.External {
				seen[n.URL] = struct{}{}
			}
			walk(n.Children)
		}
	}
	for _, g := range tree.Groups {
		walk(g.Nodes)
	}

	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Docname != findings[j].Docname {
			return findings[i].Docname < findings[j].Docname
		}
		return findings[i].Line < findings[j].Line
	})
}
