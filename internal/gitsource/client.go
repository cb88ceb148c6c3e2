// Package gitsource materializes git-backed documentation sources into a
// local workspace cache before discovery.
package gitsource

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/tocbuilder/internal/config"
	"git.home.luguber.info/inful/tocbuilder/internal/logfields"
)

// Client handles git operations for documentation sources.
type Client struct {
	workspaceDir string
}

// NewClient creates a client that keeps checkouts under workspaceDir.
func NewClient(workspaceDir string) *Client {
	return &Client{workspaceDir: workspaceDir}
}

// Materialize returns a local directory for the source. Local-path sources
// pass through unchanged; git sources are cloned on first use and pulled on
// subsequent runs.
func (c *Client) Materialize(src config.Source) (string, error) {
	if src.Path != "" {
		return src.Path, nil
	}

	checkout := filepath.Join(c.workspaceDir, src.Name)
	if _, err := os.Stat(filepath.Join(checkout, ".git")); err == nil {
		return c.update(checkout, src)
	}
	return c.clone(checkout, src)
}

func (c *Client) clone(checkout string, src config.Source) (string, error) {
	slog.Debug("Cloning source", logfields.Source(src.Name), slog.String("url", src.URL), logfields.Path(checkout))

	if err := os.RemoveAll(checkout); err != nil {
		return "", fmt.Errorf("remove stale checkout: %w", err)
	}

	opts := &git.CloneOptions{URL: src.URL}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + src.Branch)
		opts.SingleBranch = true
	}

	repo, err := git.PlainClone(checkout, false, opts)
	if err != nil {
		return "", fmt.Errorf("clone %s: %w", src.URL, err)
	}

	if ref, herr := repo.Head(); herr == nil {
		slog.Info("Source cloned", logfields.Source(src.Name), slog.String("commit", shortHash(ref)))
	} else {
		slog.Info("Source cloned", logfields.Source(src.Name))
	}
	return checkout, nil
}

func (c *Client) update(checkout string, src config.Source) (string, error) {
	repo, err := git.PlainOpen(checkout)
	if err != nil {
		return "", fmt.Errorf("open checkout: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}

	pullOpts := &git.PullOptions{RemoteName: "origin"}
	if src.Branch != "" {
		pullOpts.ReferenceName = plumbing.ReferenceName("refs/heads/" + src.Branch)
		pullOpts.SingleBranch = true
	}

	err = wt.Pull(pullOpts)
	switch {
	case err == nil:
		if ref, herr := repo.Head(); herr == nil {
			slog.Info("Source updated", logfields.Source(src.Name), slog.String("commit", shortHash(ref)))
		}
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		slog.Debug("Source already up to date", logfields.Source(src.Name))
	default:
		// A broken incremental update falls back to a fresh clone rather
		// than failing the build.
		slog.Warn("Pull failed, re-cloning", logfields.Source(src.Name), logfields.Error(err))
		return c.clone(checkout, src)
	}
	return checkout, nil
}

func shortHash(ref *plumbing.Reference) string {
	h := ref.Hash().String()
	if len(h) > 8 {
		return h[:8]
	}
	return h
}
