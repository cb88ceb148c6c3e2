// Package preview serves the rendered site locally and rebuilds it when
// source files change.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/tocbuilder/internal/logfields"
	"git.home.luguber.info/inful/tocbuilder/internal/pipeline"
)

// Builder is the part of the pipeline the preview server needs.
type Builder interface {
	Run(ctx context.Context, outputDir string) (*pipeline.Result, error)
}

// Server rebuilds and serves the site.
type Server struct {
	builder    Builder
	sourceDirs []string
	outputDir  string
	addr       string
	debounce   time.Duration

	epoch   atomic.Int64 // increments after every successful rebuild
	mu      sync.Mutex   // serializes rebuilds
	metrics http.Handler // optional /metrics handler
}

// NewServer creates a preview server.
func NewServer(builder Builder, sourceDirs []string, outputDir, addr string, debounce time.Duration) *Server {
	return &Server{
		builder:    builder,
		sourceDirs: sourceDirs,
		outputDir:  outputDir,
		addr:       addr,
		debounce:   debounce,
	}
}

// WithMetricsHandler exposes a /metrics endpoint on the preview server.
func (s *Server) WithMetricsHandler(h http.Handler) *Server {
	s.metrics = h
	return s
}

// Handler returns the HTTP handler: the rendered site, a reload epoch
// endpoint for client polling, and optionally /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.outputDir)))
	mux.HandleFunc("/__epoch__", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(strconv.FormatInt(s.epoch.Load(), 10)))
	})
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// Rebuild runs one build and bumps the reload epoch on success.
func (s *Server) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.builder.Run(ctx, s.outputDir)
	if err != nil {
		return err
	}
	s.epoch.Add(1)
	slog.Info("Preview rebuilt",
		logfields.BuildID(result.BuildID),
		slog.String("outcome", result.Outcome),
		slog.Int64("epoch", s.epoch.Load()))
	return nil
}

// Epoch returns the current reload epoch.
func (s *Server) Epoch() int64 { return s.epoch.Load() }

// Run builds once, then serves until the context is canceled, rebuilding
// on source changes.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Rebuild(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	watcher, err := s.newWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	go s.watchLoop(ctx, watcher)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", slog.String("addr", s.addr), logfields.Path(s.outputDir))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newWatcher watches every directory under the configured sources.
// Watching directories rather than files is more reliable across editors
// that replace files on save.
func (s *Server) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	for _, dir := range s.sourceDirs {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(p)
			}
			return nil
		})
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return watcher, nil
}

// watchLoop debounces change bursts and triggers rebuilds.
func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need to join the watch set.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if timer == nil {
				timer = time.AfterFunc(s.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(s.debounce)
			}
		case <-fire:
			timer = nil
			if err := s.Rebuild(ctx); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}
