// Package crawler walks a remote repository tree and collects the file paths worth scanning.
package crawler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/naka-gawa/repolens/internal/domain"
)

// DefaultSkipDirs are dependency caches that are never descended into.
var DefaultSkipDirs = []string{"node_modules", "vendor", "bower_components", "__pycache__"}

// DirectoryLister lists one remote directory.
type DirectoryLister interface {
	ListDirectory(ctx context.Context, owner, repo, ref, path string) ([]domain.Entry, error)
}

// Crawler enumerates repository files depth-first.
type Crawler struct {
	lister   DirectoryLister
	logger   *log.Logger
	skipDirs map[string]struct{}
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithSkipDirs adds directory names that are never descended into.
func WithSkipDirs(names ...string) Option {
	return func(c *Crawler) {
		for _, n := range names {
			c.skipDirs[n] = struct{}{}
		}
	}
}

// New creates a Crawler backed by lister.
func New(lister DirectoryLister, logger *log.Logger, opts ...Option) *Crawler {
	c := &Crawler{
		lister:   lister,
		logger:   logger,
		skipDirs: make(map[string]struct{}, len(DefaultSkipDirs)),
	}
	for _, n := range DefaultSkipDirs {
		c.skipDirs[n] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListFiles returns every file under root whose name ends with one of exts.
// An empty exts keeps every file. Only a failure to list root itself is
// returned as an error; a failing subdirectory is logged and skipped.
func (c *Crawler) ListFiles(ctx context.Context, owner, repo, ref, root string, exts []string) ([]string, error) {
	entries, err := c.lister.ListDirectory(ctx, owner, repo, ref, root)
	if err != nil {
		return nil, fmt.Errorf("failed to list repository root %q: %w", root, err)
	}
	return c.ListFilesFrom(ctx, owner, repo, ref, entries, exts), nil
}

// ListFilesFrom is ListFiles over a root listing the caller already fetched.
func (c *Crawler) ListFilesFrom(ctx context.Context, owner, repo, ref string, root []domain.Entry, exts []string) []string {
	suffixes := normalizeExtensions(exts)
	var files []string
	c.walk(ctx, owner, repo, ref, root, suffixes, &files)
	return files
}

func (c *Crawler) walk(ctx context.Context, owner, repo, ref string, entries []domain.Entry, suffixes []string, files *[]string) {
	for _, e := range entries {
		switch {
		case e.IsFile():
			if matchesExtension(e.Name, suffixes) {
				*files = append(*files, e.Path)
			}
		case e.IsDir():
			if c.skip(e.Name) {
				continue
			}
			children, err := c.lister.ListDirectory(ctx, owner, repo, ref, e.Path)
			if err != nil {
				c.logger.Printf("  Skipping directory %s: %v\n", e.Path, err)
				continue
			}
			c.walk(ctx, owner, repo, ref, children, suffixes, files)
		}
	}
}

func (c *Crawler) skip(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := c.skipDirs[name]
	return ok
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

func matchesExtension(name string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
