package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/vaultindex/vaultindex/internal/errors"
)

// Scanner discovers importable markdown files under a vault root.
type Scanner struct {
	root string
	docs *DocCache
}

// NewScanner creates a scanner for the vault at root. The doc cache is
// used by the tag filter and shared with later pipeline stages.
func NewScanner(root string, docs *DocCache) *Scanner {
	return &Scanner{root: root, docs: docs}
}

// Root returns the scanner's absolute vault root.
func (s *Scanner) Root() (string, error) {
	abs, err := filepath.Abs(s.root)
	if err != nil {
		return "", errors.New(errors.ErrCodeVaultNotFound, "resolving vault path", err).WithPath(s.root)
	}
	return abs, nil
}

// Discover walks the vault and returns matching files sorted by
// vault-relative path. A missing vault root is fatal; a missing
// --folder subdirectory only logs a warning and yields nothing,
// so a typo does not wipe any state downstream.
func (s *Scanner) Discover(ctx context.Context, opts ScanOptions) ([]*File, error) {
	root, err := s.Root()
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.New(errors.ErrCodeVaultNotFound, "vault root is not a directory", err).WithPath(root)
	}

	searchRoot := root
	if opts.Folder != "" {
		searchRoot = filepath.Join(root, opts.Folder)
		if info, err := os.Stat(searchRoot); err != nil || !info.IsDir() {
			slog.Warn("folder not found in vault", "folder", opts.Folder, "vault", root)
			return nil, nil
		}
		// A folder inside a skipped directory can never yield files.
		for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(opts.Folder)), "/") {
			if SkippedComponent(part) {
				return nil, nil
			}
		}
	}

	var globRe *regexp.Regexp
	if opts.Glob != "" {
		globRe, err = globRegexp(opts.Glob)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeConfigInvalid, err, "invalid glob pattern %q", opts.Glob)
		}
	}

	var files []*File
	walkErr := filepath.WalkDir(searchRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if rel == "." {
			return nil
		}
		relSlash := filepath.ToSlash(rel)

		if d.IsDir() {
			if SkippedComponent(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		if SkippedComponent(d.Name()) {
			return nil
		}
		if globRe != nil && !globRe.MatchString(relSlash) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, &File{
			RelPath: relSlash,
			AbsPath: path,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })

	if opts.Tag != "" {
		files = s.filterByTag(files, opts.Tag)
	}
	return files, nil
}

// SkippedComponent reports whether a single path component excludes
// its subtree: dot-prefixed names and vault housekeeping directories.
func SkippedComponent(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, skip := skipDirs[name]
	return skip
}

// filterByTag keeps files that carry the tag in front matter or inline
// in the body. Files that cannot be read are dropped from the result
// with a warning; the import stage will surface the error if the file
// is requested again.
func (s *Scanner) filterByTag(files []*File, tag string) []*File {
	filtered := files[:0]
	for _, f := range files {
		doc, err := s.docs.Load(f.AbsPath)
		if err != nil {
			slog.Warn("skipping unreadable file during tag filter",
				"path", f.RelPath, "error", err.Error())
			continue
		}
		if doc.HasTag(tag) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
