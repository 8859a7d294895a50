// Package scanner walks a directory tree and collects the source files
// flowstruct can parse. It honors a root-level .flowignore file with
// gitignore-style patterns and a fixed list of excluded directories.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/l3aro/flowstruct/pkg/flow"
)

// IgnoreFileName is the default name of the ignore file read from the root.
const IgnoreFileName = ".flowignore"

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string        // Relative path from root, slash separated
	FullPath string        // Absolute path
	Language flow.Language // Language from the extension
	Size     int64         // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	DefaultExcludes []string // Directory names that are never entered
	IgnoreFileName  string   // Name of the ignore file at the root
	MaxFileSize     int64    // Files larger than this are skipped; 0 means no limit
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: IgnoreFileName,
		DefaultExcludes: []string{
			"node_modules",
			".git",
			"__pycache__",
			".venv",
			"venv",
			"dist",
			"build",
			"vendor",
			"target",
			"bin",
			"obj",
			".idea",
			".vscode",
		},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks root and returns every supported source file, sorted by path.
// Unreadable entries are skipped rather than aborting the walk.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	var ignore IgnoreList
	if s.opts.IgnoreFileName != "" {
		ignore, err = LoadIgnoreFile(filepath.Join(absRoot, s.opts.IgnoreFileName))
		if err != nil {
			return nil, fmt.Errorf("loading ignore patterns: %w", err)
		}
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			return skip(d)
		}
		if d.IsDir() && s.isDefaultExcluded(d.Name()) {
			return filepath.SkipDir
		}
		if ignore.Ignored(rel, d.IsDir()) {
			return skip(d)
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		lang, ok := DetectLanguage(path)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
			return nil
		}

		files = append(files, FileInfo{
			Path:     rel,
			FullPath: path,
			Language: lang,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func skip(d fs.DirEntry) error {
	if d.IsDir() {
		return filepath.SkipDir
	}
	return nil
}

// isDefaultExcluded checks if the name matches default exclusion patterns.
func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
