package scanner

import (
	"bufio"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnorePattern is a single gitignore-style pattern from a .flowignore file.
type IgnorePattern struct {
	raw     string
	negate  bool
	dirOnly bool
	glob    string
}

// ParseIgnorePattern parses one pattern line. Supported syntax: leading "!"
// negates, leading "/" anchors to the root, trailing "/" matches directories
// only, "*", "?", "[...]" and "{a,b}" glob within a segment, "**" spans
// segments.
func ParseIgnorePattern(line string) IgnorePattern {
	p := IgnorePattern{raw: line}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	anchored := false
	if strings.HasPrefix(line, "/") {
		anchored = true
		line = line[1:]
	}
	// a pattern with an inner slash is relative to the root, like git
	if strings.Contains(line, "/") {
		anchored = true
	}
	if !anchored && !strings.HasPrefix(line, "**/") {
		line = "**/" + line
	}
	p.glob = line
	return p
}

// String returns the pattern as written.
func (p IgnorePattern) String() string { return p.raw }

// IsNegation reports whether the pattern re-includes matching paths.
func (p IgnorePattern) IsNegation() bool { return p.negate }

// Match reports whether rel, a slash-separated path relative to the scan
// root, is matched by the pattern. isDir tells whether rel is a directory.
// A malformed pattern matches nothing.
func (p IgnorePattern) Match(rel string, isDir bool) bool {
	if !p.dirOnly {
		return p.matchGlob(rel)
	}

	// a directory pattern also covers everything below the directory
	segs := strings.Split(rel, "/")
	limit := len(segs)
	if !isDir {
		limit--
	}
	for end := 1; end <= limit; end++ {
		if p.matchGlob(strings.Join(segs[:end], "/")) {
			return true
		}
	}
	return false
}

func (p IgnorePattern) matchGlob(rel string) bool {
	ok, err := doublestar.Match(p.glob, rel)
	return err == nil && ok
}

// IgnoreList is an ordered set of patterns. Later patterns win, so a
// negation can re-include a path an earlier pattern excluded.
type IgnoreList []IgnorePattern

// Ignored reports whether rel should be skipped.
func (l IgnoreList) Ignored(rel string, isDir bool) bool {
	ignored := false
	for _, p := range l {
		if p.Match(rel, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

// LoadIgnoreFile reads patterns from file. Blank lines and lines starting
// with "#" are skipped. A missing file yields an empty list.
func LoadIgnoreFile(file string) (IgnoreList, error) {
	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var list IgnoreList
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, ParseIgnorePattern(line))
	}
	return list, sc.Err()
}
