// Package globs matches slash-separated paths against gulp-style glob
// patterns, where "**" spans zero or more directories.
package globs

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher reports whether a path matches a compiled pattern.
type Matcher struct {
	pattern string
	globs   []glob.Glob
}

// Compile compiles pattern. A "/**/" segment also matches a single "/" so
// that "fonts/**/*.ttf" matches "fonts/a.ttf". The pattern is cleaned like
// the paths passed to Match, so "./www/**/*.scss" matches "www/a.scss".
func Compile(pattern string) (*Matcher, error) {
	pattern = clean(pattern)
	variants := []string{pattern}

	if strings.Contains(pattern, "/**/") {
		variants = append(variants, strings.ReplaceAll(pattern, "/**/", "/"))
	}

	if strings.HasPrefix(pattern, "**/") {
		variants = append(variants, strings.TrimPrefix(pattern, "**/"))
	}

	m := &Matcher{pattern: pattern}

	for _, v := range variants {
		g, err := glob.Compile(v, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling glob %q: %w", pattern, err)
		}

		m.globs = append(m.globs, g)
	}

	return m, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Matcher {
	m, err := Compile(pattern)
	if err != nil {
		panic(err)
	}

	return m
}

// Match reports whether p matches. p is cleaned and converted to slash form.
func (m *Matcher) Match(p string) bool {
	p = path.Clean(filepath.ToSlash(p))

	for _, g := range m.globs {
		if g.Match(p) {
			return true
		}
	}

	return false
}

// Pattern returns the original pattern.
func (m *Matcher) Pattern() string { return m.pattern }

// Base returns the static directory prefix of pattern: every leading path
// segment that contains no glob metacharacters. "www/app/**/*.scss" has the
// base "www/app"; a pattern without a static prefix has the base ".".
func Base(pattern string) string {
	segments := strings.Split(clean(pattern), "/")

	var static []string

	for i, seg := range segments {
		if strings.ContainsAny(seg, "*?[{") || i == len(segments)-1 {
			break
		}

		static = append(static, seg)
	}

	if len(static) == 0 {
		return "."
	}

	base := strings.Join(static, "/")
	if base == "" {
		return "/"
	}

	return filepath.FromSlash(base)
}

func clean(pattern string) string {
	return path.Clean(filepath.ToSlash(pattern))
}

// Set is an ordered list of matchers.
type Set []*Matcher

// CompileAll compiles every pattern.
func CompileAll(patterns []string) (Set, error) {
	set := make(Set, 0, len(patterns))

	for _, p := range patterns {
		m, err := Compile(p)
		if err != nil {
			return nil, err
		}

		set = append(set, m)
	}

	return set, nil
}

// Match reports whether any matcher in the set matches p.
func (s Set) Match(p string) bool {
	for _, m := range s {
		if m.Match(p) {
			return true
		}
	}

	return false
}

// Bases returns the distinct static bases of the set, in pattern order.
func (s Set) Bases() []string {
	seen := make(map[string]bool)

	var bases []string

	for _, m := range s {
		b := Base(m.pattern)
		if !seen[b] {
			seen[b] = true
			bases = append(bases, b)
		}
	}

	return bases
}
