// Package antpath matches Ant style file patterns such as "**/*.properties"
// against slash separated paths relative to the scan root.
//
//	*   matches zero or more characters inside one path segment
//	?   matches exactly one character inside one path segment
//	**  matches zero or more directories
//
// A pattern ending in "/" matches everything below that directory, and an
// empty pattern matches every path.
package antpath

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pattern is a validated Ant style pattern.
type Pattern struct {
	raw     string
	pattern string
}

// Compile validates raw and returns a Pattern.
func Compile(raw string) (*Pattern, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return &Pattern{raw: raw}, nil
	}

	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	if strings.HasSuffix(p, "/") {
		p += "**"
	}

	if !doublestar.ValidatePattern(p) {
		return nil, fmt.Errorf("invalid file pattern %q", raw)
	}
	return &Pattern{raw: raw, pattern: p}, nil
}

// MustCompile is like Compile but panics on an invalid pattern.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether the relative path is included by the pattern.
func (p *Pattern) Match(relPath string) bool {
	if p == nil || p.pattern == "" {
		return true
	}
	name := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	name = strings.TrimPrefix(name, "/")

	ok, err := doublestar.Match(p.pattern, name)
	return err == nil && ok
}

// String returns the pattern as written in the configuration.
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.raw
}

// MatchAny reports whether any of the patterns includes relPath.
func MatchAny(patterns []*Pattern, relPath string) bool {
	for _, p := range patterns {
		if p.Match(relPath) {
			return true
		}
	}
	return false
}

// CompileAll compiles every pattern, stopping at the first invalid one.
func CompileAll(raws []string) ([]*Pattern, error) {
	patterns := make([]*Pattern, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		p, err := Compile(raw)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}
