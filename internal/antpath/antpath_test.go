package antpath_test

import (
	"testing"

	"github.com/paveg/textrules/internal/antpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"**/*.properties", "setup.properties", true},
		{"**/*.properties", "conf/env/setup.properties", true},
		{"**/*.properties", "conf/env/setup.txt", false},
		{"**/effective-pom.xml", "effective-pom.xml", true},
		{"**/effective-pom.xml", "module/target/effective-pom.xml", true},
		{"**/effective-pom.xml", "module/target/effective-pom.xml.bak", false},
		{"**/*setup-env*", "deploy/feature-setup-env.properties", true},
		{"**/*setup-env*", "deploy/setup.properties", false},
		{"*.txt", "notes.txt", true},
		{"*.txt", "docs/notes.txt", false},
		{"src/?.js", "src/a.js", true},
		{"src/?.js", "src/ab.js", false},
		{"conf/", "conf/a/b/c.properties", true},
		{"conf/", "other/c.properties", false},
		{"**/*", "anything/at/all", true},
		{"", "anything/at/all", true},
		{"**/*.properties", "./conf/setup.properties", true},
		{"**/*.properties", `conf\setup.properties`, true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.path, func(t *testing.T) {
			p, err := antpath.Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.path))
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	_, err := antpath.Compile("conf/[a-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file pattern")

	assert.Panics(t, func() { antpath.MustCompile("conf/[a-") })
}

func TestNilPatternMatchesEverything(t *testing.T) {
	var p *antpath.Pattern
	assert.True(t, p.Match("a/b.txt"))
	assert.Empty(t, p.String())
}

func TestCompileAllAndMatchAny(t *testing.T) {
	patterns, err := antpath.CompileAll([]string{"**/vendor/**", "", "  ", "**/*.min.js"})
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	assert.True(t, antpath.MatchAny(patterns, "a/vendor/lib/x.txt"))
	assert.True(t, antpath.MatchAny(patterns, "static/app.min.js"))
	assert.False(t, antpath.MatchAny(patterns, "static/app.js"))
	assert.False(t, antpath.MatchAny(nil, "static/app.js"))

	_, err = antpath.CompileAll([]string{"ok/**", "bad/[x-"})
	assert.Error(t, err)
}
