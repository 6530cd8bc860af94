package rules_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paveg/textrules/internal/config"
	scanerrors "github.com/paveg/textrules/internal/errors"
	"github.com/paveg/textrules/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sourceFile writes content under a temp root and returns it as a SourceFile
func sourceFile(t *testing.T, root, logicalPath, content string) *rules.SourceFile {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(logicalPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return rules.NewSourceFile(path, logicalPath)
}

func mustCheck(t *testing.T, cfg config.RuleConfig) rules.Check {
	t.Helper()
	rule, err := rules.New(cfg)
	require.NoError(t, err)
	check, ok := rule.(rules.Check)
	require.True(t, ok, "%T is not a per-file check", rule)
	return check
}

func lines(issues []rules.Issue) []int {
	out := make([]int, len(issues))
	for i, issue := range issues {
		out[i] = issue.Line
	}
	return out
}

func TestSimpleCheck(t *testing.T) {
	const content = "objectionable string\n\nsadf\n\n1objectionable string"

	tests := []struct {
		name       string
		expression string
		expected   []int
	}{
		{"match anywhere on the line", ".*objectionable string.*", []int{1, 5}},
		{"anchored at line start", "^objectionable string", []int{1}},
		{"no match", "absent", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := sourceFile(t, t.TempDir(), "conf/app.properties", content)
			check := mustCheck(t, config.RuleConfig{
				Key:        "simple",
				Type:       config.RuleSimple,
				Expression: tt.expression,
				Message:    "found it",
			})

			require.NoError(t, check.Validate(context.Background(), file, "project"))
			assert.Equal(t, tt.expected, lines(file.Issues()))
			for _, issue := range file.Issues() {
				assert.Equal(t, "text:simple", issue.Rule.String())
				assert.Equal(t, "conf/app.properties", issue.Path)
				assert.Equal(t, "found it", issue.Message)
				assert.Equal(t, "MAJOR", issue.Severity)
			}
		})
	}
}

func TestSimpleCheck_InvalidCharacterBytes(t *testing.T) {
	path, err := filepath.Abs(filepath.Join("testdata", "invalid_character_bytes.js"))
	require.NoError(t, err)
	file := rules.NewSourceFile(path, "invalid_character_bytes.js")

	check := mustCheck(t, config.RuleConfig{
		Key:        "sortfn",
		Type:       config.RuleSimple,
		Expression: ".*(ts_sort_numeric|ts_sort_datetime).*",
	})

	require.NoError(t, check.Validate(context.Background(), file, "project"))
	assert.Equal(t, []int{1, 4}, lines(file.Issues()))
}

func TestSimpleCheck_FilePattern(t *testing.T) {
	root := t.TempDir()
	included := sourceFile(t, root, "src/main/app.properties", "secret=1")
	excluded := sourceFile(t, root, "src/main/app.txt", "secret=1")

	check := mustCheck(t, config.RuleConfig{
		Key:         "secrets",
		Type:        config.RuleSimple,
		Expression:  "secret",
		FilePattern: "**/*.properties",
	})

	require.NoError(t, check.Validate(context.Background(), included, ""))
	require.NoError(t, check.Validate(context.Background(), excluded, ""))
	assert.Len(t, included.Issues(), 1)
	assert.Empty(t, excluded.Issues())
}

func TestCheck_DoNotFireForProjectKeys(t *testing.T) {
	tests := []struct {
		name       string
		filter     string
		projectKey string
		fires      bool
	}{
		{"blank filter", "", "com.example:legacy", true},
		{"whitespace filter", "   ", "com.example:legacy", true},
		{"partial match silences", "legacy", "com.example:legacy-app", false},
		{"full match silences", ".*:legacy.*", "com.example:legacy", false},
		{"no match fires", "legacy", "com.example:modern", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := sourceFile(t, t.TempDir(), "a.txt", "needle")
			check := mustCheck(t, config.RuleConfig{
				Key:                     "r",
				Type:                    config.RuleSimple,
				Expression:              "needle",
				DoNotFireForProjectKeys: tt.filter,
			})

			require.NoError(t, check.Validate(context.Background(), file, tt.projectKey))
			assert.Equal(t, tt.fires, len(file.Issues()) == 1)
		})
	}
}

func TestMultilineCheck(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		expression string
		expected   []int
	}{
		{"dot matches newline", "first\nsecond\nthird", "second.*third", []int{2}},
		{"first match only", "x\nneedle\nneedle", "needle", []int{2}},
		{"match at start of a line", "a\nb\nc", "c", []int{3}},
		{"span from line one", "<a>\n</a>", "<a>.*</a>", []int{1}},
		{"no match", "abc", "xyz", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := sourceFile(t, t.TempDir(), "a.txt", tt.content)
			check := mustCheck(t, config.RuleConfig{Key: "ml", Type: config.RuleMultiline, Expression: tt.expression})

			require.NoError(t, check.Validate(context.Background(), file, ""))
			assert.Equal(t, tt.expected, lines(file.Issues()))
		})
	}
}

func TestMultilineCheck_SkipsLargeFiles(t *testing.T) {
	file := sourceFile(t, t.TempDir(), "big.txt", strings.Repeat("a", 11))
	file.MaxChars = 10

	check := mustCheck(t, config.RuleConfig{Key: "ml", Type: config.RuleMultiline, Expression: "a"})

	err := check.Validate(context.Background(), file, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, scanerrors.ErrFileTooLarge)
	assert.Empty(t, file.Issues())

	exact := sourceFile(t, t.TempDir(), "exact.txt", strings.Repeat("a", 10))
	exact.MaxChars = 10
	require.NoError(t, check.Validate(context.Background(), exact, ""))
	assert.Len(t, exact.Issues(), 1)
}

func TestRequiredStringCheck(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []int
	}{
		{"trigger without required string", "a\nuse-feature=true\nb", []int{2}},
		{"trigger with required string", "use-feature=true\nfeature.licence=x", []int{}},
		{"required string spanning lines", "use-feature=true\nfeature.\nlicence", []int{}},
		{"no trigger", "nothing here", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := sourceFile(t, t.TempDir(), "a.properties", tt.content)
			check := mustCheck(t, config.RuleConfig{
				Key:                 "req",
				Type:                config.RuleRequiredStringNotPresent,
				TriggerExpression:   "use-feature=true",
				MustExistExpression: "feature\\..*licence",
			})

			require.NoError(t, check.Validate(context.Background(), file, ""))
			assert.Equal(t, tt.expected, lines(file.Issues()))
		})
	}
}

func TestCheck_MissingFile(t *testing.T) {
	file := rules.NewSourceFile(filepath.Join(t.TempDir(), "gone.txt"), "gone.txt")
	check := mustCheck(t, config.RuleConfig{Key: "r", Type: config.RuleSimple, Expression: "x"})

	err := check.Validate(context.Background(), file, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not read file")
}

func TestCheck_CancelledContext(t *testing.T) {
	file := sourceFile(t, t.TempDir(), "a.txt", "x")
	check := mustCheck(t, config.RuleConfig{Key: "r", Type: config.RuleSimple, Expression: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, check.Validate(ctx, file, ""), context.Canceled)
	assert.Empty(t, file.Issues())
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.RuleConfig
		expectedError string
	}{
		{
			name:          "unknown type",
			cfg:           config.RuleConfig{Key: "r", Type: "fuzzy"},
			expectedError: `unknown rule type "fuzzy"`,
		},
		{
			name:          "bad expression",
			cfg:           config.RuleConfig{Key: "r", Type: config.RuleSimple, Expression: "("},
			expectedError: "invalid expression",
		},
		{
			name: "bad disallow expression",
			cfg: config.RuleConfig{
				Key:                "r",
				Type:               config.RuleDisallowedIfMatchInOtherFile,
				TriggerExpression:  "x",
				DisallowExpression: "[",
			},
			expectedError: "invalid disallow_expression",
		},
		{
			name:          "bad file pattern",
			cfg:           config.RuleConfig{Key: "r", Type: config.RuleSimple, Expression: "x", FilePattern: "a/["},
			expectedError: "file_pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.New(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestNew_AcceptsTemplateAliases(t *testing.T) {
	rule, err := rules.New(config.RuleConfig{Key: "r", Type: "SimpleRegexMatchCheck", Expression: "x"})
	require.NoError(t, err)
	assert.IsType(t, &rules.SimpleCheck{}, rule)
}

func TestBuild(t *testing.T) {
	checks, cross, err := rules.Build([]config.RuleConfig{
		{Key: "a", Type: config.RuleSimple, Expression: "x"},
		{Key: "b", Type: config.RuleMultiline, Expression: "x"},
		{Key: "c", Type: config.RuleBothMustExist, TriggerExpression: "x", MustAlsoExistExpression: "y"},
	})
	require.NoError(t, err)
	assert.Len(t, checks, 2)
	require.Len(t, cross, 1)
	assert.Equal(t, rules.NewRuleKey("c"), cross[0].Key())
}

func TestDefinitions(t *testing.T) {
	defs := rules.Definitions()
	require.Len(t, defs, len(config.RuleTypes))

	for i, def := range defs {
		assert.Equal(t, config.RuleTypes[i], def.Type)
		assert.NotEmpty(t, def.Name)
		assert.Equal(t, config.DefaultSeverity, def.Severity)

		keys := make([]string, 0, len(def.Params))
		for _, p := range def.Params {
			keys = append(keys, p.Key)
		}
		for _, required := range def.Type.RequiredFields() {
			assert.Contains(t, keys, required)
		}
		assert.Contains(t, keys, "do_not_fire_for_project_keys")

		// Template keys resolve back to the same type
		parsed, err := config.ParseRuleType(def.Key)
		require.NoError(t, err)
		assert.Equal(t, def.Type, parsed)
	}
}

func TestChecks_LineEndingsAgree(t *testing.T) {
	configs := []config.RuleConfig{
		{Key: "simple", Type: config.RuleSimple, Expression: "target"},
		{Key: "multiline", Type: config.RuleMultiline, Expression: "target.*last"},
		{Key: "required", Type: config.RuleRequiredStringNotPresent, TriggerExpression: "target", MustExistExpression: "absent"},
	}
	endings := map[string]string{"lf": "\n", "crlf": "\r\n", "cr": "\r"}

	for name, eol := range endings {
		content := strings.Join([]string{"first", "second", "the target", "last"}, eol)

		for _, cfg := range configs {
			t.Run(name+"/"+cfg.Key, func(t *testing.T) {
				file := sourceFile(t, t.TempDir(), "app.properties", content)

				require.NoError(t, mustCheck(t, cfg).Validate(context.Background(), file, ""))
				assert.Equal(t, []int{3}, lines(file.Issues()))
			})
		}
	}
}
