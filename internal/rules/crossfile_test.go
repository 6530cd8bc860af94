package rules_test

import (
	"context"
	"sync"
	"testing"

	"github.com/paveg/textrules/internal/config"
	"github.com/paveg/textrules/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCrossFileCheck(t *testing.T, cfg config.RuleConfig) rules.CrossFileCheck {
	t.Helper()
	rule, err := rules.New(cfg)
	require.NoError(t, err)
	check, ok := rule.(rules.CrossFileCheck)
	require.True(t, ok, "%T is not a cross-file check", rule)
	return check
}

// runCrossFile collects every file then raises issues, like a scan does
func runCrossFile(t *testing.T, check rules.CrossFileCheck, projectKey string, files ...*rules.SourceFile) []*rules.SourceFile {
	t.Helper()
	results := rules.NewCrossFileResults()
	for _, f := range files {
		require.NoError(t, check.Collect(context.Background(), f, projectKey, results))
	}
	return check.RaiseIssues(results)
}

func allIssues(files ...*rules.SourceFile) []rules.Issue {
	var out []rules.Issue
	for _, f := range files {
		out = append(out, f.Issues()...)
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

const (
	pomContent = "The first line\n<target>1.8</target>\nThe third line"
	envContent = "The first line\nJAVA_HOME=/software/java64/jdk1.7.0_60\nThe third line"
)

func TestDisallowedCheck(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RuleConfig
		expected int
		line     int
	}{
		{
			name: "line at a time",
			cfg: config.RuleConfig{
				TriggerExpression:   ".*<target>1.8</target>.*",
				TriggerFilePattern:  "**/effective-pom.xml",
				DisallowExpression:  ".*JAVA_HOME=.*jdk1.(6|7).*",
				DisallowFilePattern: "**/*setup-env*",
				OneLineAtATime:      boolPtr(true),
			},
			expected: 1,
			line:     2,
		},
		{
			name: "whole file with inline dotall flag",
			cfg: config.RuleConfig{
				TriggerExpression:   "(?s).*<target>1.8</target>.*third",
				TriggerFilePattern:  "**/effective-pom.xml",
				DisallowExpression:  "(?s).*JAVA_HOME=.*jdk1.(6|7).*third",
				DisallowFilePattern: "**/*setup-env*",
				OneLineAtATime:      boolPtr(false),
			},
			expected: 1,
			line:     1,
		},
		{
			name: "whole file mode does not imply dotall",
			cfg: config.RuleConfig{
				TriggerExpression:   "<target>1.8</target>.*third",
				TriggerFilePattern:  "**/effective-pom.xml",
				DisallowExpression:  ".*JAVA_HOME",
				DisallowFilePattern: "**/*setup-env*",
				OneLineAtATime:      boolPtr(false),
			},
			expected: 0,
		},
		{
			name: "trigger absent",
			cfg: config.RuleConfig{
				TriggerExpression:   ".*<target>11</target>.*",
				TriggerFilePattern:  "**/effective-pom.xml",
				DisallowExpression:  ".*JAVA_HOME=.*jdk1.(6|7).*",
				DisallowFilePattern: "**/*setup-env*",
			},
			expected: 0,
		},
		{
			name: "disallow pattern excludes the env file",
			cfg: config.RuleConfig{
				TriggerExpression:   ".*<target>1.8</target>.*",
				TriggerFilePattern:  "**/effective-pom.xml",
				DisallowExpression:  ".*JAVA_HOME=.*jdk1.(6|7).*",
				DisallowFilePattern: "**/*.sh",
			},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			pom := sourceFile(t, root, "effective-pom.xml", pomContent)
			env := sourceFile(t, root, "config/feature-setup-env.properties", envContent)

			cfg := tt.cfg
			cfg.Key = "StringDisallowedIfMatchInAnotherFileCheck"
			cfg.Type = config.RuleDisallowedIfMatchInOtherFile
			cfg.Message = "Project compiled to target Java 8 is being booted under a prior JVM version."
			check := mustCrossFileCheck(t, cfg)

			raised := runCrossFile(t, check, "project", pom, env)

			issues := allIssues(pom, env)
			require.Len(t, issues, tt.expected)
			if tt.expected > 0 {
				require.Len(t, raised, 1)
				assert.Same(t, env, raised[0])
				assert.Equal(t, "config/feature-setup-env.properties", issues[0].Path)
				assert.Equal(t, tt.line, issues[0].Line)
				assert.Equal(t, cfg.Message, issues[0].Message)
			}
		})
	}
}

func TestDisallowedCheck_EveryMatchBecomesAnIssue(t *testing.T) {
	root := t.TempDir()
	trigger := sourceFile(t, root, "pom.xml", "<target>1.8</target>")
	first := sourceFile(t, root, "a.env", "JAVA_HOME=jdk1.6\nok\nJAVA_HOME=jdk1.7")
	second := sourceFile(t, root, "b.env", "JAVA_HOME=jdk1.7")

	check := mustCrossFileCheck(t, config.RuleConfig{
		Key:                "jdk",
		Type:               config.RuleDisallowedIfMatchInOtherFile,
		TriggerExpression:  "<target>1.8</target>",
		DisallowExpression: "jdk1\\.[67]",
	})

	raised := runCrossFile(t, check, "", first, trigger, second)

	assert.Len(t, raised, 2)
	assert.Equal(t, []int{1, 3}, lines(first.Issues()))
	assert.Equal(t, []int{1}, lines(second.Issues()))
	assert.Empty(t, trigger.Issues())
}

func TestBothMustExistCheck(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RuleConfig
		expected int
		line     int
	}{
		{
			name: "must-also-exist missing",
			cfg: config.RuleConfig{
				TriggerExpression:        ".*<target>1.8</target>.*",
				MustAlsoExistExpression:  ".*-DFooProperty",
				OneLineAtATime:           boolPtr(true),
				TriggerFilePattern:       "**/effective-pom.xml",
				MustAlsoExistFilePattern: "**/*setup-env*",
			},
			expected: 1,
			line:     2,
		},
		{
			name: "must-also-exist missing in whole file mode",
			cfg: config.RuleConfig{
				TriggerExpression:        "(?s).*<target>1.8</target>.*third",
				MustAlsoExistExpression:  "(?s).*-DFooProperty.*third",
				OneLineAtATime:           boolPtr(false),
				TriggerFilePattern:       "**/effective-pom.xml",
				MustAlsoExistFilePattern: "**/*setup-env*",
			},
			expected: 1,
			line:     1,
		},
		{
			name: "must-also-exist present",
			cfg: config.RuleConfig{
				TriggerExpression:        ".*<target>1.8</target>.*",
				MustAlsoExistExpression:  "JAVA_HOME",
				TriggerFilePattern:       "**/effective-pom.xml",
				MustAlsoExistFilePattern: "**/*setup-env*",
			},
			expected: 0,
		},
		{
			name: "must-also-exist outside its file pattern",
			cfg: config.RuleConfig{
				TriggerExpression:        ".*<target>1.8</target>.*",
				MustAlsoExistExpression:  "JAVA_HOME",
				TriggerFilePattern:       "**/effective-pom.xml",
				MustAlsoExistFilePattern: "**/*.sh",
			},
			expected: 1,
			line:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			pom := sourceFile(t, root, "effective-pom.xml", pomContent)
			env := sourceFile(t, root, "feature-setup-env.properties", envContent)

			cfg := tt.cfg
			cfg.Key = "MultiFileIfOneStringExistsThenBothMustExistCheck"
			cfg.Type = config.RuleBothMustExist
			cfg.Message = "Project compiled to target Java 8 doesn't have recommended system property 'FooProperty'."
			check := mustCrossFileCheck(t, cfg)

			runCrossFile(t, check, "project", pom, env)

			issues := allIssues(pom, env)
			require.Len(t, issues, tt.expected)
			if tt.expected > 0 {
				assert.Equal(t, "text:MultiFileIfOneStringExistsThenBothMustExistCheck", issues[0].Rule.String())
				assert.Equal(t, "effective-pom.xml", issues[0].Path)
				assert.Equal(t, tt.line, issues[0].Line)
				assert.Equal(t, cfg.Message, issues[0].Message)
			}
		})
	}
}

func TestBothMustExistCheck_ProjectWide(t *testing.T) {
	// The must-also-exist match lives in a file sorted after the triggers;
	// it still satisfies every trigger in the project.
	root := t.TempDir()
	a := sourceFile(t, root, "a.txt", "trigger")
	b := sourceFile(t, root, "b.txt", "trigger")
	z := sourceFile(t, root, "z.txt", "required")

	check := mustCrossFileCheck(t, config.RuleConfig{
		Key:                     "both",
		Type:                    config.RuleBothMustExist,
		TriggerExpression:       "trigger",
		MustAlsoExistExpression: "required",
	})

	assert.Empty(t, runCrossFile(t, check, "", a, b, z))
	assert.Empty(t, allIssues(a, b, z))

	a2 := sourceFile(t, t.TempDir(), "a.txt", "trigger")
	b2 := sourceFile(t, t.TempDir(), "b.txt", "trigger\ntrigger")
	raised := runCrossFile(t, check, "", a2, b2)
	assert.Len(t, raised, 2)
	assert.Equal(t, []int{1}, lines(a2.Issues()))
	assert.Equal(t, []int{1, 2}, lines(b2.Issues()))
}

func TestCrossFileCheck_RaiseIssuesPerRule(t *testing.T) {
	root := t.TempDir()
	file := sourceFile(t, root, "file1", "")

	results := rules.NewCrossFileResults()
	record := func(rule string, part rules.Part) {
		results.Record(file, rules.PrelimIssue{
			Part:  part,
			Issue: rules.NewIssue(rules.NewRuleKey(rule), file.LogicalPath, 1, "msg", "MAJOR"),
		})
	}
	// rule1: trigger and must-also-exist present
	record("rule1", rules.TriggerPattern)
	record("rule1", rules.MustAlsoExistPattern)
	// rule2: trigger without must-also-exist
	record("rule2", rules.TriggerPattern)
	// rule3: must-also-exist without trigger
	record("rule3", rules.MustAlsoExistPattern)
	// rule4: nothing recorded

	raised := map[string]int{}
	for _, key := range []string{"rule1", "rule2", "rule3", "rule4"} {
		check := mustCrossFileCheck(t, config.RuleConfig{
			Key:                     key,
			Type:                    config.RuleBothMustExist,
			TriggerExpression:       "x",
			MustAlsoExistExpression: "y",
		})
		raised[key] = len(check.RaiseIssues(results))
	}

	assert.Equal(t, map[string]int{"rule1": 0, "rule2": 1, "rule3": 0, "rule4": 0}, raised)
	require.Len(t, file.Issues(), 1)
	assert.Equal(t, "text:rule2", file.Issues()[0].Rule.String())
}

func TestCrossFileCheck_ProjectKeyFilter(t *testing.T) {
	root := t.TempDir()
	pom := sourceFile(t, root, "effective-pom.xml", pomContent)
	env := sourceFile(t, root, "feature-setup-env.properties", envContent)

	check := mustCrossFileCheck(t, config.RuleConfig{
		Key:                     "jdk",
		Type:                    config.RuleDisallowedIfMatchInOtherFile,
		TriggerExpression:       "<target>1.8</target>",
		DisallowExpression:      "jdk1\\.7",
		DoNotFireForProjectKeys: "legacy",
	})

	assert.Empty(t, runCrossFile(t, check, "com.example:legacy", pom, env))
	assert.Empty(t, allIssues(pom, env))
}

func TestCrossFileResults(t *testing.T) {
	root := t.TempDir()
	f1 := sourceFile(t, root, "b/somepath", "")
	f2 := sourceFile(t, root, "a/somepath2", "")

	results := rules.NewCrossFileResults()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			file := f1
			if i%2 == 0 {
				file = f2
			}
			results.Record(file, rules.PrelimIssue{
				Part:  rules.TriggerPattern,
				Issue: rules.NewIssue(rules.NewRuleKey("rule1"), file.LogicalPath, 1, "msg", "MAJOR"),
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, results.Len())
	assert.Len(t, results.ForFile("b/somepath"), 25)
	assert.Len(t, results.ForFile("a/somepath2"), 25)
	assert.Empty(t, results.ForFile("missing"))

	files := results.Files()
	require.Len(t, files, 2)
	assert.Same(t, f2, files[0])
	assert.Same(t, f1, files[1])
}
