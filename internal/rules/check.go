package rules

import (
	"context"
	"regexp"

	"github.com/paveg/textrules/internal/antpath"
	"github.com/paveg/textrules/internal/textio"
)

// Check validates one file at a time
type Check interface {
	Key() RuleKey
	Validate(ctx context.Context, file *SourceFile, projectKey string) error
}

// CrossFileCheck records matches while files are scanned and decides which
// of them become issues once every file has been seen.
type CrossFileCheck interface {
	Key() RuleKey
	Collect(ctx context.Context, file *SourceFile, projectKey string, results *CrossFileResults) error
	RaiseIssues(results *CrossFileResults) []*SourceFile
}

// How often line loops look at ctx
const cancelCheckInterval = 1024

// base carries what every check shares
type base struct {
	key          RuleKey
	message      string
	severity     string
	skipProjects *regexp.Regexp
}

func (b *base) Key() RuleKey {
	return b.key
}

// firesFor reports whether the rule applies to the project. A rule is
// silenced when its project key expression finds a match in projectKey.
func (b *base) firesFor(projectKey string) bool {
	return b.skipProjects == nil || !b.skipProjects.MatchString(projectKey)
}

func (b *base) issue(file *SourceFile, line int) Issue {
	return NewIssue(b.key, file.LogicalPath, line, b.message, b.severity)
}

// matchLines calls fn with the 1-based number of every line where re finds a match
func matchLines(ctx context.Context, file *SourceFile, re *regexp.Regexp, fn func(line int)) error {
	lines, err := file.Lines()
	if err != nil {
		return err
	}
	for i, text := range lines {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if re.MatchString(text) {
			fn(i + 1)
		}
	}
	return nil
}

// firstMatchLine returns the line where re first matches content, or 0
func firstMatchLine(content string, re *regexp.Regexp) int {
	loc := re.FindStringIndex(content)
	if loc == nil {
		return 0
	}
	return textio.LineAt(content, loc[0])
}

// SimpleCheck raises one issue per line matching the expression
type SimpleCheck struct {
	base
	expression *regexp.Regexp
	pattern    *antpath.Pattern
}

// Validate scans the file line by line
func (c *SimpleCheck) Validate(ctx context.Context, file *SourceFile, projectKey string) error {
	if c.expression == nil || !c.pattern.Match(file.LogicalPath) || !c.firesFor(projectKey) {
		return nil
	}
	return matchLines(ctx, file, c.expression, func(line int) {
		file.AddIssue(c.issue(file, line))
	})
}

// MultilineCheck applies a dot-matches-newline expression to the whole file
// and raises one issue at the line of the first match.
type MultilineCheck struct {
	base
	expression *regexp.Regexp
	pattern    *antpath.Pattern
}

// Validate scans the whole file
func (c *MultilineCheck) Validate(ctx context.Context, file *SourceFile, projectKey string) error {
	if c.expression == nil || !c.pattern.Match(file.LogicalPath) || !c.firesFor(projectKey) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := file.Text()
	if err != nil {
		return err
	}
	if line := firstMatchLine(content, c.expression); line > 0 {
		file.AddIssue(c.issue(file, line))
	}
	return nil
}

// RequiredStringCheck raises an issue at the trigger when the file matches
// the trigger expression but not the must-exist expression.
type RequiredStringCheck struct {
	base
	trigger   *regexp.Regexp
	mustExist *regexp.Regexp
	pattern   *antpath.Pattern
}

// Validate scans the whole file
func (c *RequiredStringCheck) Validate(ctx context.Context, file *SourceFile, projectKey string) error {
	if c.trigger == nil || c.mustExist == nil || !c.pattern.Match(file.LogicalPath) || !c.firesFor(projectKey) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := file.Text()
	if err != nil {
		return err
	}
	line := firstMatchLine(content, c.trigger)
	if line > 0 && !c.mustExist.MatchString(content) {
		file.AddIssue(c.issue(file, line))
	}
	return nil
}
