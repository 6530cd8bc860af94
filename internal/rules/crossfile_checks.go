package rules

import (
	"context"
	"regexp"

	"github.com/paveg/textrules/internal/antpath"
)

// crossFilePart is one expression of a cross-file rule with the files it applies to
type crossFilePart struct {
	part       Part
	expression *regexp.Regexp
	pattern    *antpath.Pattern
}

// crossFileBase records the matches of each part
type crossFileBase struct {
	base
	lineMode bool
	parts    []crossFilePart
}

// Collect records the matches of every part whose file pattern includes file
func (c *crossFileBase) Collect(ctx context.Context, file *SourceFile, projectKey string, results *CrossFileResults) error {
	if !c.firesFor(projectKey) {
		return nil
	}
	for _, p := range c.parts {
		if p.expression == nil || !p.pattern.Match(file.LogicalPath) {
			continue
		}
		if err := c.collectPart(ctx, file, p, results); err != nil {
			return err
		}
	}
	return nil
}

func (c *crossFileBase) collectPart(ctx context.Context, file *SourceFile, p crossFilePart, results *CrossFileResults) error {
	record := func(line int) {
		results.Record(file, PrelimIssue{Part: p.part, Issue: c.issue(file, line)})
	}

	if c.lineMode {
		return matchLines(ctx, file, p.expression, record)
	}

	// Whole file mode records the first match only
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := file.Text()
	if err != nil {
		return err
	}
	if line := firstMatchLine(content, p.expression); line > 0 {
		record(line)
	}
	return nil
}

// DisallowedCheck raises an issue on every disallow match in the project
// as soon as one trigger match exists anywhere in it.
type DisallowedCheck struct {
	crossFileBase
}

// RaiseIssues promotes the disallow matches when the rule was triggered
func (c *DisallowedCheck) RaiseIssues(results *CrossFileResults) []*SourceFile {
	if !results.has(c.key, TriggerPattern) {
		return nil
	}
	return results.promote(c.key, DisallowPattern)
}

// BothMustExistCheck raises an issue on every trigger match when the
// must-also-exist expression matched nowhere in the project.
type BothMustExistCheck struct {
	crossFileBase
}

// RaiseIssues promotes the trigger matches when no must-also-exist match was recorded
func (c *BothMustExistCheck) RaiseIssues(results *CrossFileResults) []*SourceFile {
	if !results.has(c.key, TriggerPattern) || results.has(c.key, MustAlsoExistPattern) {
		return nil
	}
	return results.promote(c.key, TriggerPattern)
}
