// Package testutil provides common testing utilities shared by the
// textrules test suites.
//
// It consolidates the patterns the scanner, watch and CLI tests repeat:
// - Building a project tree in a temporary directory
// - Capturing log output for assertions
// - Reducing issue lists to comparable locations
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/paveg/textrules/internal/rules"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const defaultFileMode = 0o600

// TestTree is a project tree rooted in a temporary directory.
type TestTree struct {
	Root string
	tb   testing.TB
}

// NewTestTree creates a temporary directory holding files, keyed by
// slash separated relative path.
//
// Example usage:
//
//	tree := testutil.NewTestTree(t, map[string]string{
//		"conf/app.properties": "key=value\n",
//	})
//	report, err := scanner.Scan(ctx, tree.Root)
func NewTestTree(tb testing.TB, files map[string]string) *TestTree {
	tb.Helper()
	tree := &TestTree{Root: tb.TempDir(), tb: tb}

	paths := make([]string, 0, len(files))
	for rel := range files {
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	for _, rel := range paths {
		tree.Write(rel, files[rel])
	}
	return tree
}

// Path returns the absolute path of rel inside the tree.
func (tt *TestTree) Path(rel string) string {
	return filepath.Join(tt.Root, filepath.FromSlash(rel))
}

// Write creates or replaces a text file, creating parent directories.
func (tt *TestTree) Write(rel, content string) string {
	tt.tb.Helper()
	return tt.WriteBytes(rel, []byte(content))
}

// WriteBytes creates or replaces a file with raw content.
func (tt *TestTree) WriteBytes(rel string, content []byte) string {
	tt.tb.Helper()
	path := tt.Path(rel)
	require.NoError(tt.tb, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tt.tb, os.WriteFile(path, content, defaultFileMode))
	return path
}

// Mkdir creates a directory inside the tree.
func (tt *TestTree) Mkdir(rel string) string {
	tt.tb.Helper()
	path := tt.Path(rel)
	require.NoError(tt.tb, os.MkdirAll(path, 0o755))
	return path
}

// Remove deletes a file or directory from the tree.
func (tt *TestTree) Remove(rel string) {
	tt.tb.Helper()
	require.NoError(tt.tb, os.RemoveAll(tt.Path(rel)))
}

// NewObservedLogger returns a logger recording every entry at or above
// level, and the recorded entries.
func NewObservedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// IssueLocations reduces issues to "path:line" strings, in order.
func IssueLocations(issues []rules.Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Path + ":" + strconv.Itoa(issue.Line)
	}
	return out
}
