package rules

import (
	stderrors "errors"
	"os"
	"sync"

	"github.com/paveg/textrules/internal/config"
	"github.com/paveg/textrules/internal/errors"
	"github.com/paveg/textrules/internal/textio"
)

// SourceFile is one file under analysis. Its content is read lazily, at
// most once per mode, and shared by every check. Safe for concurrent use.
type SourceFile struct {
	Path        string // absolute path
	LogicalPath string // slash separated path relative to the scan root
	MaxChars    int    // limit for whole-file reads, 0 means the default

	linesOnce sync.Once
	lines     []string
	linesErr  error

	textOnce sync.Once
	text     string
	textErr  error

	mu     sync.Mutex
	issues []Issue
}

// NewSourceFile returns a SourceFile for path
func NewSourceFile(path, logicalPath string) *SourceFile {
	return &SourceFile{Path: path, LogicalPath: logicalPath}
}

// Lines returns the decoded lines of the file
func (f *SourceFile) Lines() ([]string, error) {
	f.linesOnce.Do(func() {
		file, err := os.Open(f.Path)
		if err != nil {
			f.linesErr = errors.NewFileReadError(f.Path, err)
			return
		}
		defer file.Close()

		err = textio.ScanLines(file, func(_ int, text string) error {
			f.lines = append(f.lines, text)
			return nil
		})
		if err != nil {
			f.lines = nil
			f.linesErr = errors.NewFileReadError(f.Path, err)
		}
	})
	return f.lines, f.linesErr
}

// Text returns the whole decoded file. Files holding more than MaxChars
// characters yield an error wrapping errors.ErrFileTooLarge.
func (f *SourceFile) Text() (string, error) {
	f.textOnce.Do(func() {
		maxChars := f.maxChars()

		file, err := os.Open(f.Path)
		if err != nil {
			f.textErr = errors.NewFileReadError(f.Path, err)
			return
		}
		defer file.Close()

		f.text, err = textio.ReadAll(file, maxChars)
		switch {
		case stderrors.Is(err, errors.ErrFileTooLarge):
			f.textErr = errors.NewFileTooLargeError(f.Path, maxChars)
		case err != nil:
			f.textErr = errors.NewFileReadError(f.Path, err)
		}
	})
	return f.text, f.textErr
}

func (f *SourceFile) maxChars() int {
	if f.MaxChars > 0 {
		return f.MaxChars
	}
	return config.DefaultMaxCharactersScanned
}

// AddIssue records a violation against the file
func (f *SourceFile) AddIssue(issue Issue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues = append(f.issues, issue)
}

// Issues returns a copy of the violations recorded so far
func (f *SourceFile) Issues() []Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Issue, len(f.issues))
	copy(out, f.issues)
	return out
}
