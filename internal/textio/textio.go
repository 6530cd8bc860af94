// Package textio reads project files as UTF-8 text while ignoring bytes
// that are not valid UTF-8.
//
// Scanned files come from arbitrary projects and are frequently written in a
// legacy single-byte encoding (a Latin-1 pound sign is the classic case).
// Instead of failing, the decoder drops every ill-formed byte and keeps
// going, so rules still see the rest of the line.
package textio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/paveg/textrules/internal/errors"
	"golang.org/x/text/transform"
)

// MaxLineBytes is the longest line ScanLines accepts.
const MaxLineBytes = 16 * 1024 * 1024

const initialLineBuffer = 64 * 1024

// dropInvalid is a transform.Transformer that removes ill-formed UTF-8.
type dropInvalid struct{ transform.NopResetter }

// Transform implements transform.Transformer.
func (dropInvalid) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]
		if c < utf8.RuneSelf {
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}

		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}

		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			nSrc++
			continue
		}

		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}
	return nDst, nSrc, nil
}

// Transformer returns a transformer that drops bytes which are not valid UTF-8.
func Transformer() transform.Transformer {
	return dropInvalid{}
}

// NewReader wraps r so that everything read from it is valid UTF-8.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, dropInvalid{})
}

// Sanitize returns b as a string with ill-formed UTF-8 removed.
func Sanitize(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return string(bytes.ToValidUTF8(b, nil))
}

// ScanLines calls fn for every line of r with its 1-based line number.
// "\n", "\r\n" and a lone "\r" all terminate a line. A trailing terminator
// does not produce an extra empty line. Iteration stops at the first error
// returned by fn.
func ScanLines(r io.Reader, fn func(line int, text string) error) error {
	scanner := bufio.NewScanner(NewReader(r))
	scanner.Buffer(make([]byte, 0, initialLineBuffer), MaxLineBytes)
	scanner.Split(splitLines)

	line := 0
	for scanner.Scan() {
		line++
		if err := fn(line, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading line %d: %w", line+1, err)
	}
	return nil
}

// splitLines is bufio.ScanLines extended with lone carriage returns.
func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// need one more byte to tell "\r" from "\r\n"
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// ReadAll returns the decoded content of r. When maxChars is positive and
// the content holds more than maxChars characters, ReadAll stops reading and
// returns errors.ErrFileTooLarge.
func ReadAll(r io.Reader, maxChars int) (string, error) {
	src := NewReader(r)
	if maxChars > 0 {
		// maxChars runes never need more than UTFMax bytes each
		src = io.LimitReader(src, int64(maxChars)*utf8.UTFMax+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	if maxChars > 0 && utf8.RuneCount(data) > maxChars {
		return "", errors.ErrFileTooLarge
	}
	return string(data), nil
}

// LineAt returns the 1-based line number holding byte offset in s. Lines
// end the way ScanLines splits them: "\n", "\r\n" or a lone "\r".
func LineAt(s string, offset int) int {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s) {
		offset = len(s)
	}

	line := 1 + strings.Count(s[:offset], "\n")
	for i := strings.IndexByte(s[:offset], '\r'); i >= 0; {
		if i+1 >= len(s) || s[i+1] != '\n' {
			line++
		}
		next := strings.IndexByte(s[i+1:offset], '\r')
		if next < 0 {
			break
		}
		i += 1 + next
	}
	return line
}
