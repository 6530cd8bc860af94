package textio_test

import (
	stderrors "errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/paveg/textrules/internal/errors"
	"github.com/paveg/textrules/internal/textio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	n    int
	text string
}

func collectLines(t *testing.T, r io.Reader) []line {
	t.Helper()
	var got []line
	err := textio.ScanLines(r, func(n int, text string) error {
		got = append(got, line{n, text})
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestNewReader_DropsInvalidBytes(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"valid ascii", []byte("plain text"), "plain text"},
		{"valid multibyte", []byte("£100 ✓"), "£100 ✓"},
		{"latin1 pound", []byte{'[', 0xA3, '$', ']'}, "[$]"},
		{"truncated sequence at end", []byte{'a', 0xE2, 0x82}, "a"},
		{"lone continuation bytes", []byte{0x80, 'x', 0xBF}, "x"},
		{"literal replacement rune survives", []byte("a�b"), "a�b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := io.ReadAll(textio.NewReader(strings.NewReader(string(tt.input))))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
			assert.Equal(t, tt.expected, textio.Sanitize(tt.input))
		})
	}
}

func TestNewReader_SplitRunesAcrossReads(t *testing.T) {
	input := "£1 €2 £3"
	out, err := io.ReadAll(textio.NewReader(iotest.OneByteReader(strings.NewReader(input))))
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestScanLines_Terminators(t *testing.T) {
	got := collectLines(t, strings.NewReader("one\ntwo\r\nthree\rfour\n"))
	assert.Equal(t, []line{{1, "one"}, {2, "two"}, {3, "three"}, {4, "four"}}, got)
}

func TestScanLines_EmptyLinesAndNoTrailingTerminator(t *testing.T) {
	got := collectLines(t, strings.NewReader("objectionable string\n\nsadf\n\n1objectionable string"))
	require.Len(t, got, 5)
	assert.Equal(t, line{2, ""}, got[1])
	assert.Equal(t, line{5, "1objectionable string"}, got[4])
}

func TestScanLines_CarriageReturnAtBufferBoundary(t *testing.T) {
	got := collectLines(t, iotest.OneByteReader(strings.NewReader("a\r\nb\r")))
	assert.Equal(t, []line{{1, "a"}, {2, "b"}}, got)
}

func TestScanLines_InvalidBytesIgnored(t *testing.T) {
	input := []byte("first\nif (itm.match(/^[\xa3$]/)) x\nthird")
	got := collectLines(t, strings.NewReader(string(input)))
	require.Len(t, got, 3)
	assert.Equal(t, "if (itm.match(/^[$]/)) x", got[1].text)
}

func TestScanLines_StopsOnCallbackError(t *testing.T) {
	stop := stderrors.New("stop")
	calls := 0
	err := textio.ScanLines(strings.NewReader("a\nb\nc"), func(int, string) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestScanLines_Empty(t *testing.T) {
	assert.Empty(t, collectLines(t, strings.NewReader("")))
}

func TestReadAll(t *testing.T) {
	t.Run("under limit", func(t *testing.T) {
		s, err := textio.ReadAll(strings.NewReader("££££"), 4)
		require.NoError(t, err)
		assert.Equal(t, "££££", s)
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := textio.ReadAll(strings.NewReader("abcde"), 4)
		assert.ErrorIs(t, err, errors.ErrFileTooLarge)
	})

	t.Run("far over limit stops early", func(t *testing.T) {
		_, err := textio.ReadAll(strings.NewReader(strings.Repeat("x", 10_000)), 10)
		assert.ErrorIs(t, err, errors.ErrFileTooLarge)
	})

	t.Run("unlimited", func(t *testing.T) {
		s, err := textio.ReadAll(strings.NewReader(strings.Repeat("x", 10_000)), 0)
		require.NoError(t, err)
		assert.Len(t, s, 10_000)
	})

	t.Run("invalid bytes do not count", func(t *testing.T) {
		s, err := textio.ReadAll(strings.NewReader("ab\xa3\xa3\xa3"), 2)
		require.NoError(t, err)
		assert.Equal(t, "ab", s)
	})
}

func TestLineAt(t *testing.T) {
	s := "The first line\n<target>1.8</target>\nThe third line"

	assert.Equal(t, 1, textio.LineAt(s, 0))
	assert.Equal(t, 1, textio.LineAt(s, 14))
	assert.Equal(t, 2, textio.LineAt(s, 15))
	assert.Equal(t, 3, textio.LineAt(s, strings.Index(s, "third")))
	assert.Equal(t, 3, textio.LineAt(s, len(s)+10))
	assert.Equal(t, 1, textio.LineAt("", 0))
	assert.Equal(t, 1, textio.LineAt(s, -1))
}

func TestLineAt_LineEndings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  string
		want    int
	}{
		{"crlf", "a\r\nb\r\nc", "c", 3},
		{"lone cr", "a\rb\rc", "c", 3},
		{"mixed", "a\rb\r\nc\nd", "d", 4},
		{"trailing cr before offset", "a\r", "", 2},
		{"empty lines", "\r\r\n\nx", "x", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset := len(tt.content)
			if tt.target != "" {
				offset = strings.Index(tt.content, tt.target)
			}
			assert.Equal(t, tt.want, textio.LineAt(tt.content, offset))
		})
	}

	t.Run("offset on the newline of crlf", func(t *testing.T) {
		assert.Equal(t, 1, textio.LineAt("a\r\nb", 2))
	})
}
