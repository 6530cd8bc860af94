// Package sortkind picks a sort function for a table cell from the shape
// of its text.
//
// Three independent checks run in a fixed order: date-time, currency and
// numeric. Each one that matches overwrites the previous choice, so the
// last matching check decides the result.
package sortkind

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/paveg/textrules/internal/textio"
)

// Kind names the sort function chosen for a value.
type Kind int

const (
	// KindNone means no check matched.
	KindNone Kind = iota
	// KindDateTime selects ts_sort_datetime.
	KindDateTime
	// KindCurrency selects ts_sort_currency.
	KindCurrency
	// KindNumeric selects ts_sort_numeric.
	KindNumeric
)

var kindNames = map[Kind]string{
	KindNone:     "none",
	KindDateTime: "datetime",
	KindCurrency: "currency",
	KindNumeric:  "numeric",
}

var sortFuncs = map[Kind]string{
	KindDateTime: "ts_sort_datetime",
	KindCurrency: "ts_sort_currency",
	KindNumeric:  "ts_sort_numeric",
}

// String returns the short kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown_kind(%d)", int(k))
}

// SortFunc returns the name of the sort function reference for k, or ""
// for KindNone.
func (k Kind) SortFunc() string {
	return sortFuncs[k]
}

// ParseKind accepts a kind name ("numeric") or a sort function name
// ("ts_sort_numeric").
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if s == name || (sortFuncs[k] != "" && s == sortFuncs[k]) {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("unknown sort kind %q", s)
}

// check is one classification rule.
type check struct {
	kind Kind
	re   *regexp.Regexp
}

// checks run in this order; later matches overwrite earlier ones.
var checks = []check{
	{KindDateTime, regexp.MustCompile(`^\d\d[/-]\d\d[/-]\d\d\s\d\d:\d\d$`)},
	{KindCurrency, regexp.MustCompile(`^[£$]`)},
	{KindNumeric, regexp.MustCompile(`^[\d.]+$`)},
}

// Classify returns the kind of the last check that matches itm.
func Classify(itm string) Kind {
	return ClassifyFrom(itm, KindNone)
}

// ClassifyFrom is Classify with an existing choice: when nothing matches,
// current is returned unchanged.
func ClassifyFrom(itm string, current Kind) Kind {
	for _, c := range checks {
		if c.re.MatchString(itm) {
			current = c.kind
		}
	}
	return current
}

// Matches returns every kind whose check matches itm, in evaluation order.
func Matches(itm string) []Kind {
	var kinds []Kind
	for _, c := range checks {
		if c.re.MatchString(itm) {
			kinds = append(kinds, c.kind)
		}
	}
	return kinds
}

// ClassifyBytes classifies raw bytes. Bytes that are not valid UTF-8 are
// ignored.
func ClassifyBytes(b []byte) Kind {
	return Classify(textio.Sanitize(b))
}
