package sortkind

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The production patterns never overlap, so overlapping ones are swapped
// in to pin down evaluation order.
func TestClassify_LastMatchWins(t *testing.T) {
	saved := checks
	t.Cleanup(func() { checks = saved })

	checks = []check{
		{KindDateTime, regexp.MustCompile(`^\d`)},
		{KindCurrency, regexp.MustCompile(`^\d\d`)},
		{KindNumeric, regexp.MustCompile(`^\d\d\d`)},
	}

	assert.Equal(t, KindDateTime, Classify("1"))
	assert.Equal(t, KindCurrency, Classify("12"))
	assert.Equal(t, KindNumeric, Classify("123"))
	assert.Equal(t, []Kind{KindDateTime, KindCurrency, KindNumeric}, Matches("123"))
}
