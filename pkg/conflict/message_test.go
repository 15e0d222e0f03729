package conflict

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatParseRoundTrip(t *testing.T) {
	r := &Report{Summary: "Package conflicts detected", Details: "foo conflicts with bar\nsecond line"}

	reason, details := ParseMessage(r.Format())
	assert.Equal(t, r.Summary, reason)
	assert.Equal(t, r.Details, details)
}

func TestFormatWithoutDetails(t *testing.T) {
	r := &Report{Summary: "Some packages could not be removed"}
	assert.Equal(t, "Some packages could not be removed", r.Format())
}

func TestParseMessageTruncatesLongReason(t *testing.T) {
	long := strings.Repeat("x", 250)

	reason, details := ParseMessage(long + "\n\nDetails:\nline")
	assert.Equal(t, strings.Repeat("x", 200)+"...", reason)
	assert.Equal(t, strings.Repeat("x", 50)+"\nline", details)
}

func TestParseMessageEmpty(t *testing.T) {
	reason, details := ParseMessage("")
	assert.Equal(t, "Unknown conflict", reason)
	assert.Empty(t, details)
}

func TestParseMessageNoMarker(t *testing.T) {
	reason, details := ParseMessage("  first\n\n  second  ")
	assert.Equal(t, "first\nsecond", reason)
	assert.Empty(t, details)
}
