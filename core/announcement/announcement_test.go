package announcement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMSBody(t *testing.T) {
	short := Announcement{Title: "Sports day", Content: "Friday at 9."}
	assert.Equal(t, "Sports day: Friday at 9.", SMSBody(short))

	long := Announcement{Title: "Exams", Content: strings.Repeat("é", 300)}
	body := SMSBody(long)
	assert.Len(t, []rune(body), smsMaxLen)
	assert.True(t, strings.HasSuffix(body, "..."))
	assert.True(t, strings.HasPrefix(body, "Exams: "))
}
