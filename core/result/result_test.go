package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExamResult_Percentage(t *testing.T) {
	tests := []struct {
		obtained, max, want float64
	}{
		{obtained: 45, max: 50, want: 90},
		{obtained: 1, max: 3, want: 33.33},
		{obtained: 0, max: 100, want: 0},
		{obtained: 10, max: 0, want: 0},
	}
	for _, tt := range tests {
		r := ExamResult{MarksObtained: tt.obtained, MaxMarks: tt.max}
		assert.Equal(t, tt.want, r.Percentage())
	}
}
