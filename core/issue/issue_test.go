package issue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	tp, ts, tt := Categories[0].Name, Categories[1].Name, Categories[2].Name

	tests := []struct {
		name   string
		issues []Issue
		want   Stats
	}{
		{
			name: "empty",
			want: Stats{TopCategory: NoCategory},
		},
		{
			name: "mixed",
			issues: []Issue{
				{Category: ts, Status: StatusResolved},
				{Category: ts, Status: StatusPending},
				{Category: tp, Status: StatusInProgress},
			},
			want: Stats{Total: 3, Pending: 1, Resolved: 1, ResolutionRate: 33, TopCategory: ts},
		},
		{
			name: "rounding up",
			issues: []Issue{
				{Category: tt, Status: StatusResolved},
				{Category: tt, Status: StatusResolved},
				{Category: tt, Status: StatusClosed},
			},
			want: Stats{Total: 3, Resolved: 2, ResolutionRate: 67, TopCategory: tt},
		},
		{
			name: "tie goes to first category",
			issues: []Issue{
				{Category: tt, Status: StatusPending},
				{Category: tp, Status: StatusPending},
			},
			want: Stats{Total: 2, Pending: 2, TopCategory: tp},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeStats(tc.issues))
		})
	}
}

func TestValidType(t *testing.T) {
	assert.True(t, ValidType("Teacher-Parent", "Homework load"))
	assert.False(t, ValidType("Teacher-Parent", "Professional jealousy"))
	assert.False(t, ValidType("Parent-Parent", "Homework load"))
	for _, c := range Categories {
		assert.Len(t, c.Issues, 6, c.Name)
	}
}
