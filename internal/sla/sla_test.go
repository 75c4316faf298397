package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDueAt(t *testing.T) {
	created := time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		level int
		want  time.Duration
	}{
		{1, 4 * time.Hour},
		{2, 24 * time.Hour},
		{3, 72 * time.Hour},
		{0, 24 * time.Hour},
		{4, 24 * time.Hour},
		{-1, 24 * time.Hour},
	}
	for _, tt := range tests {
		got := DueAt(created, tt.level)
		assert.Equal(t, tt.want, got.Sub(created), "level %d", tt.level)
	}
}

func TestResponseHoursMatchesDueAt(t *testing.T) {
	assert.Equal(t, 4, ResponseHours(1))
	assert.Equal(t, 24, ResponseHours(2))
	assert.Equal(t, 72, ResponseHours(3))
	assert.Equal(t, 24, ResponseHours(42))

	now := time.Now()
	for level := 0; level <= 4; level++ {
		assert.Equal(t, time.Duration(ResponseHours(level))*time.Hour, DueAt(now, level).Sub(now))
	}
}
