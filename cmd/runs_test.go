package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/poubelles-propres/zones-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Status:    model.RunStatusComplete,
			Params:    model.RunParams{MaxRadiusKm: 15},
			ZoneCount: 87,
			CreatedAt: now,
			UpdatedAt: now.Add(95 * time.Second),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Status:    model.RunStatusRunning,
			Params:    model.RunParams{MaxRadiusKm: 25},
			CreatedAt: now.Add(time.Hour),
			UpdatedAt: now.Add(time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "ZONES")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "87")
	assert.Contains(t, output, "2026-03-10 09:30")
	assert.Contains(t, output, "1m35s")
	// Running runs have no duration yet.
	assert.Contains(t, output, "running")
	assert.Contains(t, output, "-")
}

func TestFormatRunsList_FailedRun(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "bad12345-6789-0000-0000-000000000000",
			Status:    model.RunStatusFailed,
			Error:     "assign communes: context canceled",
			CreatedAt: now,
			UpdatedAt: now.Add(4 * time.Second),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "context canceled")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 40))
	long := "this error message is much longer than the display column allows"
	got := truncate(long, 40)
	assert.Len(t, got, 40)
	assert.Contains(t, got, "...")
}
