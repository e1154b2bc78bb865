package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func completedRecord(subsectionID uint) ProgressRecord {
	now := time.Now()
	id := subsectionID
	return ProgressRecord{SubsectionID: &id, CompletedAt: &now}
}

func TestSummarizeProgressEmptyCourse(t *testing.T) {
	summary := SummarizeProgress(0, 0)
	assert.Equal(t, 0, summary.Percentage)
	assert.Equal(t, 0, summary.TotalCount)

	// Even a bogus completed count must not divide by zero.
	summary = SummarizeProgress(3, 0)
	assert.Equal(t, 0, summary.Percentage)
}

func TestSummarizeProgressRounding(t *testing.T) {
	assert.Equal(t, 33, SummarizeProgress(1, 3).Percentage)
	assert.Equal(t, 67, SummarizeProgress(2, 3).Percentage)
	assert.Equal(t, 50, SummarizeProgress(1, 2).Percentage)
	assert.Equal(t, 100, SummarizeProgress(3, 3).Percentage)
}

func TestSummarizeProgressMonotonic(t *testing.T) {
	total := 7
	prev := -1
	for completed := 0; completed <= total; completed++ {
		pct := SummarizeProgress(completed, total).Percentage
		assert.GreaterOrEqual(t, pct, prev)
		prev = pct
	}
	assert.Equal(t, 100, prev)
}

func TestCountCompletedDeduplicates(t *testing.T) {
	records := []ProgressRecord{
		completedRecord(1),
		completedRecord(1),
		completedRecord(2),
	}
	assert.Equal(t, 2, CountCompleted(records))
}

func TestCountCompletedIgnoresUnfinished(t *testing.T) {
	id := uint(5)
	records := []ProgressRecord{
		{SubsectionID: &id}, // no completion timestamp
		completedRecord(6),
	}
	assert.Equal(t, 1, CountCompleted(records))
}

func TestCountCompletedLegacyLessons(t *testing.T) {
	now := time.Now()
	lesson := uint(9)
	records := []ProgressRecord{
		completedRecord(1),
		{LessonID: &lesson, CompletedAt: &now},
		{LessonID: &lesson, CompletedAt: &now},
	}
	assert.Equal(t, 2, CountCompleted(records))
}
