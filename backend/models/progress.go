package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// ProgressRecord marks a learning unit as visited or completed by a user.
// SubsectionID is set for current content; LessonID carries over records
// written before courses were split into sections.
type ProgressRecord struct {
	gorm.Model
	UserID       uint `gorm:"index"`
	CourseID     uint `gorm:"index"`
	SubsectionID *uint
	LessonID     *uint
	CompletedAt  *time.Time
	Percentage   int // course percentage snapshot at write time
}

type ProgressSummary struct {
	CompletedCount int `json:"completed_count"`
	TotalCount     int `json:"total_count"`
	Percentage     int `json:"percentage"`
}

// CountCompleted returns the number of distinct completed units among the
// given records. Records without a completion timestamp do not count, and
// repeated records for the same subsection (or legacy lesson) count once.
func CountCompleted(records []ProgressRecord) int {
	subsections := make(map[uint]bool)
	lessons := make(map[uint]bool)
	for _, r := range records {
		if r.CompletedAt == nil {
			continue
		}
		switch {
		case r.SubsectionID != nil:
			subsections[*r.SubsectionID] = true
		case r.LessonID != nil:
			lessons[*r.LessonID] = true
		}
	}
	return len(subsections) + len(lessons)
}

// SummarizeProgress computes the completion percentage for a course.
// An empty course reports 0, never a division by zero.
func SummarizeProgress(completedCount, totalCount int) ProgressSummary {
	summary := ProgressSummary{
		CompletedCount: completedCount,
		TotalCount:     totalCount,
	}
	if totalCount > 0 {
		summary.Percentage = int(math.Round(100 * float64(completedCount) / float64(totalCount)))
	}
	return summary
}
