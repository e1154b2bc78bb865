package models

import "gorm.io/gorm"

type Course struct {
	gorm.Model
	Title       string
	Description string
	Level       int  `gorm:"index"`
	Available   bool `gorm:"default:true"`
	ComingSoon  bool `gorm:"default:false"`
	Sections    []Section
}

type Section struct {
	gorm.Model
	CourseID    uint `gorm:"index"`
	Title       string
	Description string
	OrderIndex  int
	Subsections []Subsection
}

// Subsection is the smallest addressable learning unit of a course.
type Subsection struct {
	gorm.Model
	SectionID       uint   `gorm:"index"`
	Title           string
	ContentType     string // reading, quiz
	VideoURL        string
	Body            string
	DurationMinutes int
	OrderIndex      int
}

const (
	ContentTypeReading = "reading"
	ContentTypeQuiz    = "quiz"
)
