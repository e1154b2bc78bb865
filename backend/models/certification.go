package models

import (
	"time"

	"gorm.io/gorm"
)

// CertificationWorkflow tracks one user's certification pipeline for one
// course level. The four status fields move independently; CurrentStep is
// the last derived step, stored so the back-office can filter on it.
type CertificationWorkflow struct {
	gorm.Model
	UserID             uint   `gorm:"index"`
	Level              int    `gorm:"index"`
	ExamStatus         string `gorm:"default:none"`     // none, submitted, passed, failed
	AdminStatus        string `gorm:"default:pending"`  // pending, approved, rejected
	ContractStatus     string `gorm:"default:pending"`  // pending, signed
	SubscriptionStatus string `gorm:"default:inactive"` // inactive, active
	CurrentStep        string
	ReviewNote         string
	ReviewedBy         *uint
	ReviewedAt         *time.Time
}

type ExamQuestion struct {
	gorm.Model
	Level         int `gorm:"index"`
	Question      string
	Options       string // JSON array of options
	CorrectAnswer int
	OrderIndex    int
}

type ExamAttempt struct {
	gorm.Model
	UserID        uint `gorm:"index"`
	Level         int
	Score         int
	Passed        bool
	AttemptNumber int
}

type Certificate struct {
	gorm.Model
	UserID            uint `gorm:"index"`
	Level             int
	CertificateNumber string `gorm:"unique"`
	IssuedAt          time.Time
}

const (
	ExamStatusNone      = "none"
	ExamStatusSubmitted = "submitted"
	ExamStatusPassed    = "passed"
	ExamStatusFailed    = "failed"

	AdminStatusPending  = "pending"
	AdminStatusApproved = "approved"
	AdminStatusRejected = "rejected"

	ContractStatusPending = "pending"
	ContractStatusSigned  = "signed"

	SubscriptionInactive = "inactive"
	SubscriptionActive   = "active"
)

// Pipeline steps shown on the learner dashboard.
const (
	StepNewUser      = "new-user"
	StepTraining     = "training-progress"
	StepExam         = "exam"
	StepContract     = "contract"
	StepSubscription = "subscription"
	StepCompleted    = "completed"
)

// DeriveStep maps course completion and workflow statuses to the pipeline
// step presented to the learner. First match wins, and later-pipeline
// statuses are checked first so the dashboard always shows the furthest
// stage reached, not the lowest one that happens to match.
func DeriveStep(percentage int, workflow *CertificationWorkflow) string {
	if workflow == nil && percentage == 0 {
		return StepNewUser
	}
	if workflow != nil {
		if workflow.SubscriptionStatus == SubscriptionActive {
			return StepCompleted
		}
		if workflow.ContractStatus == ContractStatusSigned {
			return StepSubscription
		}
		if workflow.AdminStatus == AdminStatusApproved || workflow.ExamStatus == ExamStatusPassed {
			return StepContract
		}
	}
	if percentage >= 100 {
		return StepExam
	}
	if percentage > 0 {
		return StepTraining
	}
	return StepNewUser
}
