package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStepNoWorkflow(t *testing.T) {
	assert.Equal(t, StepNewUser, DeriveStep(0, nil))
	assert.Equal(t, StepTraining, DeriveStep(45, nil))
	assert.Equal(t, StepTraining, DeriveStep(1, nil))
	assert.Equal(t, StepExam, DeriveStep(100, nil))
}

func TestDeriveStepPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		percentage int
		workflow   CertificationWorkflow
		want       string
	}{
		{
			name:       "active subscription wins over everything",
			percentage: 100,
			workflow: CertificationWorkflow{
				ExamStatus:         ExamStatusFailed,
				AdminStatus:        AdminStatusRejected,
				ContractStatus:     ContractStatusSigned,
				SubscriptionStatus: SubscriptionActive,
			},
			want: StepCompleted,
		},
		{
			name:       "signed contract moves to subscription",
			percentage: 100,
			workflow: CertificationWorkflow{
				ExamStatus:         ExamStatusPassed,
				AdminStatus:        AdminStatusApproved,
				ContractStatus:     ContractStatusSigned,
				SubscriptionStatus: SubscriptionInactive,
			},
			want: StepSubscription,
		},
		{
			name:       "passed exam moves to contract even at 100 percent",
			percentage: 100,
			workflow: CertificationWorkflow{
				ExamStatus:         ExamStatusPassed,
				AdminStatus:        AdminStatusPending,
				ContractStatus:     ContractStatusPending,
				SubscriptionStatus: SubscriptionInactive,
			},
			want: StepContract,
		},
		{
			name:       "admin approval alone moves to contract",
			percentage: 20,
			workflow: CertificationWorkflow{
				ExamStatus:         ExamStatusNone,
				AdminStatus:        AdminStatusApproved,
				ContractStatus:     ContractStatusPending,
				SubscriptionStatus: SubscriptionInactive,
			},
			want: StepContract,
		},
		{
			name:       "full training with fresh workflow sits at exam",
			percentage: 100,
			workflow: CertificationWorkflow{
				ExamStatus:         ExamStatusNone,
				AdminStatus:        AdminStatusPending,
				ContractStatus:     ContractStatusPending,
				SubscriptionStatus: SubscriptionInactive,
			},
			want: StepExam,
		},
		{
			name:       "failed exam falls back to training progress",
			percentage: 60,
			workflow: CertificationWorkflow{
				ExamStatus:         ExamStatusFailed,
				AdminStatus:        AdminStatusPending,
				ContractStatus:     ContractStatusPending,
				SubscriptionStatus: SubscriptionInactive,
			},
			want: StepTraining,
		},
		{
			name:       "idle workflow with no progress is still a new user",
			percentage: 0,
			workflow: CertificationWorkflow{
				ExamStatus:         ExamStatusNone,
				AdminStatus:        AdminStatusPending,
				ContractStatus:     ContractStatusPending,
				SubscriptionStatus: SubscriptionInactive,
			},
			want: StepNewUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := tt.workflow
			assert.Equal(t, tt.want, DeriveStep(tt.percentage, &wf))
		})
	}
}
