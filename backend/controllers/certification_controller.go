package controllers

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"certtrack/backend/config"
	"certtrack/backend/models"
	"certtrack/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CertificationController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCertificationController(db *gorm.DB, cfg *config.Config) *CertificationController {
	return &CertificationController{DB: db, Cfg: cfg}
}

// levelWorkflow loads the caller's workflow for a level, returning nil when
// none exists yet. A missing workflow is a valid pipeline state, not an error.
func levelWorkflow(db *gorm.DB, userID uint, level int) (*models.CertificationWorkflow, error) {
	var workflow models.CertificationWorkflow
	err := db.Where("user_id = ? AND level = ?", userID, level).First(&workflow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

func levelProgress(db *gorm.DB, userID uint, level int) (models.ProgressSummary, error) {
	var course models.Course
	err := db.Where("level = ? AND available = ?", level, true).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ProgressSummary{}, nil
	}
	if err != nil {
		return models.ProgressSummary{}, err
	}
	return courseProgress(db, userID, course.ID)
}

// GetDashboard godoc
// @Summary Get the certification dashboard state
// @Description Derives which pipeline step the caller is in for their level
// @Tags certification
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certification [get]
func (ctc *CertificationController) GetDashboard(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ctc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := ctc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	summary, err := levelProgress(ctc.DB, userID, user.Level)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch progress")
	}

	workflow, err := levelWorkflow(ctc.DB, userID, user.Level)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	step := models.DeriveStep(summary.Percentage, workflow)

	var certificate *models.Certificate
	if step == models.StepCompleted {
		var found models.Certificate
		if err := ctc.DB.Where("user_id = ? AND level = ?", userID, user.Level).
			First(&found).Error; err == nil {
			certificate = &found
		}
	}

	return c.JSON(fiber.Map{
		"step":        step,
		"level":       user.Level,
		"progress":    summary,
		"workflow":    workflow,
		"certificate": certificate,
	})
}

// GetExam godoc
// @Summary Get exam questions for the caller's level
// @Description Correct answers are withheld from the payload
// @Tags certification
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certification/exam [get]
func (ctc *CertificationController) GetExam(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ctc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := ctc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	var examQuestions []models.ExamQuestion
	if err := ctc.DB.Where("level = ?", user.Level).
		Order("order_index ASC").
		Find(&examQuestions).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	if len(examQuestions) == 0 {
		return utils.NotFound(c, "No exam available for this level")
	}

	questions := make([]fiber.Map, 0, len(examQuestions))
	for _, q := range examQuestions {
		var options []string
		json.Unmarshal([]byte(q.Options), &options)

		questions = append(questions, fiber.Map{
			"id":       q.ID,
			"question": q.Question,
			"options":  options,
			"order":    q.OrderIndex,
		})
	}

	return c.JSON(fiber.Map{
		"level":      user.Level,
		"questions":  questions,
		"pass_score": ctc.Cfg.ExamPassScore,
	})
}

// SubmitExam godoc
// @Summary Submit exam answers and record the graded attempt
// @Tags certification
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certification/exam [post]
func (ctc *CertificationController) SubmitExam(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ctc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := ctc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	type AnswerInput struct {
		QuestionID uint `json:"question_id"`
		Answer     int  `json:"answer"`
	}

	var input struct {
		Answers []AnswerInput `json:"answers"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var examQuestions []models.ExamQuestion
	if err := ctc.DB.Where("level = ?", user.Level).Find(&examQuestions).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if len(examQuestions) == 0 {
		return utils.NotFound(c, "No exam available for this level")
	}

	answers := make(map[uint]int, len(input.Answers))
	for _, a := range input.Answers {
		answers[a.QuestionID] = a.Answer
	}

	correct := 0
	for _, q := range examQuestions {
		if answer, ok := answers[q.ID]; ok && answer == q.CorrectAnswer {
			correct++
		}
	}

	score := int(math.Round(100 * float64(correct) / float64(len(examQuestions))))
	passed := score >= ctc.Cfg.ExamPassScore

	var attemptCount int64
	ctc.DB.Model(&models.ExamAttempt{}).
		Where("user_id = ? AND level = ?", userID, user.Level).
		Count(&attemptCount)

	attempt := models.ExamAttempt{
		UserID:        userID,
		Level:         user.Level,
		Score:         score,
		Passed:        passed,
		AttemptNumber: int(attemptCount) + 1,
	}
	if err := ctc.DB.Create(&attempt).Error; err != nil {
		return utils.InternalServerError(c, "Could not save exam attempt")
	}

	workflow, err := levelWorkflow(ctc.DB, userID, user.Level)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if workflow == nil {
		workflow = &models.CertificationWorkflow{
			UserID:             userID,
			Level:              user.Level,
			ExamStatus:         models.ExamStatusNone,
			AdminStatus:        models.AdminStatusPending,
			ContractStatus:     models.ContractStatusPending,
			SubscriptionStatus: models.SubscriptionInactive,
		}
	}

	if passed {
		workflow.ExamStatus = models.ExamStatusPassed
	} else {
		workflow.ExamStatus = models.ExamStatusFailed
	}

	summary, err := levelProgress(ctc.DB, userID, user.Level)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch progress")
	}
	workflow.CurrentStep = models.DeriveStep(summary.Percentage, workflow)

	if err := ctc.DB.Save(workflow).Error; err != nil {
		return utils.InternalServerError(c, "Could not save workflow")
	}

	return c.JSON(fiber.Map{
		"score":   score,
		"passed":  passed,
		"attempt": attempt.AttemptNumber,
		"step":    workflow.CurrentStep,
	})
}

// SignContract godoc
// @Summary Mark the certification contract as signed
// @Tags certification
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certification/contract [post]
func (ctc *CertificationController) SignContract(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ctc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := ctc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	workflow, err := levelWorkflow(ctc.DB, userID, user.Level)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if workflow == nil {
		return utils.Error(c, fiber.StatusConflict,
			fiber.NewError(fiber.StatusConflict, "No certification workflow in progress"))
	}

	if workflow.ExamStatus != models.ExamStatusPassed && workflow.AdminStatus != models.AdminStatusApproved {
		return utils.Error(c, fiber.StatusConflict,
			fiber.NewError(fiber.StatusConflict, "Exam must be passed or approval granted before signing"))
	}

	workflow.ContractStatus = models.ContractStatusSigned
	workflow.CurrentStep = models.StepSubscription

	if err := ctc.DB.Save(workflow).Error; err != nil {
		return utils.InternalServerError(c, "Could not save workflow")
	}

	return c.JSON(fiber.Map{
		"message": "Contract signed",
		"step":    workflow.CurrentStep,
	})
}

// ActivateSubscription godoc
// @Summary Activate the subscription, completing the pipeline
// @Description Issues the level certificate on first activation
// @Tags certification
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certification/subscription [post]
func (ctc *CertificationController) ActivateSubscription(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ctc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := ctc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	workflow, err := levelWorkflow(ctc.DB, userID, user.Level)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	if workflow == nil || workflow.ContractStatus != models.ContractStatusSigned {
		return utils.Error(c, fiber.StatusConflict,
			fiber.NewError(fiber.StatusConflict, "Contract must be signed before activating subscription"))
	}

	workflow.SubscriptionStatus = models.SubscriptionActive
	workflow.CurrentStep = models.StepCompleted

	if err := ctc.DB.Save(workflow).Error; err != nil {
		return utils.InternalServerError(c, "Could not save workflow")
	}

	var certificate models.Certificate
	err = ctc.DB.Where("user_id = ? AND level = ?", userID, user.Level).First(&certificate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		certificate = models.Certificate{
			UserID:            userID,
			Level:             user.Level,
			CertificateNumber: uuid.NewString(),
			IssuedAt:          time.Now(),
		}
		if err := ctc.DB.Create(&certificate).Error; err != nil {
			return utils.InternalServerError(c, "Could not issue certificate")
		}
	} else if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(fiber.Map{
		"message":     "Subscription active",
		"step":        workflow.CurrentStep,
		"certificate": certificate,
	})
}

// GetCertificate godoc
// @Summary Get the caller's issued certificate for their level
// @Tags certification
// @Produce json
// @Success 200 {object} models.Certificate
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /certification/certificate [get]
func (ctc *CertificationController) GetCertificate(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ctc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var user models.User
	if err := ctc.DB.First(&user, userID).Error; err != nil {
		return utils.NotFound(c, "User not found")
	}

	var certificate models.Certificate
	if err := ctc.DB.Where("user_id = ? AND level = ?", userID, user.Level).
		First(&certificate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "No certificate issued")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return c.JSON(certificate)
}
