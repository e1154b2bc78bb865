package controllers

import (
	"errors"
	"strconv"

	"certtrack/backend/config"
	"certtrack/backend/models"
	"certtrack/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config) *AnalyticsController {
	return &AnalyticsController{DB: db, Cfg: cfg}
}

// GetCourseAnalytics godoc
// @Summary Per-user completion analytics for a course
// @Tags admin
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id}/analytics [get]
func (an *AnalyticsController) GetCourseAnalytics(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := an.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	total, err := courseTotalCount(an.DB, course.ID)
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var userIDs []uint
	if err := an.DB.Model(&models.ProgressRecord{}).
		Where("course_id = ?", course.ID).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	learners := make([]fiber.Map, 0, len(userIDs))
	for _, userID := range userIDs {
		var user models.User
		if err := an.DB.First(&user, userID).Error; err != nil {
			continue
		}

		var records []models.ProgressRecord
		if err := an.DB.Where("user_id = ? AND course_id = ?", userID, course.ID).
			Find(&records).Error; err != nil {
			continue
		}

		summary := models.SummarizeProgress(models.CountCompleted(records), total)

		learners = append(learners, fiber.Map{
			"user_id":         user.ID,
			"username":        user.Username,
			"completed_count": summary.CompletedCount,
			"total_count":     summary.TotalCount,
			"percentage":      summary.Percentage,
		})
	}

	return c.JSON(fiber.Map{
		"course_id": course.ID,
		"title":     course.Title,
		"learners":  learners,
	})
}

// GetPlatformAnalytics godoc
// @Summary Platform-wide totals
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /admin/analytics [get]
func (an *AnalyticsController) GetPlatformAnalytics(c *fiber.Ctx) error {
	var totalUsers int64
	an.DB.Model(&models.User{}).Count(&totalUsers)

	var totalCourses int64
	an.DB.Model(&models.Course{}).Count(&totalCourses)

	var completions int64
	an.DB.Model(&models.ProgressRecord{}).
		Where("completed_at IS NOT NULL").
		Count(&completions)

	var certificatesIssued int64
	an.DB.Model(&models.Certificate{}).Count(&certificatesIssued)

	var examAttempts int64
	an.DB.Model(&models.ExamAttempt{}).Count(&examAttempts)

	var avgExamScore float64
	an.DB.Model(&models.ExamAttempt{}).
		Select("COALESCE(AVG(score), 0)").
		Scan(&avgExamScore)

	// Workflow counts per pipeline step.
	type stepCount struct {
		CurrentStep string
		Count       int64
	}
	var stepCounts []stepCount
	an.DB.Model(&models.CertificationWorkflow{}).
		Select("current_step, COUNT(*) as count").
		Group("current_step").
		Scan(&stepCounts)

	steps := make(map[string]int64, len(stepCounts))
	for _, sc := range stepCounts {
		steps[sc.CurrentStep] = sc.Count
	}

	return c.JSON(fiber.Map{
		"total_users":         totalUsers,
		"total_courses":       totalCourses,
		"completions":         completions,
		"exam_attempts":       examAttempts,
		"avg_exam_score":      avgExamScore,
		"certificates_issued": certificatesIssued,
		"workflows_by_step":   steps,
	})
}
