package controllers

import (
	"errors"
	"strconv"
	"time"

	"certtrack/backend/config"
	"certtrack/backend/models"
	"certtrack/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg}
}

// courseTotalCount counts subsections across all sections of a course.
func courseTotalCount(db *gorm.DB, courseID uint) (int, error) {
	var total int64
	err := db.Model(&models.Subsection{}).
		Joins("JOIN sections ON sections.id = subsections.section_id").
		Where("sections.course_id = ?", courseID).
		Count(&total).Error
	return int(total), err
}

func completedSubsectionIDs(db *gorm.DB, userID, courseID uint) (map[uint]bool, error) {
	var records []models.ProgressRecord
	if err := db.Where("user_id = ? AND course_id = ? AND completed_at IS NOT NULL", userID, courseID).
		Find(&records).Error; err != nil {
		return nil, err
	}

	completed := make(map[uint]bool)
	for _, r := range records {
		if r.SubsectionID != nil {
			completed[*r.SubsectionID] = true
		}
	}
	return completed, nil
}

func courseProgress(db *gorm.DB, userID, courseID uint) (models.ProgressSummary, error) {
	total, err := courseTotalCount(db, courseID)
	if err != nil {
		return models.ProgressSummary{}, err
	}

	var records []models.ProgressRecord
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Find(&records).Error; err != nil {
		return models.ProgressSummary{}, err
	}

	return models.SummarizeProgress(models.CountCompleted(records), total), nil
}

// CompleteSubsection godoc
// @Summary Mark a subsection as completed
// @Description Idempotent; repeated calls do not double-count
// @Tags progress
// @Produce json
// @Param id path int true "Subsection ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /subsections/{id}/complete [post]
func (pc *ProgressController) CompleteSubsection(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	subsectionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid subsection ID")
	}

	var sub models.Subsection
	if err := pc.DB.First(&sub, subsectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Subsection not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var section models.Section
	if err := pc.DB.First(&section, sub.SectionID).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}
	courseID := section.CourseID

	subID := sub.ID
	now := time.Now()

	var record models.ProgressRecord
	err = pc.DB.Where("user_id = ? AND subsection_id = ?", userID, subID).First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = models.ProgressRecord{
			UserID:       userID,
			CourseID:     courseID,
			SubsectionID: &subID,
			CompletedAt:  &now,
		}
	case err != nil:
		return utils.InternalServerError(c, "Could not query database")
	default:
		if record.CompletedAt == nil {
			record.CompletedAt = &now
		}
	}

	summary, err := courseProgressAfter(pc.DB, userID, courseID, subID)
	if err != nil {
		return utils.InternalServerError(c, "Failed to compute progress")
	}
	record.Percentage = summary.Percentage

	if err := pc.DB.Save(&record).Error; err != nil {
		return utils.InternalServerError(c, "Could not save progress")
	}

	return c.JSON(fiber.Map{
		"message":  "Progress updated",
		"progress": summary,
	})
}

// courseProgressAfter computes the summary as it will stand once the given
// subsection counts as completed, without requiring the record to be saved
// first.
func courseProgressAfter(db *gorm.DB, userID, courseID, subsectionID uint) (models.ProgressSummary, error) {
	total, err := courseTotalCount(db, courseID)
	if err != nil {
		return models.ProgressSummary{}, err
	}

	var records []models.ProgressRecord
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Find(&records).Error; err != nil {
		return models.ProgressSummary{}, err
	}

	now := time.Now()
	records = append(records, models.ProgressRecord{
		UserID:       userID,
		CourseID:     courseID,
		SubsectionID: &subsectionID,
		CompletedAt:  &now,
	})

	return models.SummarizeProgress(models.CountCompleted(records), total), nil
}

// GetCourseProgress godoc
// @Summary Get the caller's progress summary for a course
// @Tags progress
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.ProgressSummary
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/progress [get]
func (pc *ProgressController) GetCourseProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := pc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	summary, err := courseProgress(pc.DB, userID, course.ID)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch progress")
	}

	return c.JSON(summary)
}
