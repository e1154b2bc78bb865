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

type CoursesController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCoursesController(db *gorm.DB, cfg *config.Config) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg}
}

// GetCatalog godoc
// @Summary List the course catalog
// @Description Returns available and coming-soon courses with the caller's progress
// @Tags courses
// @Produce json
// @Param level query int false "Filter by course level"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [get]
func (cc *CoursesController) GetCatalog(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	query := cc.DB.Model(&models.Course{}).
		Where("available = ? OR coming_soon = ?", true, true).
		Order("level ASC")

	if level := c.Query("level"); level != "" {
		if n, err := strconv.Atoi(level); err == nil {
			query = query.Where("level = ?", n)
		}
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch courses")
	}

	result := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		summary, err := courseProgress(cc.DB, userID, course.ID)
		if err != nil {
			return utils.InternalServerError(c, "Failed to fetch progress")
		}

		result = append(result, fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.Description,
			"level":       course.Level,
			"available":   course.Available,
			"coming_soon": course.ComingSoon,
			"progress":    summary,
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}

// GetCourseDetails godoc
// @Summary Get one course with its sections and subsections
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.order_index ASC")
		}).
		Preload("Sections.Subsections", func(db *gorm.DB) *gorm.DB {
			return db.Order("subsections.order_index ASC")
		}).
		First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	completed, err := completedSubsectionIDs(cc.DB, userID, uint(courseID))
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch progress")
	}

	sections := make([]fiber.Map, 0, len(course.Sections))
	total := 0
	for _, section := range course.Sections {
		subsections := make([]fiber.Map, 0, len(section.Subsections))
		for _, sub := range section.Subsections {
			subsections = append(subsections, fiber.Map{
				"id":               sub.ID,
				"title":            sub.Title,
				"content_type":     sub.ContentType,
				"duration_minutes": sub.DurationMinutes,
				"order":            sub.OrderIndex,
				"completed":        completed[sub.ID],
			})
		}
		total += len(section.Subsections)

		sections = append(sections, fiber.Map{
			"id":          section.ID,
			"title":       section.Title,
			"description": section.Description,
			"order":       section.OrderIndex,
			"subsections": subsections,
		})
	}

	summary := models.SummarizeProgress(len(completed), total)

	return c.JSON(fiber.Map{
		"course": fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.Description,
			"level":       course.Level,
			"available":   course.Available,
			"coming_soon": course.ComingSoon,
			"sections":    sections,
		},
		"progress": summary,
	})
}

// GetSubsection godoc
// @Summary Get subsection content for the viewer
// @Tags courses
// @Produce json
// @Param id path int true "Subsection ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /subsections/{id} [get]
func (cc *CoursesController) GetSubsection(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	subsectionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid subsection ID")
	}

	var sub models.Subsection
	if err := cc.DB.First(&sub, subsectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Subsection not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var section models.Section
	if err := cc.DB.First(&section, sub.SectionID).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var record models.ProgressRecord
	completed := false
	if err := cc.DB.Where("user_id = ? AND subsection_id = ?", userID, sub.ID).
		First(&record).Error; err == nil {
		completed = record.CompletedAt != nil
	}

	return c.JSON(fiber.Map{
		"id":               sub.ID,
		"section_id":       sub.SectionID,
		"course_id":        section.CourseID,
		"title":            sub.Title,
		"content_type":     sub.ContentType,
		"video_url":        sub.VideoURL,
		"body":             sub.Body,
		"duration_minutes": sub.DurationMinutes,
		"order":            sub.OrderIndex,
		"completed":        completed,
	})
}
