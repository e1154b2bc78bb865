package controllers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"certtrack/backend/config"
	"certtrack/backend/models"
	"certtrack/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AdminController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAdminController(db *gorm.DB, cfg *config.Config) *AdminController {
	return &AdminController{DB: db, Cfg: cfg}
}

type CourseRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Level       int    `json:"level" validate:"required,min=1"`
	Available   *bool  `json:"available"`
	ComingSoon  *bool  `json:"coming_soon"`
}

// CreateCourse godoc
// @Summary Create a course
// @Tags admin
// @Accept json
// @Produce json
// @Param input body CourseRequest true "Course data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses [post]
func (ad *AdminController) CreateCourse(c *fiber.Ctx) error {
	var input CourseRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	course := models.Course{
		Title:       input.Title,
		Description: input.Description,
		Level:       input.Level,
	}
	if input.Available != nil {
		course.Available = *input.Available
	} else {
		course.Available = true
	}
	if input.ComingSoon != nil {
		course.ComingSoon = *input.ComingSoon
	}

	if err := ad.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}

	return utils.Created(c, course)
}

// UpdateCourse godoc
// @Summary Update a course
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id} [put]
func (ad *AdminController) UpdateCourse(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input CourseRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var course models.Course
	if err := ad.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Title != "" {
		course.Title = input.Title
	}
	if input.Description != "" {
		course.Description = input.Description
	}
	if input.Level != 0 {
		course.Level = input.Level
	}
	if input.Available != nil {
		course.Available = *input.Available
	}
	if input.ComingSoon != nil {
		course.ComingSoon = *input.ComingSoon
	}

	if err := ad.DB.Save(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not update course")
	}

	return utils.Success(c, fiber.StatusOK, course)
}

// DeleteCourse godoc
// @Summary Delete a course
// @Tags admin
// @Param id path int true "Course ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id} [delete]
func (ad *AdminController) DeleteCourse(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := ad.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := ad.DB.Delete(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete course")
	}

	return utils.NoContent(c)
}

// AddSection godoc
// @Summary Add a section to a course
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Success 201 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id}/sections [post]
func (ad *AdminController) AddSection(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var course models.Course
	if err := ad.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var sectionCount int64
	ad.DB.Model(&models.Section{}).Where("course_id = ?", courseID).Count(&sectionCount)

	section := models.Section{
		CourseID:    uint(courseID),
		Title:       input.Title,
		Description: input.Description,
		OrderIndex:  int(sectionCount) + 1,
	}

	if err := ad.DB.Create(&section).Error; err != nil {
		return utils.InternalServerError(c, "Could not create section")
	}

	return utils.Created(c, section)
}

// UpdateSection godoc
// @Summary Update a section
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Section ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/sections/{id} [put]
func (ad *AdminController) UpdateSection(c *fiber.Ctx) error {
	sectionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid section ID")
	}

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		OrderIndex  int    `json:"order_index"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var section models.Section
	if err := ad.DB.First(&section, sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Section not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Title != "" {
		section.Title = input.Title
	}
	if input.Description != "" {
		section.Description = input.Description
	}
	if input.OrderIndex != 0 {
		section.OrderIndex = input.OrderIndex
	}

	if err := ad.DB.Save(&section).Error; err != nil {
		return utils.InternalServerError(c, "Could not update section")
	}

	return utils.Success(c, fiber.StatusOK, section)
}

// DeleteSection godoc
// @Summary Delete a section and its subsections
// @Tags admin
// @Param id path int true "Section ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/sections/{id} [delete]
func (ad *AdminController) DeleteSection(c *fiber.Ctx) error {
	sectionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid section ID")
	}

	var section models.Section
	if err := ad.DB.First(&section, sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Section not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := ad.DB.Where("section_id = ?", sectionID).Delete(&models.Subsection{}).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete subsections")
	}
	if err := ad.DB.Delete(&section).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete section")
	}

	return utils.NoContent(c)
}

type SubsectionRequest struct {
	Title           string `json:"title" validate:"required"`
	ContentType     string `json:"content_type" validate:"required,oneof=reading quiz"`
	VideoURL        string `json:"video_url"`
	Body            string `json:"body"`
	DurationMinutes int    `json:"duration_minutes"`
}

// AddSubsection godoc
// @Summary Add a subsection to a section
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Section ID"
// @Param input body SubsectionRequest true "Subsection data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/sections/{id}/subsections [post]
func (ad *AdminController) AddSubsection(c *fiber.Ctx) error {
	sectionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid section ID")
	}

	var input SubsectionRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var section models.Section
	if err := ad.DB.First(&section, sectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Section not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var subCount int64
	ad.DB.Model(&models.Subsection{}).Where("section_id = ?", sectionID).Count(&subCount)

	sub := models.Subsection{
		SectionID:       uint(sectionID),
		Title:           input.Title,
		ContentType:     input.ContentType,
		VideoURL:        input.VideoURL,
		Body:            input.Body,
		DurationMinutes: input.DurationMinutes,
		OrderIndex:      int(subCount) + 1,
	}

	if err := ad.DB.Create(&sub).Error; err != nil {
		return utils.InternalServerError(c, "Could not create subsection")
	}

	return utils.Created(c, sub)
}

// UpdateSubsection godoc
// @Summary Update a subsection
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Subsection ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/subsections/{id} [put]
func (ad *AdminController) UpdateSubsection(c *fiber.Ctx) error {
	subsectionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid subsection ID")
	}

	var input struct {
		Title           string `json:"title"`
		ContentType     string `json:"content_type"`
		VideoURL        string `json:"video_url"`
		Body            string `json:"body"`
		DurationMinutes int    `json:"duration_minutes"`
		OrderIndex      int    `json:"order_index"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var sub models.Subsection
	if err := ad.DB.First(&sub, subsectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Subsection not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Title != "" {
		sub.Title = input.Title
	}
	if input.ContentType != "" {
		if input.ContentType != models.ContentTypeReading && input.ContentType != models.ContentTypeQuiz {
			return utils.BadRequest(c, "Invalid content type")
		}
		sub.ContentType = input.ContentType
	}
	if input.VideoURL != "" {
		sub.VideoURL = input.VideoURL
	}
	if input.Body != "" {
		sub.Body = input.Body
	}
	if input.DurationMinutes != 0 {
		sub.DurationMinutes = input.DurationMinutes
	}
	if input.OrderIndex != 0 {
		sub.OrderIndex = input.OrderIndex
	}

	if err := ad.DB.Save(&sub).Error; err != nil {
		return utils.InternalServerError(c, "Could not update subsection")
	}

	return utils.Success(c, fiber.StatusOK, sub)
}

// DeleteSubsection godoc
// @Summary Delete a subsection
// @Tags admin
// @Param id path int true "Subsection ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/subsections/{id} [delete]
func (ad *AdminController) DeleteSubsection(c *fiber.Ctx) error {
	subsectionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid subsection ID")
	}

	var sub models.Subsection
	if err := ad.DB.First(&sub, subsectionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Subsection not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := ad.DB.Delete(&sub).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete subsection")
	}

	return utils.NoContent(c)
}

// GetUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Param search query string false "Search by username or email"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} utils.PaginatedResponse
// @Security ApiKeyAuth
// @Router /admin/users [get]
func (ad *AdminController) GetUsers(c *fiber.Ctx) error {
	search := c.Query("search")
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	query := ad.DB.Model(&models.User{})
	if search != "" {
		query = query.Where("username ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("id ASC").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch users")
	}

	result := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		result = append(result, fiber.Map{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"role":       user.Role,
			"level":      user.Level,
			"company":    user.Company,
			"created_at": user.CreatedAt,
		})
	}

	return utils.Paginate(c, result, total, page, pageSize)
}

// GetCertifications godoc
// @Summary List certification workflows for review
// @Tags admin
// @Produce json
// @Param status query string false "Filter by admin status (pending|approved|rejected)"
// @Param step query string false "Filter by current step"
// @Success 200 {object} utils.SuccessResponse
// @Security ApiKeyAuth
// @Router /admin/certifications [get]
func (ad *AdminController) GetCertifications(c *fiber.Ctx) error {
	query := ad.DB.Model(&models.CertificationWorkflow{}).Order("updated_at DESC")

	if status := c.Query("status"); status != "" {
		query = query.Where("admin_status = ?", status)
	}
	if step := c.Query("step"); step != "" {
		query = query.Where("current_step = ?", step)
	}

	var workflows []models.CertificationWorkflow
	if err := query.Find(&workflows).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch workflows")
	}

	result := make([]fiber.Map, 0, len(workflows))
	for _, wf := range workflows {
		var user models.User
		if err := ad.DB.First(&user, wf.UserID).Error; err != nil {
			continue
		}

		result = append(result, fiber.Map{
			"id":                  wf.ID,
			"user_id":             user.ID,
			"username":            user.Username,
			"level":               wf.Level,
			"exam_status":         wf.ExamStatus,
			"admin_status":        wf.AdminStatus,
			"contract_status":     wf.ContractStatus,
			"subscription_status": wf.SubscriptionStatus,
			"current_step":        wf.CurrentStep,
			"updated_at":          wf.UpdatedAt,
		})
	}

	return utils.Success(c, fiber.StatusOK, result)
}

type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Note     string `json:"note"`
}

// DecideCertification godoc
// @Summary Approve or reject a certification workflow
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Workflow ID"
// @Param input body DecisionRequest true "Decision"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/certifications/{id}/decision [post]
func (ad *AdminController) DecideCertification(c *fiber.Ctx) error {
	adminID, err := utils.ExtractUserIDFromToken(c, ad.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	workflowID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid workflow ID")
	}

	var input DecisionRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	var workflow models.CertificationWorkflow
	if err := ad.DB.First(&workflow, workflowID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Workflow not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	now := time.Now()
	workflow.AdminStatus = input.Decision
	workflow.ReviewNote = input.Note
	workflow.ReviewedBy = &adminID
	workflow.ReviewedAt = &now

	summary, err := levelProgress(ad.DB, workflow.UserID, workflow.Level)
	if err != nil {
		return utils.InternalServerError(c, "Failed to fetch progress")
	}
	workflow.CurrentStep = models.DeriveStep(summary.Percentage, &workflow)

	if err := ad.DB.Save(&workflow).Error; err != nil {
		return utils.InternalServerError(c, "Could not save workflow")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":           workflow.ID,
		"admin_status": workflow.AdminStatus,
		"current_step": workflow.CurrentStep,
	})
}

type ExamQuestionRequest struct {
	Level         int      `json:"level" validate:"required,min=1"`
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0"`
}

// AddExamQuestion godoc
// @Summary Add an exam question for a level
// @Tags admin
// @Accept json
// @Produce json
// @Param input body ExamQuestionRequest true "Question data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/exam-questions [post]
func (ad *AdminController) AddExamQuestion(c *fiber.Ctx) error {
	var input ExamQuestionRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	if fields := utils.ValidateStruct(input); fields != nil {
		return utils.ValidationError(c, fields)
	}

	if input.CorrectAnswer >= len(input.Options) {
		return utils.BadRequest(c, "Correct answer index out of range")
	}

	options, err := json.Marshal(input.Options)
	if err != nil {
		return utils.InternalServerError(c, "Could not encode options")
	}

	var questionCount int64
	ad.DB.Model(&models.ExamQuestion{}).Where("level = ?", input.Level).Count(&questionCount)

	question := models.ExamQuestion{
		Level:         input.Level,
		Question:      input.Question,
		Options:       string(options),
		CorrectAnswer: input.CorrectAnswer,
		OrderIndex:    int(questionCount) + 1,
	}

	if err := ad.DB.Create(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not create question")
	}

	return utils.Created(c, question)
}

// DeleteExamQuestion godoc
// @Summary Delete an exam question
// @Tags admin
// @Param id path int true "Question ID"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/exam-questions/{id} [delete]
func (ad *AdminController) DeleteExamQuestion(c *fiber.Ctx) error {
	questionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid question ID")
	}

	var question models.ExamQuestion
	if err := ad.DB.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Question not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := ad.DB.Delete(&question).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete question")
	}

	return utils.NoContent(c)
}
