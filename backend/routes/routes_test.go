package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"

	"certtrack/backend/config"
	"certtrack/backend/models"
	"certtrack/backend/routes"
	"certtrack/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	app        *fiber.App
	db         *gorm.DB
	cfg        *config.Config
	userToken  string
	adminToken string
	userID     uint
)

func TestMain(m *testing.M) {
	cfg = &config.Config{
		DBHost:        getenv("TEST_DB_HOST", "localhost"),
		DBPort:        getenv("TEST_DB_PORT", "5432"),
		DBUser:        getenv("TEST_DB_USER", "postgres"),
		DBPassword:    getenv("TEST_DB_PASSWORD", "postgres"),
		DBName:        getenv("TEST_DB_NAME", "certtrack_test"),
		JWTSecret:     "testsecret",
		ServerPort:    "8080",
		ExamPassScore: 80,
	}

	var err error
	db, err = utils.InitDB(cfg)
	if err != nil {
		fmt.Println("skipping route tests: test database unavailable:", err)
		os.Exit(0)
	}

	app = fiber.New()
	routes.SetupRoutes(app, db, cfg)

	code := m.Run()

	db.Migrator().DropTable(
		&models.User{},
		&models.LoginHistory{},
		&models.Course{},
		&models.Section{},
		&models.Subsection{},
		&models.ProgressRecord{},
		&models.CertificationWorkflow{},
		&models.ExamQuestion{},
		&models.ExamAttempt{},
		&models.Certificate{},
	)

	os.Exit(code)
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func doRequest(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func TestPlatform(t *testing.T) {
	t.Run("RegisterAndLogin", testRegisterAndLogin)
	t.Run("AdminContentSetup", testAdminContentSetup)
	t.Run("CatalogAndProgress", testCatalogAndProgress)
	t.Run("CertificationPipeline", testCertificationPipeline)
	t.Run("AdminReview", testAdminReview)
}

func testRegisterAndLogin(t *testing.T) {
	status, result := doRequest(t, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": "learner",
		"email":    "learner@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, result["token"])
	userID = uint(result["user"].(map[string]interface{})["id"].(float64))

	// Short passwords are rejected by validation.
	status, _ = doRequest(t, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": "short",
		"email":    "short@example.com",
		"password": "abc",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, result = doRequest(t, "POST", "/api/auth/login", "", map[string]interface{}{
		"username": "learner",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	userToken = result["token"].(string)

	// Admin account, promoted directly in the database.
	status, _ = doRequest(t, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": "backoffice",
		"email":    "backoffice@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, db.Model(&models.User{}).
		Where("username = ?", "backoffice").
		Update("role", "admin").Error)

	status, result = doRequest(t, "POST", "/api/auth/login", "", map[string]interface{}{
		"username": "backoffice",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	adminToken = result["token"].(string)
}

func testAdminContentSetup(t *testing.T) {
	// Learners cannot reach the back-office.
	status, _ := doRequest(t, "POST", "/api/admin/courses", userToken, map[string]interface{}{
		"title": "Nope",
		"level": 1,
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, result := doRequest(t, "POST", "/api/admin/courses", adminToken, map[string]interface{}{
		"title":       "Level 1 Training",
		"description": "Foundation course",
		"level":       1,
	})
	require.Equal(t, fiber.StatusCreated, status)
	courseID := result["data"].(map[string]interface{})["ID"].(float64)

	status, result = doRequest(t, "POST",
		fmt.Sprintf("/api/admin/courses/%d/sections", int(courseID)), adminToken,
		map[string]interface{}{
			"title":       "Getting Started",
			"description": "Basics",
		})
	require.Equal(t, fiber.StatusCreated, status)
	sectionID := result["data"].(map[string]interface{})["ID"].(float64)

	for _, title := range []string{"Welcome", "First Steps"} {
		status, _ = doRequest(t, "POST",
			fmt.Sprintf("/api/admin/sections/%d/subsections", int(sectionID)), adminToken,
			map[string]interface{}{
				"title":        title,
				"content_type": "reading",
				"body":         "Some reading material",
			})
		require.Equal(t, fiber.StatusCreated, status)
	}

	// Unknown content types are rejected.
	status, _ = doRequest(t, "POST",
		fmt.Sprintf("/api/admin/sections/%d/subsections", int(sectionID)), adminToken,
		map[string]interface{}{
			"title":        "Broken",
			"content_type": "podcast",
		})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = doRequest(t, "POST", "/api/admin/exam-questions", adminToken, map[string]interface{}{
		"level":          1,
		"question":       "What does the platform track?",
		"options":        []string{"Progress", "Weather"},
		"correct_answer": 0,
	})
	require.Equal(t, fiber.StatusCreated, status)
}

func testCatalogAndProgress(t *testing.T) {
	status, result := doRequest(t, "GET", "/api/courses/", userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	catalog := result["data"].([]interface{})
	require.Len(t, catalog, 1)

	course := catalog[0].(map[string]interface{})
	courseID := int(course["id"].(float64))
	progress := course["progress"].(map[string]interface{})
	assert.Equal(t, float64(0), progress["percentage"])
	assert.Equal(t, float64(2), progress["total_count"])

	status, result = doRequest(t, "GET", fmt.Sprintf("/api/courses/%d", courseID), userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	sections := result["course"].(map[string]interface{})["sections"].([]interface{})
	require.Len(t, sections, 1)
	subsections := sections[0].(map[string]interface{})["subsections"].([]interface{})
	require.Len(t, subsections, 2)
	firstSub := int(subsections[0].(map[string]interface{})["id"].(float64))
	secondSub := int(subsections[1].(map[string]interface{})["id"].(float64))

	// Dashboard before any progress: brand new user.
	status, result = doRequest(t, "GET", "/api/certification/", userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.StepNewUser, result["step"])

	status, result = doRequest(t, "POST", fmt.Sprintf("/api/subsections/%d/complete", firstSub), userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(50), result["progress"].(map[string]interface{})["percentage"])

	// Completing the same subsection again must not double-count.
	status, result = doRequest(t, "POST", fmt.Sprintf("/api/subsections/%d/complete", firstSub), userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(50), result["progress"].(map[string]interface{})["percentage"])

	status, result = doRequest(t, "GET", "/api/certification/", userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.StepTraining, result["step"])

	status, result = doRequest(t, "POST", fmt.Sprintf("/api/subsections/%d/complete", secondSub), userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(100), result["progress"].(map[string]interface{})["percentage"])

	status, result = doRequest(t, "GET", "/api/certification/", userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.StepExam, result["step"])
}

func testCertificationPipeline(t *testing.T) {
	// Contract cannot be signed before the exam is passed.
	status, _ := doRequest(t, "POST", "/api/certification/contract", userToken, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, result := doRequest(t, "GET", "/api/certification/exam", userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	questions := result["questions"].([]interface{})
	require.Len(t, questions, 1)
	questionID := uint(questions[0].(map[string]interface{})["id"].(float64))
	_, hasAnswer := questions[0].(map[string]interface{})["correct_answer"]
	assert.False(t, hasAnswer)

	status, result = doRequest(t, "POST", "/api/certification/exam", userToken, map[string]interface{}{
		"answers": []map[string]interface{}{
			{"question_id": questionID, "answer": 0},
		},
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, result["passed"])
	assert.Equal(t, float64(100), result["score"])
	assert.Equal(t, models.StepContract, result["step"])

	// Subscription requires a signed contract first.
	status, _ = doRequest(t, "POST", "/api/certification/subscription", userToken, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, result = doRequest(t, "POST", "/api/certification/contract", userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.StepSubscription, result["step"])

	status, result = doRequest(t, "POST", "/api/certification/subscription", userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.StepCompleted, result["step"])
	certificate := result["certificate"].(map[string]interface{})
	assert.NotEmpty(t, certificate["CertificateNumber"])

	status, result = doRequest(t, "GET", "/api/certification/", userToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, models.StepCompleted, result["step"])
	assert.NotNil(t, result["certificate"])
}

func testAdminReview(t *testing.T) {
	// A second learner stuck mid-pipeline for the approval path.
	status, result := doRequest(t, "POST", "/api/auth/register", "", map[string]interface{}{
		"username": "stuck",
		"email":    "stuck@example.com",
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, status)
	stuckID := uint(result["user"].(map[string]interface{})["id"].(float64))

	workflow := models.CertificationWorkflow{
		UserID:      stuckID,
		Level:       1,
		ExamStatus:  models.ExamStatusFailed,
		AdminStatus: models.AdminStatusPending,
		CurrentStep: models.StepTraining,
	}
	require.NoError(t, db.Create(&workflow).Error)

	status, result = doRequest(t, "GET", "/api/admin/certifications?status=pending", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	rows := result["data"].([]interface{})
	require.NotEmpty(t, rows)

	status, result = doRequest(t, "POST",
		fmt.Sprintf("/api/admin/certifications/%d/decision", workflow.ID), adminToken,
		map[string]interface{}{
			"decision": "approved",
			"note":     "manual override after exam review",
		})
	require.Equal(t, fiber.StatusOK, status)
	decided := result["data"].(map[string]interface{})
	assert.Equal(t, models.AdminStatusApproved, decided["admin_status"])
	assert.Equal(t, models.StepContract, decided["current_step"])

	// Invalid decisions are rejected.
	status, _ = doRequest(t, "POST",
		fmt.Sprintf("/api/admin/certifications/%d/decision", workflow.ID), adminToken,
		map[string]interface{}{"decision": "maybe"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	// Platform analytics reflect the issued certificate.
	status, result = doRequest(t, "GET", "/api/admin/analytics", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), result["certificates_issued"])
}
