package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/anjiri1684/etuition_backend/database"
	"github.com/anjiri1684/etuition_backend/models"
	"github.com/anjiri1684/etuition_backend/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TuitionPost{},
		&models.Application{},
		&models.TutorListing{},
		&models.Payment{},
	))
	database.DB = db

	app := fiber.New()
	routes.AuthRoutes(app)
	routes.TuitionRoutes(app)
	routes.ApplicationRoutes(app)
	routes.PaymentRoutes(app)
	routes.AdminRoutes(app)
	return app
}

func seedUser(t *testing.T, email, role string) models.User {
	t.Helper()
	user := models.User{
		FullName: "Test " + role,
		Email:    email,
		Password: "not-a-real-hash",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, database.DB.Create(&user).Error)
	return user
}

func seedTuition(t *testing.T, student models.User, status string) models.TuitionPost {
	t.Helper()
	tuition := models.TuitionPost{
		Subject:      "Mathematics",
		Class:        "Class 10",
		Location:     "Dhaka",
		Salary:       5000,
		StudentEmail: student.Email,
		StudentID:    student.ID,
		Status:       status,
	}
	require.NoError(t, database.DB.Create(&tuition).Error)
	return tuition
}

func seedApplication(t *testing.T, tuition models.TuitionPost, tutor models.User) models.Application {
	t.Helper()
	application := models.Application{
		TuitionID:       tuition.ID,
		TuitionSubject:  tuition.Subject,
		TuitionLocation: tuition.Location,
		RecruiterEmail:  tuition.StudentEmail,
		TutorID:         tutor.ID,
		TutorEmail:      tutor.Email,
		TutorName:       tutor.FullName,
		ExpectedSalary:  tuition.Salary,
		Status:          models.ApplicationStatusPending,
	}
	require.NoError(t, database.DB.Create(&application).Error)

	listing := models.TutorListing{
		TuitionID:       application.TuitionID,
		TuitionSubject:  application.TuitionSubject,
		TuitionLocation: application.TuitionLocation,
		RecruiterEmail:  application.RecruiterEmail,
		TutorEmail:      application.TutorEmail,
		TutorName:       application.TutorName,
		ExpectedSalary:  application.ExpectedSalary,
		Status:          application.Status,
		AppliedAt:       application.AppliedAt,
	}
	require.NoError(t, database.DB.Create(&listing).Error)
	return application
}

func makeToken(t *testing.T, user models.User) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var parsed map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return parsed
}
