package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/anjiri1684/etuition_backend/database"
	"github.com/anjiri1684/etuition_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateApplication(t *testing.T) {
	app := setupTestApp(t)
	student := seedUser(t, "student@example.com", models.RoleStudent)
	tutor := seedUser(t, "tutor@example.com", models.RoleTutor)
	tuition := seedTuition(t, student, models.TuitionStatusApproved)
	token := makeToken(t, tutor)

	body := fmt.Sprintf(`{"tuition_id":%q,"expected_salary":5500}`, tuition.ID.String())
	resp := doRequest(t, app, "POST", "/api/v1/applications", token, strings.NewReader(body))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var application models.Application
	require.NoError(t, database.DB.Where("tuition_id = ? AND tutor_email = ?", tuition.ID, tutor.Email).
		First(&application).Error)
	assert.Equal(t, models.ApplicationStatusPending, application.Status)
	assert.Equal(t, 5500.0, application.ExpectedSalary)

	// The mirror row is created in the same transaction.
	var listingCount int64
	database.DB.Model(&models.TutorListing{}).
		Where("tuition_id = ? AND tutor_email = ?", tuition.ID, tutor.Email).
		Count(&listingCount)
	assert.Equal(t, int64(1), listingCount)
}

func TestCreateApplicationDuplicateRejected(t *testing.T) {
	app := setupTestApp(t)
	student := seedUser(t, "student@example.com", models.RoleStudent)
	tutor := seedUser(t, "tutor@example.com", models.RoleTutor)
	tuition := seedTuition(t, student, models.TuitionStatusApproved)
	seedApplication(t, tuition, tutor)
	token := makeToken(t, tutor)

	body := fmt.Sprintf(`{"tuition_id":%q}`, tuition.ID.String())
	resp := doRequest(t, app, "POST", "/api/v1/applications", token, strings.NewReader(body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	parsed := decodeBody(t, resp)
	assert.Equal(t, "You have already applied to this tuition!", parsed["message"])

	var count int64
	database.DB.Model(&models.Application{}).
		Where("tuition_id = ? AND tutor_email = ?", tuition.ID, tutor.Email).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreateApplicationBookedTuition(t *testing.T) {
	app := setupTestApp(t)
	student := seedUser(t, "student@example.com", models.RoleStudent)
	tutor := seedUser(t, "tutor@example.com", models.RoleTutor)
	tuition := seedTuition(t, student, models.TuitionStatusBooked)
	token := makeToken(t, tutor)

	body := fmt.Sprintf(`{"tuition_id":%q}`, tuition.ID.String())
	resp := doRequest(t, app, "POST", "/api/v1/applications", token, strings.NewReader(body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestWithdrawApplication(t *testing.T) {
	app := setupTestApp(t)
	student := seedUser(t, "student@example.com", models.RoleStudent)
	tutor := seedUser(t, "tutor@example.com", models.RoleTutor)
	tuition := seedTuition(t, student, models.TuitionStatusApproved)
	application := seedApplication(t, tuition, tutor)
	token := makeToken(t, tutor)

	resp := doRequest(t, app, "DELETE", "/api/v1/applications/"+application.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var appCount, listingCount int64
	database.DB.Model(&models.Application{}).Where("id = ?", application.ID).Count(&appCount)
	database.DB.Model(&models.TutorListing{}).
		Where("tuition_id = ? AND tutor_email = ?", tuition.ID, tutor.Email).
		Count(&listingCount)
	assert.Equal(t, int64(0), appCount)
	assert.Equal(t, int64(0), listingCount)
}

func TestWithdrawApplicationWrongTutor(t *testing.T) {
	app := setupTestApp(t)
	student := seedUser(t, "student@example.com", models.RoleStudent)
	tutor := seedUser(t, "tutor@example.com", models.RoleTutor)
	other := seedUser(t, "other@example.com", models.RoleTutor)
	tuition := seedTuition(t, student, models.TuitionStatusApproved)
	application := seedApplication(t, tuition, tutor)
	token := makeToken(t, other)

	resp := doRequest(t, app, "DELETE", "/api/v1/applications/"+application.ID.String(), token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestRejectApplicationByRecruiter(t *testing.T) {
	app := setupTestApp(t)
	student := seedUser(t, "student@example.com", models.RoleStudent)
	tutor := seedUser(t, "tutor@example.com", models.RoleTutor)
	tuition := seedTuition(t, student, models.TuitionStatusApproved)
	application := seedApplication(t, tuition, tutor)
	token := makeToken(t, student)

	resp := doRequest(t, app, "PATCH", "/api/v1/applications/"+application.ID.String()+"/reject", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var updated models.Application
	require.NoError(t, database.DB.First(&updated, "id = ?", application.ID).Error)
	assert.Equal(t, models.ApplicationStatusRejected, updated.Status)
	assert.NotNil(t, updated.RejectedAt)

	// The mirror converges through the read-repair call.
	var listing models.TutorListing
	require.NoError(t, database.DB.
		Where("tuition_id = ? AND tutor_email = ?", tuition.ID, tutor.Email).
		First(&listing).Error)
	assert.Equal(t, models.ApplicationStatusRejected, listing.Status)
}

func TestListTutorsPublic(t *testing.T) {
	app := setupTestApp(t)
	student := seedUser(t, "student@example.com", models.RoleStudent)
	tutor := seedUser(t, "tutor@example.com", models.RoleTutor)
	tuition := seedTuition(t, student, models.TuitionStatusApproved)
	seedApplication(t, tuition, tutor)

	resp := doRequest(t, app, "GET", "/api/v1/tutors", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	parsed := decodeBody(t, resp)
	assert.Equal(t, float64(1), parsed["total"])

	tutors, ok := parsed["tutors"].([]interface{})
	require.True(t, ok)
	require.Len(t, tutors, 1)
	entry := tutors[0].(map[string]interface{})
	assert.Equal(t, tutor.FullName, entry["name"])
	assert.Equal(t, tuition.Subject, entry["subject"])
}
