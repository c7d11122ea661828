package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"codestreak/backend/challenge"
	"codestreak/backend/config"
	"codestreak/backend/models"
	"codestreak/backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ChallengeProgress{}))

	cfg := &config.Config{JWTSecret: "test-secret"}
	service := challenge.NewService(challenge.LoadCatalog("../../challenge_problems.json", nil))

	app := fiber.New()
	routes.SetupRoutes(app, db, cfg, service)
	return app, db
}

func registerUser(t *testing.T, app *fiber.App, username string) (string, uint) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter22",
	})
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	token := result["token"].(string)
	id := uint(result["user"].(map[string]interface{})["id"].(float64))
	return token, id
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func enroll(t *testing.T, app *fiber.App, token string) {
	t.Helper()
	status, _ := doJSON(t, app, "POST", "/api/challenge/enroll", token, nil)
	require.Equal(t, fiber.StatusOK, status)
}

func TestEnroll(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := registerUser(t, app, "alice")

	status, result := doJSON(t, app, "POST", "/api/challenge/enroll", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, result["enrolled"])
	assert.Equal(t, float64(1), result["current_day"])

	// Enrolling twice conflicts.
	status, _ = doJSON(t, app, "POST", "/api/challenge/enroll", token, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	// Enrollment requires auth.
	status, _ = doJSON(t, app, "POST", "/api/challenge/enroll", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestGetProgressFreshEnrollment(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := registerUser(t, app, "alice")

	status, result := doJSON(t, app, "GET", "/api/challenge/progress", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, result["enrolled"])

	enroll(t, app, token)

	status, result = doJSON(t, app, "GET", "/api/challenge/progress", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, result["enrolled"])
	assert.Equal(t, float64(1), result["current_day"])
	assert.Equal(t, float64(0), result["points"])
	assert.Equal(t, float64(0), result["best_streak"])
	assert.Empty(t, result["achievements"])
	assert.Empty(t, result["days_completed"])
}

func TestCompleteProblem(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := registerUser(t, app, "alice")
	enroll(t, app, token)

	status, result := doJSON(t, app, "POST", "/api/challenge/complete-problem", token, map[string]interface{}{
		"day": 1, "problem_id": "two-sum",
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, result["day_complete"])
	assert.Equal(t, float64(10), result["points"])
	assert.Equal(t, float64(1), result["current_streak"])
	assert.Equal(t, float64(1), result["best_streak"])
	assert.Equal(t, []interface{}{"first_problem"}, result["new_achievements"])

	// Solving the same problem again changes nothing and unlocks nothing.
	status, result = doJSON(t, app, "POST", "/api/challenge/complete-problem", token, map[string]interface{}{
		"day": 1, "problem_id": "two-sum",
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(10), result["points"])
	assert.Equal(t, float64(1), result["total_problems_solved"])
	assert.Empty(t, result["new_achievements"])
}

func TestCompleteProblemValidation(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := registerUser(t, app, "alice")

	// Requires auth.
	status, _ := doJSON(t, app, "POST", "/api/challenge/complete-problem", "", map[string]interface{}{
		"day": 1, "problem_id": "two-sum",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	// Requires day and problem_id.
	status, _ = doJSON(t, app, "POST", "/api/challenge/complete-problem", token, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	// Unknown problem for the day.
	status, _ = doJSON(t, app, "POST", "/api/challenge/complete-problem", token, map[string]interface{}{
		"day": 1, "problem_id": "not-a-real-id",
	})
	assert.Equal(t, fiber.StatusNotFound, status)

	// Must be enrolled.
	status, _ = doJSON(t, app, "POST", "/api/challenge/complete-problem", token, map[string]interface{}{
		"day": 1, "problem_id": "two-sum",
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	// Future days are locked: freshly enrolled users are on day 1.
	enroll(t, app, token)
	status, _ = doJSON(t, app, "POST", "/api/challenge/complete-problem", token, map[string]interface{}{
		"day": 5, "problem_id": "two-sum-ii",
	})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestGetDay(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := registerUser(t, app, "alice")

	// Not enrolled yet.
	status, _ := doJSON(t, app, "GET", "/api/challenge/day/1", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	enroll(t, app, token)

	status, result := doJSON(t, app, "GET", "/api/challenge/day/1", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Arrays & Hashing", result["theme"])
	assert.Equal(t, false, result["is_day_complete"])
	assert.NotEmpty(t, result["problems"])

	// Out-of-range days.
	status, _ = doJSON(t, app, "GET", "/api/challenge/day/0", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = doJSON(t, app, "GET", "/api/challenge/day/29", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	// Future days are locked for regular users.
	status, _ = doJSON(t, app, "GET", "/api/challenge/day/5", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestGetCalendar(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := registerUser(t, app, "alice")

	status, _ := doJSON(t, app, "GET", "/api/challenge/calendar", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	enroll(t, app, token)

	status, result := doJSON(t, app, "GET", "/api/challenge/calendar", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), result["current_day"])

	days := result["days"].([]interface{})
	require.Len(t, days, 28)

	first := days[0].(map[string]interface{})
	assert.Equal(t, true, first["is_current"])
	assert.Equal(t, false, first["is_locked"])
	assert.Equal(t, false, first["is_completed"])

	last := days[27].(map[string]interface{})
	assert.Equal(t, float64(28), last["day"])
	assert.Equal(t, true, last["is_locked"])
}

func TestSubmitSkool(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := registerUser(t, app, "alice")
	enroll(t, app, token)

	// Requires day and url.
	status, _ := doJSON(t, app, "POST", "/api/challenge/submit-skool", token, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = doJSON(t, app, "POST", "/api/challenge/submit-skool", token, map[string]interface{}{"day": 1})
	assert.Equal(t, fiber.StatusBadRequest, status)

	// Rejects non-skool URLs.
	for _, url := range []string{
		"https://google.com",
		"https://leetcode.com/problems/two-sum",
		"https://github.com",
	} {
		status, _ = doJSON(t, app, "POST", "/api/challenge/submit-skool", token, map[string]interface{}{
			"day": 1, "url": url,
		})
		assert.Equal(t, fiber.StatusBadRequest, status, "URL should be rejected: %s", url)
	}

	status, result := doJSON(t, app, "POST", "/api/challenge/submit-skool", token, map[string]interface{}{
		"day": 1, "url": "https://www.skool.com/community/post/123",
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pending", result["status"])

	// Resubmitting the same post while the first is pending conflicts, even
	// with a trailing slash, so approval can never score it twice.
	status, _ = doJSON(t, app, "POST", "/api/challenge/submit-skool", token, map[string]interface{}{
		"day": 1, "url": "https://www.skool.com/community/post/123",
	})
	assert.Equal(t, fiber.StatusConflict, status)
	status, _ = doJSON(t, app, "POST", "/api/challenge/submit-skool", token, map[string]interface{}{
		"day": 1, "url": "https://www.skool.com/community/post/123/",
	})
	assert.Equal(t, fiber.StatusConflict, status)

	// A different post is still accepted.
	status, _ = doJSON(t, app, "POST", "/api/challenge/submit-skool", token, map[string]interface{}{
		"day": 2, "url": "https://www.skool.com/community/post/456",
	})
	assert.Equal(t, fiber.StatusOK, status)

	// Pending submissions never score.
	status, result = doJSON(t, app, "GET", "/api/challenge/progress", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), result["points"])
}

func TestBonusProblem(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := registerUser(t, app, "alice")
	enroll(t, app, token)

	// Requires a leetcode URL.
	status, _ := doJSON(t, app, "POST", "/api/challenge/bonus-problem", token, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = doJSON(t, app, "POST", "/api/challenge/bonus-problem", token, map[string]interface{}{
		"url": "https://github.com/some/repo",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, result := doJSON(t, app, "POST", "/api/challenge/bonus-problem", token, map[string]interface{}{
		"url": "https://leetcode.com/problems/lru-cache/", "name": "LRU Cache",
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), result["bonus_problems"])
	assert.Equal(t, float64(5), result["points"])

	// Same URL without the trailing slash dedupes.
	status, _ = doJSON(t, app, "POST", "/api/challenge/bonus-problem", token, map[string]interface{}{
		"url": "https://leetcode.com/problems/lru-cache",
	})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestTracker(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := registerUser(t, app, "alice")
	enroll(t, app, token)

	status, _ := doJSON(t, app, "POST", "/api/challenge/tracker", token, map[string]interface{}{})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, result := doJSON(t, app, "POST", "/api/challenge/tracker", token, map[string]interface{}{
		"tracker": "commits", "count": 3,
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), result["total"])

	status, result = doJSON(t, app, "POST", "/api/challenge/tracker", token, map[string]interface{}{
		"tracker": "commits", "count": 2,
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(5), result["total"])

	// Deltas never push a counter below zero.
	status, result = doJSON(t, app, "POST", "/api/challenge/tracker", token, map[string]interface{}{
		"tracker": "commits", "count": -100,
	})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), result["total"])
}

func TestHeatmap(t *testing.T) {
	app, _ := setupApp(t)
	token, _ := registerUser(t, app, "alice")
	enroll(t, app, token)

	doJSON(t, app, "POST", "/api/challenge/complete-problem", token, map[string]interface{}{
		"day": 1, "problem_id": "two-sum",
	})

	status, result := doJSON(t, app, "GET", "/api/challenge/heatmap", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	cells := result["heatmap"].([]interface{})
	assert.GreaterOrEqual(t, len(cells), 366)
	assert.LessOrEqual(t, len(cells), 367)

	// Today is the last cell and carries the solve.
	last := cells[len(cells)-1].(map[string]interface{})
	assert.Equal(t, float64(1), last["count"])
}

func TestOverviewIsPublic(t *testing.T) {
	app, _ := setupApp(t)

	status, result := doJSON(t, app, "GET", "/api/challenge", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, result["enrolled"])
	assert.Equal(t, float64(28), result["total_days"])
	assert.NotEmpty(t, result["achievements_config"])
	assert.NotEmpty(t, result["point_values"])
}
