package controllers

import (
	"errors"
	"strings"
	"time"

	"codestreak/backend/challenge"
	"codestreak/backend/config"
	"codestreak/backend/models"
	"codestreak/backend/store"
	"codestreak/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	errNotEnrolled  = errors.New("not enrolled in the challenge")
	errFutureDay    = errors.New("day is not unlocked yet")
	errDuplicateURL = errors.New("already submitted")
)

type ChallengeController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *challenge.Service
	Store   *store.ProgressStore
}

func NewChallengeController(db *gorm.DB, cfg *config.Config, service *challenge.Service) *ChallengeController {
	return &ChallengeController{
		DB:      db,
		Cfg:     cfg,
		Service: service,
		Store:   store.NewProgressStore(db),
	}
}

func (cc *ChallengeController) userID(c *fiber.Ctx) uint {
	id, _ := c.Locals("user_id").(uint)
	return id
}

func (cc *ChallengeController) isAdmin(userID uint) bool {
	var user models.User
	if err := cc.DB.First(&user, userID).Error; err != nil {
		return false
	}
	return user.IsAdmin()
}

// GetOverview godoc
// @Summary Challenge overview
// @Description Returns challenge configuration and the user's enrollment state
// @Tags challenge
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /challenge [get]
func (cc *ChallengeController) GetOverview(c *fiber.Ctx) error {
	catalog := cc.Service.Catalog()

	// The overview is public; enrollment state is filled in when the caller
	// happens to carry a valid token.
	enrolled := false
	if userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg); err == nil {
		if data, _, err := cc.Store.Get(userID); err == nil {
			enrolled = data.Enrolled
		}
	}

	return c.JSON(fiber.Map{
		"enrolled":            enrolled,
		"total_days":          catalog.TotalDays(),
		"achievements_config": catalog.AchievementsConfig(),
		"point_values":        catalog.PointValues(),
	})
}

// Enroll godoc
// @Summary Enroll in the challenge
// @Description Creates a fresh progress record with the start date set to today
// @Tags challenge
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /challenge/enroll [post]
func (cc *ChallengeController) Enroll(c *fiber.Ctx) error {
	userID := cc.userID(c)

	if data, _, err := cc.Store.Get(userID); err == nil && data.Enrolled {
		return utils.Conflict(c, "Already enrolled")
	}

	now := time.Now().UTC()
	data := &challenge.ProgressData{
		Enrolled:  true,
		StartDate: now.Format(time.RFC3339),
	}
	if err := cc.Store.Create(userID, data); err != nil {
		return utils.InternalServerError(c, "Could not enroll")
	}

	return c.JSON(fiber.Map{
		"enrolled":    true,
		"start_date":  data.StartDate,
		"current_day": cc.Service.CurrentDay(data.StartDate, now),
	})
}

// GetDay godoc
// @Summary Day view
// @Description Returns a day's theme, problems and the user's solve state
// @Tags challenge
// @Produce json
// @Param day path int true "Day number"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /challenge/day/{day} [get]
func (cc *ChallengeController) GetDay(c *fiber.Ctx) error {
	userID := cc.userID(c)
	day, err := c.ParamsInt("day")
	if err != nil || day < 1 || day > challenge.ChallengeLength {
		return utils.BadRequest(c, "Invalid day")
	}

	data, _, err := cc.Store.Get(userID)
	if err != nil || !data.Enrolled {
		return utils.Forbidden(c, "Not enrolled")
	}

	currentDay := cc.Service.CurrentDay(data.StartDate, time.Now())
	if day > currentDay && !cc.isAdmin(userID) {
		return utils.Forbidden(c, "Day is not unlocked yet")
	}

	return c.JSON(fiber.Map{
		"day":             day,
		"theme":           cc.Service.Catalog().DayTheme(day),
		"problems":        cc.Service.Catalog().DayProblems(day),
		"solved_ids":      data.ProblemsSolved[challenge.DayKey(day)],
		"is_day_complete": cc.Service.IsDayComplete(day, data.ProblemsSolved),
		"current_day":     currentDay,
	})
}

// GetCalendar godoc
// @Summary Calendar view
// @Description Returns all 28 days with dates, completion and lock state
// @Tags challenge
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /challenge/calendar [get]
func (cc *ChallengeController) GetCalendar(c *fiber.Ctx) error {
	userID := cc.userID(c)
	data, _, err := cc.Store.Get(userID)
	if err != nil || !data.Enrolled {
		return utils.Forbidden(c, "Not enrolled")
	}

	now := time.Now()
	currentDay := cc.Service.CurrentDay(data.StartDate, now)
	isAdmin := cc.isAdmin(userID)

	start, parseErr := time.Parse(time.RFC3339, data.StartDate)
	if parseErr != nil {
		start = now
	}
	startDate := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	days := make([]fiber.Map, 0, len(cc.Service.Catalog().Days()))
	for _, d := range cc.Service.Catalog().Days() {
		date := startDate.AddDate(0, 0, d.Day-1)
		days = append(days, fiber.Map{
			"day":           d.Day,
			"date":          date.Format("2006-01-02"),
			"theme":         d.Theme,
			"problem_count": len(d.Problems),
			"is_completed":  data.HasDayCompleted(d.Day),
			"is_current":    d.Day == currentDay,
			"is_locked":     d.Day > currentDay && !isAdmin,
		})
	}

	return c.JSON(fiber.Map{
		"current_day": currentDay,
		"start_date":  data.StartDate,
		"days":        days,
	})
}

// CompleteProblem godoc
// @Summary Mark a problem solved
// @Description Records a solve and recomputes streaks, points and achievements
// @Tags challenge
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "day and problem_id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /challenge/complete-problem [post]
func (cc *ChallengeController) CompleteProblem(c *fiber.Ctx) error {
	type CompleteInput struct {
		Day       int    `json:"day"`
		ProblemID string `json:"problem_id"`
	}

	var input CompleteInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Day == 0 || input.ProblemID == "" {
		return utils.BadRequest(c, "day and problem_id are required")
	}
	if cc.Service.Catalog().Problem(input.Day, input.ProblemID) == nil {
		return utils.NotFound(c, "Unknown problem for that day")
	}

	now := time.Now()
	isAdmin := cc.isAdmin(cc.userID(c))

	var unlocked []string
	data, err := cc.Store.Update(cc.userID(c), func(p *challenge.ProgressData) error {
		if !p.Enrolled {
			return errNotEnrolled
		}
		if input.Day > cc.Service.CurrentDay(p.StartDate, now) && !isAdmin {
			return errFutureDay
		}
		if p.MarkSolved(input.Day, input.ProblemID) {
			p.LogActivity(now.UTC().Format("2006-01-02"), "problem_solved")
		}
		unlocked = cc.Service.Refresh(p, now)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotEnrolled), errors.Is(err, errNotEnrolled):
			return utils.Forbidden(c, "Not enrolled")
		case errors.Is(err, errFutureDay):
			return utils.Forbidden(c, "Day is not unlocked yet")
		default:
			return utils.InternalServerError(c, "Could not save progress")
		}
	}

	return c.JSON(fiber.Map{
		"day":                   input.Day,
		"problem_id":            input.ProblemID,
		"day_complete":          cc.Service.IsDayComplete(input.Day, data.ProblemsSolved),
		"days_completed":        data.DaysCompleted,
		"current_streak":        data.CurrentStreak,
		"best_streak":           data.BestStreak,
		"points":                data.Points,
		"total_problems_solved": data.TotalProblemsSolved,
		"new_achievements":      unlocked,
	})
}

// GetProgress godoc
// @Summary Get challenge progress
// @Description Returns the user's derived challenge state
// @Tags challenge
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /challenge/progress [get]
func (cc *ChallengeController) GetProgress(c *fiber.Ctx) error {
	data, _, err := cc.Store.Get(cc.userID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotEnrolled) {
			return c.JSON(fiber.Map{"enrolled": false})
		}
		return utils.InternalServerError(c, "Could not load progress")
	}

	currentDay := cc.Service.CurrentDay(data.StartDate, time.Now())
	achievements := data.Achievements
	if achievements == nil {
		achievements = []string{}
	}
	daysCompleted := data.DaysCompleted
	if daysCompleted == nil {
		daysCompleted = []int{}
	}

	return c.JSON(fiber.Map{
		"enrolled":              data.Enrolled,
		"start_date":            data.StartDate,
		"current_day":           currentDay,
		"days_completed":        daysCompleted,
		"current_streak":        data.CurrentStreak,
		"best_streak":           data.BestStreak,
		"points":                data.Points,
		"total_problems_solved": data.TotalProblemsSolved,
		"achievements":          achievements,
		"bonus_problems":        len(data.BonusProblems),
		"skool_submissions":     data.SkoolSubmissions,
		"trackers":              data.Trackers,
	})
}

// SubmitSkool godoc
// @Summary Submit a community post for review
// @Description Accepts a skool.com URL; an admin approves or rejects it later
// @Tags challenge
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "day and url"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /challenge/submit-skool [post]
func (cc *ChallengeController) SubmitSkool(c *fiber.Ctx) error {
	type SkoolInput struct {
		Day int    `json:"day"`
		URL string `json:"url"`
	}

	var input SkoolInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Day == 0 || input.URL == "" {
		return utils.BadRequest(c, "day and url are required")
	}
	if !strings.Contains(input.URL, "skool.com") {
		return utils.BadRequest(c, "URL must be a skool.com post")
	}

	now := time.Now().UTC()
	submission := challenge.SkoolSubmission{
		ID:          uuid.NewString(),
		Day:         input.Day,
		URL:         input.URL,
		Status:      challenge.StatusPending,
		SubmittedAt: now.Format(time.RFC3339),
	}

	_, err := cc.Store.Update(cc.userID(c), func(p *challenge.ProgressData) error {
		if !p.Enrolled {
			return errNotEnrolled
		}
		if p.HasPendingSkool(input.URL) {
			return errDuplicateURL
		}
		p.SkoolSubmissions = append(p.SkoolSubmissions, submission)
		p.LogActivity(now.Format("2006-01-02"), "skool_post")
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotEnrolled), errors.Is(err, errNotEnrolled):
			return utils.Forbidden(c, "Not enrolled")
		case errors.Is(err, errDuplicateURL):
			return utils.Conflict(c, "Submission already pending review")
		default:
			return utils.InternalServerError(c, "Could not save submission")
		}
	}

	return c.JSON(fiber.Map{
		"submission": submission,
		"status":     challenge.StatusPending,
	})
}

// SubmitBonusProblem godoc
// @Summary Submit a bonus problem
// @Description Accepts a leetcode.com URL solved outside the daily set
// @Tags challenge
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "url and optional name"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /challenge/bonus-problem [post]
func (cc *ChallengeController) SubmitBonusProblem(c *fiber.Ctx) error {
	type BonusInput struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}

	var input BonusInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.URL == "" {
		return utils.BadRequest(c, "url is required")
	}
	if !strings.Contains(input.URL, "leetcode.com") {
		return utils.BadRequest(c, "URL must be a leetcode.com problem")
	}

	now := time.Now().UTC()
	data, err := cc.Store.Update(cc.userID(c), func(p *challenge.ProgressData) error {
		if !p.Enrolled {
			return errNotEnrolled
		}
		if p.HasBonusProblem(input.URL) {
			return errDuplicateURL
		}
		p.BonusProblems = append(p.BonusProblems, challenge.BonusProblem{
			URL:         input.URL,
			Name:        input.Name,
			SubmittedAt: now.Format(time.RFC3339),
		})
		p.LogActivity(now.Format("2006-01-02"), "bonus_problem")
		cc.Service.Refresh(p, now)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotEnrolled), errors.Is(err, errNotEnrolled):
			return utils.Forbidden(c, "Not enrolled")
		case errors.Is(err, errDuplicateURL):
			return utils.Conflict(c, "Bonus problem already submitted")
		default:
			return utils.InternalServerError(c, "Could not save submission")
		}
	}

	return c.JSON(fiber.Map{
		"bonus_problems": len(data.BonusProblems),
		"points":         data.Points,
	})
}

// UpdateTracker godoc
// @Summary Update a daily tracker
// @Description Applies a delta to a cumulative counter (commits, posts, mock interviews...)
// @Tags challenge
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "tracker and count"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /challenge/tracker [post]
func (cc *ChallengeController) UpdateTracker(c *fiber.Ctx) error {
	type TrackerInput struct {
		Tracker string `json:"tracker"`
		Count   int    `json:"count"`
	}

	var input TrackerInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Tracker == "" || input.Count == 0 {
		return utils.BadRequest(c, "tracker and a non-zero count are required")
	}

	date := time.Now().UTC().Format("2006-01-02")
	data, err := cc.Store.Update(cc.userID(c), func(p *challenge.ProgressData) error {
		if !p.Enrolled {
			return errNotEnrolled
		}
		if p.Trackers == nil {
			p.Trackers = make(map[string]int)
		}
		delta := input.Count
		if p.Trackers[input.Tracker]+delta < 0 {
			delta = -p.Trackers[input.Tracker]
		}
		p.Trackers[input.Tracker] += delta

		if p.TrackerLog == nil {
			p.TrackerLog = make(map[string]map[string]int)
		}
		if p.TrackerLog[date] == nil {
			p.TrackerLog[date] = make(map[string]int)
		}
		p.TrackerLog[date][input.Tracker] += delta
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotEnrolled) || errors.Is(err, errNotEnrolled) {
			return utils.Forbidden(c, "Not enrolled")
		}
		return utils.InternalServerError(c, "Could not save tracker")
	}

	return c.JSON(fiber.Map{
		"tracker": input.Tracker,
		"total":   data.Trackers[input.Tracker],
		"today":   data.TrackerLog[date][input.Tracker],
	})
}

// GetHeatmap godoc
// @Summary Activity heatmap
// @Description Returns one cell per day for the past year
// @Tags challenge
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /challenge/heatmap [get]
func (cc *ChallengeController) GetHeatmap(c *fiber.Ctx) error {
	data, _, err := cc.Store.Get(cc.userID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotEnrolled) {
			return c.JSON(fiber.Map{"enrolled": false, "heatmap": []fiber.Map{}})
		}
		return utils.InternalServerError(c, "Could not load progress")
	}

	type cell struct {
		Date    string `json:"date"`
		Count   int    `json:"count"`
		Weekday int    `json:"weekday"`
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	cells := make([]cell, 0, 366)
	for d := today.AddDate(-1, 0, 0); !d.After(today); d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		cells = append(cells, cell{
			Date:    date,
			Count:   data.ActivityLog[date].Count,
			Weekday: int(d.Weekday()),
		})
	}

	return c.JSON(fiber.Map{
		"enrolled": data.Enrolled,
		"heatmap":  cells,
	})
}
