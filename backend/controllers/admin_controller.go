package controllers

import (
	"errors"
	"time"

	"codestreak/backend/challenge"
	"codestreak/backend/config"
	"codestreak/backend/models"
	"codestreak/backend/store"
	"codestreak/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var errBadSubmissionIndex = errors.New("submission index out of range")

type AdminController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *challenge.Service
	Store   *store.ProgressStore
}

func NewAdminController(db *gorm.DB, cfg *config.Config, service *challenge.Service) *AdminController {
	return &AdminController{
		DB:      db,
		Cfg:     cfg,
		Service: service,
		Store:   store.NewProgressStore(db),
	}
}

// GetParticipants godoc
// @Summary List challenge participants
// @Description Returns every enrolled user with their derived progress
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /challenge/admin/participants [get]
func (ac *AdminController) GetParticipants(c *fiber.Ctx) error {
	records, err := ac.Store.All()
	if err != nil {
		return utils.InternalServerError(c, "Could not load participants")
	}

	userIDs := make([]uint, 0, len(records))
	for id := range records {
		userIDs = append(userIDs, id)
	}
	var users []models.User
	if len(userIDs) > 0 {
		if err := ac.DB.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return utils.InternalServerError(c, "Could not load users")
		}
	}

	now := time.Now()
	participants := make([]fiber.Map, 0, len(users))
	for _, user := range users {
		data := records[user.ID]
		pending := 0
		for _, s := range data.SkoolSubmissions {
			if s.Status == challenge.StatusPending {
				pending++
			}
		}
		participants = append(participants, fiber.Map{
			"user_id":               user.ID,
			"username":              user.Username,
			"email":                 user.Email,
			"current_day":           ac.Service.CurrentDay(data.StartDate, now),
			"days_completed":        len(data.DaysCompleted),
			"total_problems_solved": data.TotalProblemsSolved,
			"current_streak":        data.CurrentStreak,
			"best_streak":           data.BestStreak,
			"points":                data.Points,
			"achievements":          len(data.Achievements),
			"pending_submissions":   pending,
		})
	}

	return c.JSON(fiber.Map{
		"participants": participants,
		"total":        len(participants),
	})
}

// ReviewSubmission godoc
// @Summary Approve or reject a Skool submission
// @Description Flips a submission's status and recomputes the user's points and achievements
// @Tags admin
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "user_id, submission_index, action"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /challenge/admin/approve-submission [post]
func (ac *AdminController) ReviewSubmission(c *fiber.Ctx) error {
	type ReviewInput struct {
		UserID          *uint  `json:"user_id"`
		SubmissionIndex *int   `json:"submission_index"`
		Action          string `json:"action"` // approve, reject
	}

	var input ReviewInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.UserID == nil || input.SubmissionIndex == nil || input.Action == "" {
		return utils.BadRequest(c, "user_id, submission_index and action are required")
	}

	var status string
	switch input.Action {
	case "approve":
		status = challenge.StatusApproved
	case "reject":
		status = challenge.StatusRejected
	default:
		return utils.BadRequest(c, "action must be approve or reject")
	}

	now := time.Now()
	var unlocked []string
	var reviewed challenge.SkoolSubmission
	data, err := ac.Store.Update(*input.UserID, func(p *challenge.ProgressData) error {
		idx := *input.SubmissionIndex
		if idx < 0 || idx >= len(p.SkoolSubmissions) {
			return errBadSubmissionIndex
		}
		p.SkoolSubmissions[idx].Status = status
		p.SkoolSubmissions[idx].ReviewedAt = now.UTC().Format(time.RFC3339)
		reviewed = p.SkoolSubmissions[idx]
		unlocked = ac.Service.Refresh(p, now)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotEnrolled):
			return utils.NotFound(c, "User has no challenge record")
		case errors.Is(err, errBadSubmissionIndex):
			return utils.BadRequest(c, "Invalid submission index")
		default:
			return utils.InternalServerError(c, "Could not update submission")
		}
	}

	return c.JSON(fiber.Map{
		"submission":       reviewed,
		"points":           data.Points,
		"new_achievements": unlocked,
	})
}
