package controllers

import (
	"sort"

	"codestreak/backend/challenge"
	"codestreak/backend/config"
	"codestreak/backend/models"
	"codestreak/backend/store"
	"codestreak/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// leaderboardSize caps how many participants the public board shows.
const leaderboardSize = 50

type LeaderboardController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Service *challenge.Service
	Store   *store.ProgressStore
}

func NewLeaderboardController(db *gorm.DB, cfg *config.Config, service *challenge.Service) *LeaderboardController {
	return &LeaderboardController{
		DB:      db,
		Cfg:     cfg,
		Service: service,
		Store:   store.NewProgressStore(db),
	}
}

type leaderboardEntry struct {
	Rank          int    `json:"rank"`
	Username      string `json:"username"`
	Points        int    `json:"points"`
	CurrentStreak int    `json:"current_streak"`
	BestStreak    int    `json:"best_streak"`
	DaysCompleted int    `json:"days_completed"`
}

// GetLeaderboard godoc
// @Summary Public points leaderboard
// @Description Returns enrolled participants ranked by points
// @Tags challenge
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /challenge/leaderboard [get]
func (lc *LeaderboardController) GetLeaderboard(c *fiber.Ctx) error {
	records, err := lc.Store.All()
	if err != nil {
		return utils.InternalServerError(c, "Could not load leaderboard")
	}

	userIDs := make([]uint, 0, len(records))
	for id, data := range records {
		if data.Enrolled {
			userIDs = append(userIDs, id)
		}
	}
	usernames := make(map[uint]string, len(userIDs))
	if len(userIDs) > 0 {
		var users []models.User
		if err := lc.DB.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return utils.InternalServerError(c, "Could not load users")
		}
		for _, u := range users {
			usernames[u.ID] = u.Username
		}
	}

	entries := make([]leaderboardEntry, 0, len(userIDs))
	for _, id := range userIDs {
		data := records[id]
		entries = append(entries, leaderboardEntry{
			Username:      usernames[id],
			Points:        data.Points,
			CurrentStreak: data.CurrentStreak,
			BestStreak:    data.BestStreak,
			DaysCompleted: len(data.DaysCompleted),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Username < entries[j].Username
	})
	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return c.JSON(fiber.Map{
		"leaderboard": entries,
		"total":       len(entries),
	})
}
