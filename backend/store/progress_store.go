package store

import (
	"encoding/json"
	"errors"

	"codestreak/backend/challenge"
	"codestreak/backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrVersionConflict means the record changed between load and save. The
// caller should reload and retry the whole read-modify-write cycle.
var ErrVersionConflict = errors.New("progress record was modified concurrently")

// ErrNotEnrolled means no progress record exists for the user.
var ErrNotEnrolled = errors.New("user is not enrolled in the challenge")

// ProgressStore persists per-user challenge records with optimistic locking.
type ProgressStore struct {
	DB *gorm.DB
}

func NewProgressStore(db *gorm.DB) *ProgressStore {
	return &ProgressStore{DB: db}
}

// Get loads a user's progress record and its version for a later Save.
func (s *ProgressStore) Get(userID uint) (*challenge.ProgressData, int, error) {
	var row models.ChallengeProgress
	if err := s.DB.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrNotEnrolled
		}
		return nil, 0, err
	}

	var data challenge.ProgressData
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &data); err != nil {
			return nil, 0, err
		}
	}
	return &data, row.Version, nil
}

// Create inserts a fresh record for a newly enrolled user. Fails on the
// unique index if the user already has one.
func (s *ProgressStore) Create(userID uint, data *challenge.ProgressData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	row := models.ChallengeProgress{
		UserID:  userID,
		Data:    datatypes.JSON(raw),
		Version: 1,
	}
	return s.DB.Create(&row).Error
}

// Save writes the record back, but only if nobody else saved since the
// matching Get. A zero-row update means the version moved on.
func (s *ProgressStore) Save(userID uint, data *challenge.ProgressData, version int) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	result := s.DB.Model(&models.ChallengeProgress{}).
		Where("user_id = ? AND version = ?", userID, version).
		Updates(map[string]interface{}{
			"data":    datatypes.JSON(raw),
			"version": version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// Update runs one load-mutate-save cycle, retrying on version conflicts.
// mutate is called with the freshly loaded record each attempt, so it must
// not capture state from a previous attempt.
func (s *ProgressStore) Update(userID uint, mutate func(*challenge.ProgressData) error) (*challenge.ProgressData, error) {
	const maxAttempts = 3

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		data, version, err := s.Get(userID)
		if err != nil {
			return nil, err
		}
		if err := mutate(data); err != nil {
			return nil, err
		}
		if err := s.Save(userID, data, version); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return data, nil
	}
	return nil, lastErr
}

// All loads every enrolled user's record keyed by user id, for admin views
// and the leaderboard. Rows with unreadable JSON are skipped.
func (s *ProgressStore) All() (map[uint]*challenge.ProgressData, error) {
	var rows []models.ChallengeProgress
	if err := s.DB.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make(map[uint]*challenge.ProgressData, len(rows))
	for _, row := range rows {
		var data challenge.ProgressData
		if err := json.Unmarshal(row.Data, &data); err != nil {
			continue
		}
		records[row.UserID] = &data
	}
	return records, nil
}
