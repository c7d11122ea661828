package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChallengeProgress stores one user's entire challenge record as a JSON
// document, the way the progress engine consumes it. Version backs the
// optimistic-locking check in the store: concurrent read-modify-write cycles
// for the same user cannot silently overwrite each other.
type ChallengeProgress struct {
	gorm.Model
	UserID  uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Data    datatypes.JSON `gorm:"type:jsonb" json:"data"`
	Version int            `gorm:"not null;default:0" json:"version"`
}
