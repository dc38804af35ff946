package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	RoleCreator = "creator"
	RoleClient  = "client"

	DefaultProfileImage = "https://via.placeholder.com/150"
)

// User is a marketplace account. Only the fields the messaging core needs
// to expand a message (name, avatar) are read here; profile editing lives
// elsewhere.
type User struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"type:text;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Role         string         `gorm:"type:text;not null;index" json:"role"`
	Bio          string         `gorm:"type:text" json:"bio"`
	Skills       pq.StringArray `gorm:"type:text[]" json:"skills"`
	ProfileImage string         `gorm:"type:text" json:"profileImage"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// BeforeCreate generates a UUID for the user if none is set and fills in
// the placeholder avatar.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.ProfileImage == "" {
		u.ProfileImage = DefaultProfileImage
	}
	return
}

// Ref returns the display fields of the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Avatar: u.ProfileImage}
}

// UserRef is the expanded form of a message participant.
type UserRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}
