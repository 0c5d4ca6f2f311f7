package models

import "time"

// User is an account that can author posts and react to them.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:254" json:"-"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts []Post `gorm:"foreignKey:AuthorID" json:"-"`
}

// Principal is the authenticated caller passed explicitly into core operations.
type Principal struct {
	UserID   uint
	Username string
}

// Authenticated reports whether the principal identifies a user.
func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

// UserHours is a row of the user leaderboard.
type UserHours struct {
	UserID     uint    `json:"user_id"`
	Username   string  `json:"username"`
	TotalHours float64 `json:"total_hours"`
	PostCount  int64   `json:"post_count"`
}
