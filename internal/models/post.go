package models

import (
	"strconv"
	"time"
)

// MaxTitleLength bounds Post.Title.
const MaxTitleLength = 200

// MaxHours is the largest value a numeric(5,2) column can hold.
const MaxHours = 999.99

// Post is a procrastination entry.
type Post struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Title               string    `gorm:"size:200;not null" json:"title"`
	Description         string    `gorm:"type:text;not null" json:"description"`
	HoursProcrastinated float64   `gorm:"type:numeric(5,2);not null;check:chk_posts_hours_non_negative,hours_procrastinated >= 0" json:"hours_procrastinated"`
	AuthorID            uint      `gorm:"not null;index" json:"author_id"`
	Author              User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	CreatedAt           time.Time `gorm:"index" json:"created_at"`

	// Filled by subqueries at read time, never written.
	LikeCount    int64 `gorm:"->;-:migration" json:"like_count"`
	DislikeCount int64 `gorm:"->;-:migration" json:"dislike_count"`
}

// PostSummary is the flat representation used by the feed delta endpoint.
type PostSummary struct {
	ID                  uint   `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	HoursProcrastinated string `json:"hours_procrastinated"`
	Author              string `json:"author"`
	CreatedAt           string `json:"created_at"`
	LikeCount           int64  `json:"like_count"`
	DislikeCount        int64  `json:"dislike_count"`
}

// Summary converts a post with loaded author and counts into a PostSummary.
func (p *Post) Summary() PostSummary {
	return PostSummary{
		ID:                  p.ID,
		Title:               p.Title,
		Description:         p.Description,
		HoursProcrastinated: FormatHours(p.HoursProcrastinated),
		Author:              p.Author.Username,
		CreatedAt:           p.CreatedAt.UTC().Format(time.RFC3339Nano),
		LikeCount:           p.LikeCount,
		DislikeCount:        p.DislikeCount,
	}
}

// FormatHours renders hours with exactly two decimal places.
func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
