// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"procrastinators/internal/database"
	"procrastinators/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated in-memory SQLite database private to the test.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), database.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.ApplySchema(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with the given username and a throwaway hash.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "not-a-real-hash",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return u
}

// CreatePost inserts a post authored by author with an explicit creation time.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, title string, hours float64, createdAt time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:               title,
		Description:         title + " description",
		HoursProcrastinated: hours,
		AuthorID:            author.ID,
		CreatedAt:           createdAt.UTC(),
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create post %s: %v", title, err)
	}
	return p
}

// React inserts a like or dislike row directly, bypassing the toggle.
func React(t testing.TB, db *gorm.DB, kind models.ReactionKind, user *models.User, post *models.Post) {
	t.Helper()
	var err error
	switch kind {
	case models.ReactionLike:
		err = db.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error
	case models.ReactionDislike:
		err = db.Create(&models.Dislike{UserID: user.ID, PostID: post.ID}).Error
	}
	if err != nil {
		t.Fatalf("failed to insert %s: %v", kind, err)
	}
}
