// Package seed creates demo data for development databases. It is not used
// by the request path.
package seed

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"procrastinators/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is assigned to every seeded account.
const DefaultPassword = "password123"

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Factory builds and persists entities with fake content.
type Factory struct {
	db           *gorm.DB
	faker        *gofakeit.Faker
	passwordHash string
	maxDays      int
	now          time.Time
	seq          int
}

// NewFactory binds a Factory to db. passwordHash is stored verbatim on every user.
func NewFactory(db *gorm.DB, faker *gofakeit.Faker, passwordHash string, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 30
	}
	return &Factory{
		db:           db,
		faker:        faker,
		passwordHash: passwordHash,
		maxDays:      maxDays,
		now:          time.Now().UTC(),
	}
}

// CreateUser persists a user with a unique, valid username.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	base := nonAlnum.ReplaceAllString(f.faker.Username(), "")
	if len(base) > 20 {
		base = base[:20]
	}
	if base == "" {
		base = "user"
	}
	username := fmt.Sprintf("%s%d", base, f.seq)

	user := &models.User{
		Username: username,
		Email:    strings.ToLower(username) + "@example.com",
		Password: f.passwordHash,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost returns an unsaved post by author with a created_at spread over
// the factory's window.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	title := strings.TrimSuffix(f.faker.HackerPhrase(), ".")
	if len(title) > models.MaxTitleLength {
		title = title[:models.MaxTitleLength]
	}

	back := time.Duration(f.faker.IntRange(0, f.maxDays*24*60)) * time.Minute
	post := &models.Post{
		Title:               title,
		Description:         f.faker.Paragraph(1, 3, 12, "\n"),
		HoursProcrastinated: math.Round(f.faker.Float64Range(0, 48)*100) / 100,
		AuthorID:            author.ID,
		CreatedAt:           f.now.Add(-back),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists posts in one call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateReaction persists a like or dislike.
func (f *Factory) CreateReaction(kind models.ReactionKind, user *models.User, post *models.Post) error {
	switch kind {
	case models.ReactionLike:
		return f.db.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error
	case models.ReactionDislike:
		return f.db.Create(&models.Dislike{UserID: user.ID, PostID: post.ID}).Error
	default:
		return fmt.Errorf("unknown reaction kind %q", kind)
	}
}
