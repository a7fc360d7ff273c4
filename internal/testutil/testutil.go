package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"agora/internal/db"
	"agora/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var seq atomic.Int64

// SetupTestDB returns a migrated in-memory SQLite database private to the test.
// A single connection is used, so concurrent transactions queue on the pool
// the way row locks make them queue on postgres.
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:agora_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", seq.Add(1))
	conn, err := db.Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return conn
}

// CreateTestUser inserts a user with a unique email.
func CreateTestUser(t testing.TB, conn *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%d@example.com", name, seq.Add(1)),
		Password: "x",
		Role:     models.RoleUser,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// CreateTestPlace inserts a place with the given slug.
func CreateTestPlace(t testing.TB, conn *gorm.DB, slug string, isDefault bool) *models.Place {
	t.Helper()

	place := &models.Place{Name: "Place " + slug, Slug: slug, IsDefault: isDefault}
	if err := conn.Create(place).Error; err != nil {
		t.Fatalf("Failed to create place: %v", err)
	}
	return place
}

// CreateTestPost inserts a post with the given starting score.
func CreateTestPost(t testing.TB, conn *gorm.DB, author *models.User, place *models.Place, domain string, score int) *models.Post {
	t.Helper()

	post := &models.Post{
		UserID:  author.ID,
		PlaceID: place.ID,
		Title:   fmt.Sprintf("Post %d", seq.Add(1)),
		Domain:  domain,
		Content: "Some **markdown** body",
		Score:   score,
	}
	if err := conn.Create(post).Error; err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}
	return post
}

// Score reads the stored score of a post.
func Score(t testing.TB, conn *gorm.DB, postID uint) int {
	t.Helper()

	var post models.Post
	if err := conn.Select("score").First(&post, postID).Error; err != nil {
		t.Fatalf("Failed to read post %d: %v", postID, err)
	}
	return post.Score
}

// LedgerSum sums the stored vote values of a post.
func LedgerSum(t testing.TB, conn *gorm.DB, postID uint) int {
	t.Helper()

	var sum int
	if err := conn.Model(&models.Vote{}).
		Where("post_id = ?", postID).
		Select("COALESCE(SUM(value), 0)").
		Scan(&sum).Error; err != nil {
		t.Fatalf("Failed to sum votes of post %d: %v", postID, err)
	}
	return sum
}
