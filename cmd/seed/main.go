package main

import (
	"context"
	"fmt"
	"time"

	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/logger"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/services"
	"agora/internal/utils"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const seedPassword = "$Password1!"

type seedUser struct {
	Email string
	Name  string
	Role  string
}

var seedUsers = []seedUser{
	{Email: "globaladmin@example.com", Name: "Global Admin", Role: models.RoleGlobalAdmin},
	{Email: "admin1@example.com", Name: "Admin One", Role: models.RoleAdmin},
	{Email: "admin2@example.com", Name: "Admin Two", Role: models.RoleAdmin},
	{Email: "user1@example.com", Name: "User One", Role: models.RoleUser},
	{Email: "user2@example.com", Name: "User Two", Role: models.RoleUser},
	{Email: "user3@example.com", Name: "User Three", Role: models.RoleUser},
}

var demoPosts = []struct {
	Place, Title, URL, Domain, Content string
}{
	{"technology", "Go 1.25 release notes", "https://go.dev/doc/go1.25", "go.dev", ""},
	{"general", "Welcome to agora", "", "self.general", "Say **hello** and vote on what you like."},
	{"show", "I built a tiny vote ledger", "https://github.com/", "github.com", "Feedback welcome."},
}

func main() {
	cfg := config.Load()
	logger.Configure(cfg.LogLevel, "")

	conn := db.Init(cfg.DatabaseURL)
	ctx := context.Background()
	places := services.NewPlaceDirectory(conn, time.Minute)
	subscriptions := services.NewSubscriptionService(conn, places)

	log.Info().Msg("Seeding database...")

	hash, err := utils.HashPassword(seedPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash seed password")
	}

	var created []models.User
	for _, su := range seedUsers {
		var existing models.User
		err := conn.Where("email = ?", su.Email).First(&existing).Error
		if err == nil {
			event := log.Info()
			if !utils.CheckPasswordHash(seedPassword, existing.Password) {
				// 密码已被修改，种子密码不再可用
				event = log.Warn().Bool("seed_password", false)
			}
			event.Str("email", su.Email).Msg("User already exists, skipping")
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatal().Err(err).Str("email", su.Email).Msg("Failed to look up user")
		}

		user := models.User{Name: su.Name, Email: su.Email, Password: hash, Role: su.Role}
		if err := conn.Create(&user).Error; err != nil {
			log.Error().Err(err).Str("email", su.Email).Msg("Failed to create user")
			continue
		}
		created = append(created, user)
		log.Info().Str("role", user.Role).Bool("admin", user.IsAdmin()).Str("email", su.Email).Msg("Created user")

		// 默认订阅失败不影响用户创建
		if n, err := subscriptions.SubscribeToDefaults(ctx, user.ID); err != nil {
			log.Error().Err(err).Uint("user_id", user.ID).Msg("Failed to subscribe user to default places")
		} else {
			log.Debug().Int("places", n).Uint("user_id", user.ID).Msg("Subscribed to default places")
		}
	}

	if len(created) > 0 {
		if err := seedPosts(ctx, conn, places, created[0]); err != nil {
			log.Error().Err(err).Msg("Failed to create demo posts")
		}
	}

	for _, user := range created {
		cookie, err := middleware.SessionCookie(cfg.SessionSecret, cfg.SessionName, user.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to encode session cookie")
			continue
		}
		fmt.Printf("%s\tAGORA_SESSION=%s\n", user.Email, cookie)
	}
	log.Info().Msg("Seeding complete!")
}

func seedPosts(ctx context.Context, conn *gorm.DB, places *services.PlaceDirectory, author models.User) error {
	for _, p := range demoPosts {
		place, err := places.BySlug(ctx, p.Place)
		if err != nil {
			return err
		}
		post := models.Post{
			UserID:  author.ID,
			PlaceID: place.ID,
			Title:   p.Title,
			URL:     p.URL,
			Domain:  p.Domain,
			Content: p.Content,
		}
		if err := conn.WithContext(ctx).Create(&post).Error; err != nil {
			return errors.Wrapf(err, "create post %q", p.Title)
		}
	}
	return nil
}
