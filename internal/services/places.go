package services

import (
	"context"
	"time"

	"agora/internal/models"
	"agora/internal/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PlaceDirectory resolves place slugs, caching hits for a short while.
type PlaceDirectory struct {
	db    *gorm.DB
	cache *utils.TTLCache[string, models.Place]
}

func NewPlaceDirectory(conn *gorm.DB, ttl time.Duration) *PlaceDirectory {
	return &PlaceDirectory{
		db:    conn,
		cache: utils.NewTTLCache[string, models.Place](200, ttl),
	}
}

func (d *PlaceDirectory) BySlug(ctx context.Context, slug string) (models.Place, error) {
	if place, ok := d.cache.Get(slug); ok {
		return place, nil
	}

	var place models.Place
	if err := d.db.WithContext(ctx).Where("slug = ?", slug).First(&place).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Place{}, ErrPlaceNotFound
		}
		return models.Place{}, errors.Wrap(err, "find place")
	}
	d.cache.Set(slug, place)
	return place, nil
}

// All lists places by name.
func (d *PlaceDirectory) All(ctx context.Context) ([]models.Place, error) {
	var places []models.Place
	if err := d.db.WithContext(ctx).Order("name ASC").Find(&places).Error; err != nil {
		return nil, errors.Wrap(err, "list places")
	}
	return places, nil
}
