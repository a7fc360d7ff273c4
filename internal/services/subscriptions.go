package services

import (
	"context"

	"agora/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type SubscriptionService struct {
	db     *gorm.DB
	places *PlaceDirectory
}

func NewSubscriptionService(conn *gorm.DB, places *PlaceDirectory) *SubscriptionService {
	return &SubscriptionService{db: conn, places: places}
}

// SubscribeToDefaults subscribes the user to every default place it is not
// subscribed to yet and returns how many subscriptions were created.
func (s *SubscriptionService) SubscribeToDefaults(ctx context.Context, userID uint) (int, error) {
	var defaults []uint
	if err := s.db.WithContext(ctx).
		Model(&models.Place{}).
		Where("is_default = ?", true).
		Pluck("id", &defaults).Error; err != nil {
		return 0, errors.Wrap(err, "load default places")
	}
	if len(defaults) == 0 {
		return 0, nil
	}

	var existing []uint
	if err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND place_id IN ?", userID, defaults).
		Pluck("place_id", &existing).Error; err != nil {
		return 0, errors.Wrap(err, "load existing subscriptions")
	}
	have := make(map[uint]bool, len(existing))
	for _, id := range existing {
		have[id] = true
	}

	var subs []models.Subscription
	for _, placeID := range defaults {
		if !have[placeID] {
			subs = append(subs, models.Subscription{UserID: userID, PlaceID: placeID})
		}
	}
	if len(subs) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).Create(&subs).Error; err != nil {
		return 0, errors.Wrap(err, "create subscriptions")
	}
	return len(subs), nil
}

// Toggle subscribes the user to the place, or unsubscribes if already subscribed.
func (s *SubscriptionService) Toggle(ctx context.Context, userID uint, slug string) (bool, error) {
	place, err := s.places.BySlug(ctx, slug)
	if err != nil {
		return false, err
	}

	subscribed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND place_id = ?", userID, place.ID).Delete(&models.Subscription{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete subscription")
		}
		if res.RowsAffected > 0 {
			return nil
		}
		subscribed = true
		return errors.Wrap(tx.Create(&models.Subscription{UserID: userID, PlaceID: place.ID}).Error, "create subscription")
	})
	if err != nil {
		return false, err
	}
	return subscribed, nil
}
