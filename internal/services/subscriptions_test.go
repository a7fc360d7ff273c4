package services

import (
	"context"
	"testing"
	"time"

	"agora/internal/models"
	"agora/internal/testutil"

	"github.com/pkg/errors"
)

func TestSubscribeToDefaultsIsIdempotent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, conn, "newbie")
	testutil.CreateTestPlace(t, conn, "general", true)
	testutil.CreateTestPlace(t, conn, "technology", true)
	testutil.CreateTestPlace(t, conn, "meta", false)

	subs := NewSubscriptionService(conn, NewPlaceDirectory(conn, time.Minute))

	n, err := subs.SubscribeToDefaults(ctx, user.ID)
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 new subscriptions, got %d, %v", n, err)
	}
	n, err = subs.SubscribeToDefaults(ctx, user.ID)
	if err != nil || n != 0 {
		t.Errorf("Expected no new subscriptions on second run, got %d, %v", n, err)
	}

	var count int64
	conn.Model(&models.Subscription{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 2 {
		t.Errorf("Expected 2 stored subscriptions, got %d", count)
	}
}

func TestToggleSubscription(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	user := testutil.CreateTestUser(t, conn, "reader")
	testutil.CreateTestPlace(t, conn, "meta", false)

	subs := NewSubscriptionService(conn, NewPlaceDirectory(conn, time.Minute))

	on, err := subs.Toggle(ctx, user.ID, "meta")
	if err != nil || !on {
		t.Fatalf("Expected subscribed, got %v, %v", on, err)
	}
	on, err = subs.Toggle(ctx, user.ID, "meta")
	if err != nil || on {
		t.Fatalf("Expected unsubscribed, got %v, %v", on, err)
	}

	if _, err := subs.Toggle(ctx, user.ID, "nope"); !errors.Is(err, ErrPlaceNotFound) {
		t.Errorf("Expected ErrPlaceNotFound, got %v", err)
	}
}
