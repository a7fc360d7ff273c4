package handlers

import (
	"net/http"

	"agora/internal/api"
	"agora/internal/middleware"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type PlaceHandler struct {
	places        *services.PlaceDirectory
	subscriptions *services.SubscriptionService
}

func NewPlaceHandler(places *services.PlaceDirectory, subscriptions *services.SubscriptionService) *PlaceHandler {
	return &PlaceHandler{places: places, subscriptions: subscriptions}
}

// ListPlaces 所有社区列表
func (h *PlaceHandler) ListPlaces(c *gin.Context) {
	places, err := h.places.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]api.Place, 0, len(places))
	for _, p := range places {
		out = append(out, api.Place{
			ID:          p.ID,
			Name:        p.Name,
			Slug:        p.Slug,
			Description: p.Description,
			IsDefault:   p.IsDefault,
		})
	}
	c.JSON(http.StatusOK, out)
}

// ToggleSubscription POST /api/places/:slug/subscription
func (h *PlaceHandler) ToggleSubscription(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, services.ErrUnauthorized)
		return
	}
	slug := c.Param("slug")
	subscribed, err := h.subscriptions.Toggle(c.Request.Context(), user.ID, slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.SubscriptionState{Subscribed: subscribed})
}

// SubscribeDefaults POST /api/me/default-subscriptions
func (h *PlaceHandler) SubscribeDefaults(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, services.ErrUnauthorized)
		return
	}
	created, err := h.subscriptions.SubscribeToDefaults(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.DefaultSubscriptions{Subscribed: created})
}
