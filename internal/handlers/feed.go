package handlers

import (
	"context"
	"net/http"

	"agora/internal/api"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feeds *services.FeedService
}

func NewFeedHandler(feeds *services.FeedService) *FeedHandler {
	return &FeedHandler{feeds: feeds}
}

type feedFunc func(ctx context.Context, viewer *models.User) ([]api.Post, error)

func (h *FeedHandler) serve(c *gin.Context, load feedFunc) {
	posts, err := load(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if posts == nil {
		posts = []api.Post{}
	}
	c.JSON(http.StatusOK, posts)
}

// List 全站帖子，?sort=top 按热度排序
func (h *FeedHandler) List(c *gin.Context) {
	if c.Query("sort") == "top" {
		h.serve(c, h.feeds.Top)
		return
	}
	h.serve(c, h.feeds.Latest)
}

// ByPlace GET /api/places/:slug/posts
func (h *FeedHandler) ByPlace(c *gin.Context) {
	slug := c.Param("slug")
	h.serve(c, func(ctx context.Context, viewer *models.User) ([]api.Post, error) {
		return h.feeds.ByPlace(ctx, slug, viewer)
	})
}

// ByDomain GET /api/domains/:domain/posts
func (h *FeedHandler) ByDomain(c *gin.Context) {
	domain := c.Param("domain")
	h.serve(c, func(ctx context.Context, viewer *models.User) ([]api.Post, error) {
		return h.feeds.ByDomain(ctx, domain, viewer)
	})
}

func (h *FeedHandler) Home(c *gin.Context) {
	h.serve(c, h.feeds.Home)
}

func (h *FeedHandler) Mine(c *gin.Context) {
	h.serve(c, h.feeds.Mine)
}

// Detail GET /api/posts/:id
func (h *FeedHandler) Detail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	post, err := h.feeds.Post(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}
