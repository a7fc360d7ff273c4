package handlers

import (
	"net/http"

	"agora/internal/api"
	"agora/internal/middleware"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// Vote casts, switches or withdraws the session user's vote.
// POST /api/vote {postId, direction}
func (h *VoteHandler) Vote(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		respondError(c, services.ErrUnauthorized)
		return
	}

	var req api.CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "postId and direction (up|down) are required")
		return
	}

	result, err := h.votes.CastVote(c.Request.Context(), user, req.PostID, req.Direction)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.CastVoteResponse{
		UserVote:   result.UserVote,
		ScoreDelta: result.ScoreDelta,
	})
}

// State returns the score and the viewer's vote for one post.
// GET /api/posts/:id/vote
func (h *VoteHandler) State(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	state, err := h.votes.GetVoteState(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
