package handlers

import (
	"net/http"

	"agora/internal/api"
	"agora/internal/middleware"
	"agora/internal/services"
	"agora/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// respondError maps service errors onto status codes. Anything unknown is a 500
// and gets logged with the request id.
func respondError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, services.ErrUnauthorized):
		code, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrPostNotFound), errors.Is(err, services.ErrPlaceNotFound):
		code, message = http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrInvalidDirection):
		code, message = http.StatusBadRequest, err.Error()
	default:
		log.Error().
			Stack().
			Err(err).
			Str(middleware.RequestIDKey, c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	c.AbortWithStatusJSON(code, api.ErrorResponse{Error: message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: message})
}

// postID 解析路由中的 :id
func postID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid post id")
	}
	return id, ok
}
