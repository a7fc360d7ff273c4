package middleware

import (
	"net/http"

	"agora/internal/api"
	"agora/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	CheckUserKey = "user"
	// SessionUserKey is the session value written by whoever issues the session.
	SessionUserKey = "user_id"
)

// AuthRequired rejects requests without a verified session.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized: must be logged in"})
			return
		}
		c.Next()
	}
}

// LoadUser retrieves user from session and sets to context
func LoadUser(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(SessionUserKey)

		if userID != nil {
			var user models.User
			err := conn.WithContext(c.Request.Context()).First(&user, userID).Error
			switch {
			case err == nil:
				c.Set(CheckUserKey, &user)
			case errors.Is(err, gorm.ErrRecordNotFound):
				// 用户已被删除，会话作废
				log.Debug().Interface("user_id", userID).Msg("Session user no longer exists")
			default:
				log.Error().Err(err).Msg("Failed to load session user")
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user loaded by LoadUser, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CheckUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// SessionCookie encodes a session cookie value for userID the same way the
// cookie store does. Used by the seed command and tests.
func SessionCookie(secret, name string, userID uint) (string, error) {
	values := map[interface{}]interface{}{SessionUserKey: userID}
	return securecookie.EncodeMulti(name, values, securecookie.CodecsFromPairs([]byte(secret))...)
}
