package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"curator/internal/models"
)

const (
	CheckUserKey  = "user"
	SessionUserID = "user_id"
)

// LoadUser retrieves user from session and sets to context
func LoadUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if userID := session.Get(SessionUserID); userID != nil {
			var user models.User
			if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err == nil {
				c.Set(CheckUserKey, &user)
			}
		}
		c.Next()
	}
}

// CurrentUser 返回已登录用户，未登录时为 nil
func CurrentUser(c *gin.Context) *models.User {
	if u, ok := c.Get(CheckUserKey); ok {
		if user, ok := u.(*models.User); ok {
			return user
		}
	}
	return nil
}

// AuthRequired ensures a user is logged in. API 请求返回 401，页面请求跳转登录页。
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}

		switch {
		case isAPI(c):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		case c.GetHeader("HX-Request") == "true":
			c.Header("HX-Redirect", "/login")
			c.AbortWithStatus(http.StatusUnauthorized)
		default:
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		}
	}
}

// AdminRequired 必须在 AuthRequired 之后使用
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := CurrentUser(c); user != nil && user.IsAdmin() {
			c.Next()
			return
		}
		if isAPI(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.AbortWithStatus(http.StatusForbidden)
	}
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}
