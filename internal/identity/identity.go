package identity

import (
	"errors"
	"net/http"
	"strings"

	"github.com/blues/ims/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	contextUserIDKey = "identity.user_id"
	contextModeKey   = "identity.mode"
)

// Claims 访问令牌声明，令牌由外部身份系统签发
type Claims struct {
	UserID string `json:"user_id"`
	Mode   string `json:"mode"`
	jwt.RegisteredClaims
}

// Middleware 解析Bearer令牌并解析调用者的参与模式
// 参与模式以用户档案为准，档案缺失时回退到令牌声明
func Middleware(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少访问令牌"})
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无效的访问令牌"})
			return
		}

		mode := resolveMode(db, claims)
		if !mode.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "无法确定参与模式"})
			return
		}

		c.Set(contextUserIDKey, claims.UserID)
		c.Set(contextModeKey, mode)
		c.Next()
	}
}

// resolveMode 从用户档案读取参与模式
func resolveMode(db *gorm.DB, claims *Claims) model.ContributionMode {
	var profile model.UserProfile
	err := db.Where("user_id = ?", claims.UserID).First(&profile).Error
	if err == nil && profile.ContributionMode.IsValid() {
		return profile.ContributionMode
	}
	return model.ContributionMode(claims.Mode)
}

// CurrentUserID 获取当前调用者ID
func CurrentUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// CurrentMode 获取当前调用者的参与模式
func CurrentMode(c *gin.Context) (model.ContributionMode, bool) {
	v, ok := c.Get(contextModeKey)
	if !ok {
		return "", false
	}
	mode, ok := v.(model.ContributionMode)
	return mode, ok
}
