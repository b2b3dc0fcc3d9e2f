package handler

import (
	"net/http"

	"github.com/blues/ims/internal/cache"
	"github.com/blues/ims/internal/event"
	"github.com/blues/ims/internal/identity"
	"github.com/blues/ims/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationHandler struct {
	validationLogic *logic.ValidationLogic
	events          *event.Dispatcher
}

func NewValidationHandler(db *gorm.DB, cacheClient *cache.Client, events *event.Dispatcher) *ValidationHandler {
	return &ValidationHandler{
		validationLogic: logic.NewValidationLogic(db, cacheClient),
		events:          events,
	}
}

// AddValidation 添加支持背书
func (h *ValidationHandler) AddValidation(c *gin.Context) {
	campaignID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	userID, ok := identity.CurrentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未登录")
		return
	}
	mode, _ := identity.CurrentMode(c)

	validation, err := h.validationLogic.AddValidation(c.Request.Context(), campaignID, userID, mode)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(campaignID, event.TypeValidationAdded, map[string]interface{}{
		"user_id": userID,
	})

	SuccessResponse(c, http.StatusCreated, "支持成功", validation)
}

// RemoveValidation 移除支持背书，幂等
func (h *ValidationHandler) RemoveValidation(c *gin.Context) {
	campaignID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	userID, ok := identity.CurrentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未登录")
		return
	}

	if err := h.validationLogic.RemoveValidation(c.Request.Context(), campaignID, userID); err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(campaignID, event.TypeValidationRemoved, map[string]interface{}{
		"user_id": userID,
	})

	SuccessResponse(c, http.StatusOK, "已取消支持", nil)
}

// CountValidations 获取项目背书数量
func (h *ValidationHandler) CountValidations(c *gin.Context) {
	campaignID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	count, err := h.validationLogic.CountValidations(c.Request.Context(), campaignID)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
