package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Monark-Arkmon/FitCheck/models"
	"github.com/Monark-Arkmon/FitCheck/utils"
)

// NotificationController lets users read and acknowledge their notifications.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a NotificationController.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// List returns the caller's notifications, newest first.
func (n *NotificationController) List(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40130, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var items []models.Notification
	var total int64
	q := n.db.Where("user_id = ?", userID).Order("created_at DESC")
	if err := q.Model(&models.Notification{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to count notifications")
		return
	}
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to list notifications")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      items,
		"pagination": paginationMeta(page, pageSize, total),
	})
}

// UnreadCount returns the caller's unread notification count.
func (n *NotificationController) UnreadCount(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40131, "unauthorized")
		return
	}

	var count int64
	if err := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to count unread notifications")
		return
	}
	utils.Success(ctx, gin.H{"unread": count})
}

// MarkRead marks a single notification as read. Only the owner may do so.
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40132, "unauthorized")
		return
	}
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		utils.Error(ctx, http.StatusBadRequest, 40080, "missing notification id")
		return
	}

	now := time.Now()
	res := n.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50083, "failed to mark notification read")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40480, "notification not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "marked read"})
}

// MarkAllRead marks every unread notification of the caller as read.
func (n *NotificationController) MarkAllRead(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40133, "unauthorized")
		return
	}

	now := time.Now()
	res := n.db.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": &now})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50084, "failed to mark notifications read")
		return
	}
	utils.Success(ctx, gin.H{"updated": res.RowsAffected})
}
