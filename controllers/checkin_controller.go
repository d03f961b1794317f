package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Monark-Arkmon/FitCheck/config"
	"github.com/Monark-Arkmon/FitCheck/middleware"
	"github.com/Monark-Arkmon/FitCheck/models"
	"github.com/Monark-Arkmon/FitCheck/services"
	"github.com/Monark-Arkmon/FitCheck/utils"
)

// CheckInController exposes the check-in and streak endpoints. All streak
// decisions run through the service layer; handlers only translate HTTP.
type CheckInController struct {
	db  *gorm.DB
	svc *services.CheckInService
}

// NewCheckInController creates a CheckInController.
func NewCheckInController(db *gorm.DB, svc *services.CheckInService) *CheckInController {
	return &CheckInController{db: db, svc: svc}
}

// CreateCheckIn records a daily check-in and returns the updated streak.
func (c *CheckInController) CreateCheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		ActivityType string   `json:"activity_type"`
		Note         string   `json:"note"`
		Tags         []string `json:"tags"`
		PhotoURL     string   `json:"photo_url"`
		Visibility   string   `json:"visibility"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	outcome, err := c.svc.Create(userID, services.CheckInPayload{
		ActivityType: req.ActivityType,
		Note:         req.Note,
		Tags:         req.Tags,
		PhotoURL:     req.PhotoURL,
		Visibility:   req.Visibility,
	})
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":checkins:")
	utils.InvalidateByPrefix("cache:user:public:" + strconv.Itoa(int(userID)))

	utils.Success(ctx, gin.H{
		"check_in":      outcome.CheckIn,
		"streak":        outcome.Streak,
		"stats_updated": outcome.StatsUpdated,
	})
}

// DeleteCheckIn removes a check-in owned by the caller and recomputes the
// streak when a counted day disappears.
func (c *CheckInController) DeleteCheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid check-in id")
		return
	}

	if err := c.svc.Delete(uint(id), userID); err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":checkins:")
	utils.InvalidateByPrefix("cache:user:public:" + strconv.Itoa(int(userID)))

	utils.Success(ctx, gin.H{"message": "check-in deleted"})
}

// ListMyCheckIns returns the caller's check-ins, private ones included.
func (c *CheckInController) ListMyCheckIns(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var items []models.CheckIn
	var total int64
	q := c.db.Where("user_id = ?", userID).Order("created_at DESC")
	if err := q.Model(&models.CheckIn{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to count check-ins")
		return
	}
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to list check-ins")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      items,
		"pagination": paginationMeta(page, pageSize, total),
	})
}

// ListUserCheckIns returns another user's public check-ins.
func (c *CheckInController) ListUserCheckIns(ctx *gin.Context) {
	targetID := strings.TrimSpace(ctx.Param("id"))
	if targetID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40060, "missing user id")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:user:%s:checkins:page=%d:size=%d", targetID, page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var items []models.CheckIn
	var total int64
	q := c.db.Where("user_id = ? AND visibility = ?", targetID, models.VisibilityPublic).Order("created_at DESC")
	if err := q.Model(&models.CheckIn{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to count check-ins")
		return
	}
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to list check-ins")
		return
	}

	payload := gin.H{
		"items":      items,
		"pagination": paginationMeta(page, pageSize, total),
	}
	wrapper := struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	utils.Success(ctx, payload)
}

// StreakStatus reports the caller's effective streak as of today. A streak
// whose last counted day is older than yesterday reads as 0 even before any
// write happens.
func (c *CheckInController) StreakStatus(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	var user models.User
	if err := c.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	today := services.DateOf(time.Now())
	effective := services.EffectiveStreak(user.Streak, user.LastCheckInDate, today)

	utils.Success(ctx, gin.H{
		"streak":             effective,
		"at_risk":            services.StreakAtRisk(user.Streak, user.LastCheckInDate, today),
		"checked_in_today":   user.LastCheckInDate == today,
		"last_check_in_date": user.LastCheckInDate,
		"total_check_ins":    user.TotalCheckIns,
		"total_workouts":     user.TotalWorkouts,
	})
}

// UploadPhoto stores a check-in photo and returns its public URL.
func (c *CheckInController) UploadPhoto(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	cfg := config.Get()
	maxSize := int64(cfg.MaxUploadMB) * 1024 * 1024
	if header.Size > 0 && header.Size > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, fmt.Sprintf("file size exceeds %dMB", cfg.MaxUploadMB))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		utils.Error(ctx, http.StatusBadRequest, 40033, "unsupported image type")
		return
	}

	now := time.Now()
	baseDir := filepath.Join(cfg.UploadDir, now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to create upload directory")
		return
	}

	name := fmt.Sprintf("%d_%s%s", userID, uuid.NewString(), ext)
	dstPath := filepath.Join(baseDir, name)

	out, err := os.Create(dstPath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save file")
		return
	}
	defer out.Close()

	lr := &io.LimitedReader{R: file, N: maxSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil || written > maxSize {
		_ = out.Close()
		_ = os.Remove(dstPath)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to write file")
		} else {
			utils.Error(ctx, http.StatusBadRequest, 40032, fmt.Sprintf("file size exceeds %dMB", cfg.MaxUploadMB))
		}
		return
	}

	relURL := fmt.Sprintf("/uploads/%s/%s/%s", now.Format("2006"), now.Format("01"), name)
	utils.Success(ctx, gin.H{"url": relURL})
}

// respondServiceError maps service sentinel errors onto the uniform envelope.
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		utils.Error(ctx, http.StatusBadRequest, 40040, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40440, "check-in not found")
	case errors.Is(err, services.ErrPermissionDenied):
		utils.Error(ctx, http.StatusForbidden, 40340, "you can only modify your own check-ins")
	case errors.Is(err, services.ErrUnavailable):
		utils.Error(ctx, http.StatusServiceUnavailable, 50340, "storage temporarily unavailable")
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50044, "internal error")
	}
}

func paginationMeta(page, pageSize int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func isAdmin(ctx *gin.Context) bool {
	unameVal, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	uname, _ := unameVal.(string)
	return isAdminUsername(uname)
}
