package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Monark-Arkmon/FitCheck/models"
	"github.com/Monark-Arkmon/FitCheck/services"
	"github.com/Monark-Arkmon/FitCheck/utils"
)

// SocialController serves the community feed and its interactions. The feed
// reads only from the denormalized feed_items projection; check-in rows are
// never joined here.
type SocialController struct {
	db       *gorm.DB
	notifier services.Notifier
}

// NewSocialController creates a SocialController.
func NewSocialController(db *gorm.DB, notifier services.Notifier) *SocialController {
	return &SocialController{db: db, notifier: notifier}
}

// ListFeed returns the paginated community feed, newest first.
func (s *SocialController) ListFeed(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:feed:page=%d:size=%d", page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var items []models.FeedItem
	var total int64
	q := s.db.Order("created_at DESC")
	if err := q.Model(&models.FeedItem{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to count feed items")
		return
	}
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to list feed")
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
	utils.CacheSetJSON(cacheKey, wrapper, 5*time.Minute)
	utils.Success(ctx, payload)
}

// ToggleLike likes a check-in, or removes the caller's like when one exists.
func (s *SocialController) ToggleLike(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	checkInID, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid check-in id")
		return
	}

	var checkIn models.CheckIn
	if err := s.db.First(&checkIn, checkInID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40450, "check-in not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to load check-in")
		return
	}
	if checkIn.Visibility != models.VisibilityPublic {
		utils.Error(ctx, http.StatusForbidden, 40350, "cannot like a private check-in")
		return
	}

	liked := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		findErr := tx.Where("user_id = ? AND check_in_id = ?", userID, checkIn.ID).First(&existing).Error
		switch {
		case findErr == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			return adjustLikeCount(tx, checkIn.ID, -1)
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Like{UserID: userID, CheckInID: checkIn.ID}).Error; err != nil {
				return err
			}
			liked = true
			return adjustLikeCount(tx, checkIn.ID, +1)
		default:
			return findErr
		}
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to toggle like")
		return
	}

	if liked {
		var actor models.User
		if err := s.db.First(&actor, userID).Error; err == nil {
			s.notifier.Liked(checkIn.UserID, actor, checkIn.ID)
		}
	}

	utils.InvalidateByPrefix("cache:feed:")

	var likes int64
	_ = s.db.Model(&models.Like{}).Where("check_in_id = ?", checkIn.ID).Count(&likes).Error
	utils.Success(ctx, gin.H{"liked": liked, "likes": likes})
}

func adjustLikeCount(tx *gorm.DB, checkInID uint, delta int) error {
	if err := tx.Model(&models.CheckIn{}).Where("id = ?", checkInID).
		Update("likes", gorm.Expr("likes + ?", delta)).Error; err != nil {
		return err
	}
	// Projection row may be absent for older records; counter drift there is
	// tolerable, the likes table stays authoritative.
	return tx.Model(&models.FeedItem{}).Where("check_in_id = ?", checkInID).
		Update("likes", gorm.Expr("likes + ?", delta)).Error
}

// ListComments returns comments on a check-in with author info attached.
func (s *SocialController) ListComments(ctx *gin.Context) {
	checkInID := strings.TrimSpace(ctx.Param("id"))
	if checkInID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40051, "missing check-in id")
		return
	}

	var comments []models.Comment
	if err := s.db.Where("check_in_id = ?", checkInID).Order("created_at ASC").Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to list comments")
		return
	}

	if len(comments) > 0 {
		var userIDs []uint
		for _, c := range comments {
			userIDs = append(userIDs, c.UserID)
		}
		userIDs = utils.UniqueUint(userIDs)

		var users []models.User
		if err := s.db.Find(&users, userIDs).Error; err == nil {
			userMap := make(map[uint]models.User, len(users))
			for _, u := range users {
				userMap[u.ID] = u
			}
			for i := range comments {
				if u, ok := userMap[comments[i].UserID]; ok {
					comments[i].User = u
				}
			}
		}
	}

	utils.Success(ctx, gin.H{"items": comments})
}

// CreateComment adds a comment to a public check-in.
func (s *SocialController) CreateComment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40121, "unauthorized")
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40052, "invalid request payload")
		return
	}
	content := utils.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40053, "content cannot be empty")
		return
	}

	checkInID := ctx.Param("id")
	var checkIn models.CheckIn
	if err := s.db.First(&checkIn, checkInID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40451, "check-in not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50055, "failed to load check-in")
		return
	}
	if checkIn.Visibility != models.VisibilityPublic && checkIn.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40351, "cannot comment on a private check-in")
		return
	}

	comment := models.Comment{
		CheckInID: checkIn.ID,
		UserID:    userID,
		Content:   content,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50056, "failed to create comment")
		return
	}

	_ = s.db.Model(&models.FeedItem{}).Where("check_in_id = ?", checkIn.ID).
		Update("comment_count", gorm.Expr("comment_count + 1")).Error

	var actor models.User
	if err := s.db.First(&actor, userID).Error; err == nil {
		comment.User = actor
		s.notifier.Commented(checkIn.UserID, actor, checkIn.ID, content)
	}

	utils.InvalidateByPrefix("cache:feed:")
	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment allows the comment owner or an admin to delete a comment.
func (s *SocialController) DeleteComment(ctx *gin.Context) {
	cid := strings.TrimSpace(ctx.Param("commentId"))
	if cid == "" {
		utils.Error(ctx, http.StatusBadRequest, 40070, "missing comment id")
		return
	}
	var cmt models.Comment
	if err := s.db.First(&cmt, cid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load comment")
		return
	}

	uid, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40122, "unauthorized")
		return
	}
	if cmt.UserID != uid && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40320, "you can only delete your own comment")
		return
	}
	if err := s.db.Delete(&cmt).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to delete comment")
		return
	}

	_ = s.db.Model(&models.FeedItem{}).Where("check_in_id = ? AND comment_count > 0", cmt.CheckInID).
		Update("comment_count", gorm.Expr("comment_count - 1")).Error

	utils.InvalidateByPrefix("cache:feed:")
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

// TrendingUsers lists users with the longest live streaks. Streaks are
// decayed on read, so users who lapsed since their last check-in sort out.
func (s *SocialController) TrendingUsers(ctx *gin.Context) {
	limit := 10
	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil && v > 0 && v <= 50 {
		limit = v
	}

	cacheKey := fmt.Sprintf("cache:trending:limit=%d", limit)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var users []models.User
	if err := s.db.Where("streak > 0").Order("streak DESC").Limit(limit * 2).Find(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50057, "failed to list trending users")
		return
	}

	today := services.DateOf(time.Now())
	items := make([]gin.H, 0, limit)
	for _, u := range users {
		effective := services.EffectiveStreak(u.Streak, u.LastCheckInDate, today)
		if effective == 0 {
			continue
		}
		items = append(items, gin.H{
			"id":           u.ID,
			"username":     u.Username,
			"display_name": u.DisplayName,
			"avatar_url":   u.AvatarURL,
			"streak":       effective,
		})
		if len(items) == limit {
			break
		}
	}

	payload := gin.H{"items": items}
	wrapper := struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}{Code: 0, Message: "success", Data: payload}
	utils.CacheSetJSON(cacheKey, wrapper, 10*time.Minute)
	utils.Success(ctx, payload)
}
