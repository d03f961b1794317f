package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"gorm.io/gorm"

	"github.com/Monark-Arkmon/FitCheck/config"
	"github.com/Monark-Arkmon/FitCheck/models"
	"github.com/Monark-Arkmon/FitCheck/services"
	"github.com/Monark-Arkmon/FitCheck/utils"
)

const coachSystemPrompt = "You are a supportive fitness coach inside a social workout tracking app. " +
	"Give short, practical advice about training, recovery and consistency. " +
	"Encourage the user to keep their daily check-in streak alive without being pushy. " +
	"Never give medical diagnoses; suggest seeing a professional for pain or injuries."

// AIController proxies chat requests to an OpenAI-compatible endpoint so the
// API key never reaches clients.
type AIController struct {
	db         *gorm.DB
	client     openai.Client
	model      string
	configured bool
}

// NewAIController creates an AIController. When no API key is configured the
// endpoint reports unavailable instead of failing at boot.
func NewAIController(db *gorm.DB, cfg config.AppConfig) *AIController {
	a := &AIController{db: db, model: cfg.AIModel}
	if cfg.AIAPIKey == "" {
		return a
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.AIAPIKey)}
	if cfg.AIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.AIBaseURL))
	}
	a.client = openai.NewClient(opts...)
	a.configured = true
	return a
}

// Chat forwards a short conversation to the coach model. The caller's streak
// stats are injected so replies can reference their actual consistency.
func (a *AIController) Chat(ctx *gin.Context) {
	if !a.configured {
		utils.Error(ctx, http.StatusServiceUnavailable, 50390, "ai coach is not configured")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40140, "unauthorized")
		return
	}

	var req struct {
		Messages []struct {
			Role    string `json:"role" binding:"required"`
			Content string `json:"content" binding:"required"`
		} `json:"messages" binding:"required,min=1,max=20"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40090, "invalid request payload")
		return
	}

	system := coachSystemPrompt
	var user models.User
	if err := a.db.First(&user, userID).Error; err == nil {
		today := services.DateOf(time.Now())
		effective := services.EffectiveStreak(user.Streak, user.LastCheckInDate, today)
		system += fmt.Sprintf(
			" The user's current streak is %d days with %d total workouts logged.",
			effective, user.TotalWorkouts,
		)
	}

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(system)}
	for _, m := range req.Messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		switch strings.ToLower(m.Role) {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(content))
		default:
			messages = append(messages, openai.UserMessage(content))
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 60*time.Second)
	defer cancel()

	completion, err := a.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model:    a.model,
		Messages: messages,
	})
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("ai chat request failed user=%d err=%v", userID, err)
		}
		utils.Error(ctx, http.StatusBadGateway, 50290, "ai coach is temporarily unavailable")
		return
	}
	if len(completion.Choices) == 0 {
		utils.Error(ctx, http.StatusBadGateway, 50291, "ai coach returned no reply")
		return
	}

	utils.Success(ctx, gin.H{"reply": completion.Choices[0].Message.Content})
}
