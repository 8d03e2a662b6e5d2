package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/usecase"
	"github.com/gin-gonic/gin"
)

// ScheduleHandler exposes creation of periodic/future intentions.
// Claiming and materializing a due row is the dispatcher's job, not an
// HTTP concern.
type ScheduleHandler struct {
	uc     *usecase.ScheduledIntentionUsecase
	logger *slog.Logger
}

func NewScheduleHandler(uc *usecase.ScheduledIntentionUsecase, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{uc: uc, logger: logger.With("component", "schedule_handler")}
}

type createScheduledIntentionRequest struct {
	IntentionKind string            `json:"intention_kind" binding:"required"`
	Kwargs        map[string]string `json:"kwargs"`
	ScheduledAt   time.Time         `json:"scheduled_at"   binding:"required"`
	DependsOn     *string           `json:"depends_on"`
	RepeatHours   *int              `json:"repeat_hours"   binding:"omitempty,min=1"`
	CronExpr      *string           `json:"cron_expr"`
}

type scheduledIntentionResponse struct {
	ID            string    `json:"id"`
	IntentionKind string    `json:"intention_kind"`
	ScheduledAt   time.Time `json:"scheduled_at,omitempty"`
}

func (h *ScheduleHandler) Create(ctx *gin.Context) {
	var req createScheduledIntentionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.Create(ctx.Request.Context(), usecase.CreateScheduledIntentionInput{
		IntentionKind: domain.IntentionKind(req.IntentionKind),
		Kwargs:        req.Kwargs,
		UserID:        ctx.GetString("userID"),
		ScheduledAt:   req.ScheduledAt,
		DependsOn:     req.DependsOn,
		RepeatHours:   req.RepeatHours,
		CronExpr:      req.CronExpr,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCronExpr):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCronExpr})
		case errors.Is(err, domain.ErrUnknownIntentionKind):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errUnknownKind})
		default:
			h.logger.ErrorContext(ctx.Request.Context(), "create scheduled intention", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	resp := scheduledIntentionResponse{ID: s.ID, IntentionKind: string(s.IntentionKind)}
	if s.ScheduledAt != nil {
		resp.ScheduledAt = *s.ScheduledAt
	}
	ctx.JSON(http.StatusCreated, resp)
}
