package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/usecase"
	"github.com/gin-gonic/gin"
)

// ArchiveHandler serves the read-only administrative listing of
// completed work.
type ArchiveHandler struct {
	uc     *usecase.ArchiveUsecase
	logger *slog.Logger
}

func NewArchiveHandler(uc *usecase.ArchiveUsecase, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{uc: uc, logger: logger.With("component", "archive_handler")}
}

type archivedIntentionItem struct {
	ID          string               `json:"id"`
	Kind        domain.IntentionKind `json:"kind"`
	RepoID      string               `json:"repo_id"`
	CreatedAt   time.Time            `json:"created_at"`
	CompletedAt time.Time            `json:"completed_at"`
	Status      domain.ArchiveStatus `json:"status"`
}

func (h *ArchiveHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	result, err := h.uc.ListArchived(ctx.Request.Context(), usecase.ListArchivedInput{
		UserID: ctx.GetString("userID"),
		Cursor: ctx.Query("cursor"),
		Limit:  limit,
	})
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "list archived intentions", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]archivedIntentionItem, len(result.Intentions))
	for i, a := range result.Intentions {
		items[i] = archivedIntentionItem{
			ID:          a.ID,
			Kind:        a.Kind,
			RepoID:      a.RepoID,
			CreatedAt:   a.CreatedAt,
			CompletedAt: a.CompletedAt,
			Status:      a.Status,
		}
	}
	ctx.JSON(http.StatusOK, gin.H{
		"intentions":  items,
		"next_cursor": result.NextCursor,
	})
}
