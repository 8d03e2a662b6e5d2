package handler

import (
	"log/slog"
	"net/http"

	"github.com/cauldronio/poolsched/internal/usecase"
	"github.com/gin-gonic/gin"
)

// IntentionHandler exposes the analyze_* endpoints: requesting analysis
// of a repository never runs anything itself, it only materializes the
// raw+enrich intention pair a dispatcher later admits.
type IntentionHandler struct {
	uc     *usecase.IntentionUsecase
	logger *slog.Logger
}

func NewIntentionHandler(uc *usecase.IntentionUsecase, logger *slog.Logger) *IntentionHandler {
	return &IntentionHandler{uc: uc, logger: logger.With("component", "intention_handler")}
}

type repoResponse struct {
	ID     string `json:"id"`
	Queued bool   `json:"queued"`
}

type analyzeGitRequest struct {
	URL string `json:"url" binding:"required,url,max=2048"`
}

func (h *IntentionHandler) AnalyzeGit(ctx *gin.Context) {
	var req analyzeGitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	repo, err := h.uc.AnalyzeGitRepo(ctx.Request.Context(), ctx.GetString("userID"), req.URL)
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "analyze git repo", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusAccepted, repoResponse{ID: repo.ID, Queued: true})
}

type analyzeInstanceRequest struct {
	Instance string `json:"instance" binding:"required,max=256"`
	Owner    string `json:"owner"    binding:"required,max=256"`
	Name     string `json:"name"     binding:"required,max=256"`
}

func (h *IntentionHandler) AnalyzeGitHub(ctx *gin.Context) {
	var req analyzeInstanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	repo, err := h.uc.AnalyzeGitHubRepo(ctx.Request.Context(), ctx.GetString("userID"), req.Instance, req.Owner, req.Name)
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "analyze github repo", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	if repo == nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": errTokenInvalid})
		return
	}

	ctx.JSON(http.StatusAccepted, repoResponse{ID: repo.ID, Queued: true})
}

func (h *IntentionHandler) AnalyzeGitLab(ctx *gin.Context) {
	var req analyzeInstanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	repo, err := h.uc.AnalyzeGitLabRepo(ctx.Request.Context(), ctx.GetString("userID"), req.Instance, req.Owner, req.Name)
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "analyze gitlab repo", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	if repo == nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": errTokenInvalid})
		return
	}

	ctx.JSON(http.StatusAccepted, repoResponse{ID: repo.ID, Queued: true})
}

type analyzeMeetupRequest struct {
	Group string `json:"group" binding:"required,max=256"`
}

func (h *IntentionHandler) AnalyzeMeetup(ctx *gin.Context) {
	var req analyzeMeetupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	repo, err := h.uc.AnalyzeMeetupRepo(ctx.Request.Context(), ctx.GetString("userID"), req.Group)
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "analyze meetup repo", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	if repo == nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": errTokenInvalid})
		return
	}

	ctx.JSON(http.StatusAccepted, repoResponse{ID: repo.ID, Queued: true})
}
