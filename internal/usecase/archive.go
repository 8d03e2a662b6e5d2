package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/cauldronio/poolsched/internal/domain"
	"github.com/cauldronio/poolsched/internal/repository"
)

// ArchiveUsecase serves the read-only administrative listing of
// completed work.
type ArchiveUsecase struct {
	repo repository.IntentionRepository
}

func NewArchiveUsecase(repo repository.IntentionRepository) *ArchiveUsecase {
	return &ArchiveUsecase{repo: repo}
}

type ListArchivedInput struct {
	UserID string
	Cursor string
	Limit  int
}

type ListArchivedResult struct {
	Intentions []*domain.ArchivedIntention
	NextCursor *string
}

type archiveCursor struct {
	CompletedAt string `json:"c"`
	ID          string `json:"i"`
}

func decodeArchiveCursor(s string) (*string, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}
	var c archiveCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, "", fmt.Errorf("unmarshal cursor: %w", err)
	}
	return &c.CompletedAt, c.ID, nil
}

func encodeArchiveCursor(completedAt, id string) string {
	b, _ := json.Marshal(archiveCursor{CompletedAt: completedAt, ID: id})
	return base64.RawURLEncoding.EncodeToString(b)
}

func (u *ArchiveUsecase) ListArchived(ctx context.Context, input ListArchivedInput) (ListArchivedResult, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	repoInput := repository.ListArchivedInput{
		UserID: input.UserID,
		Limit:  limit + 1,
	}
	if input.Cursor != "" {
		cursorTime, cursorID, err := decodeArchiveCursor(input.Cursor)
		if err != nil {
			return ListArchivedResult{}, fmt.Errorf("invalid cursor: %w", err)
		}
		repoInput.CursorTime = cursorTime
		repoInput.CursorID = cursorID
	}

	items, err := u.repo.ListArchived(ctx, repoInput)
	if err != nil {
		return ListArchivedResult{}, fmt.Errorf("list archived intentions: %w", err)
	}

	var nextCursor *string
	if len(items) == limit+1 {
		last := items[limit-1]
		c := encodeArchiveCursor(last.CompletedAt.Format(archiveCursorTimeLayout), last.ID)
		nextCursor = &c
		items = items[:limit]
	}

	return ListArchivedResult{Intentions: items, NextCursor: nextCursor}, nil
}

const archiveCursorTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
