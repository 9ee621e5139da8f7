package press

import (
	"context"
	"fmt"

	"github.com/hitoshi/atelier/internal/model"
	"github.com/hitoshi/atelier/internal/repository"
)

const (
	// defaultListLimit は掲載記事一覧のデフォルト件数。
	defaultListLimit = 20
	// maxListLimit は掲載記事一覧の最大件数。
	maxListLimit = 100
)

// Service は掲載記事の読み取りサービス。
type Service struct {
	mentionRepo repository.PressMentionRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(mentionRepo repository.PressMentionRepository) *Service {
	return &Service{mentionRepo: mentionRepo}
}

// ListRecent は掲載記事をpublished_at降順で取得する。
// limitが0以下の場合はデフォルト件数、最大件数を超える場合は最大件数に丸める。
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*model.PressMention, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	mentions, err := s.mentionRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("掲載記事一覧の取得に失敗: %w", err)
	}
	return mentions, nil
}
