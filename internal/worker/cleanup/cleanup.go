// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れセッションと、保持期間（デフォルト365日）を超過した
// 掲載記事を日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/atelier/internal/repository"
)

// CleanupJob は期限切れセッションと古い掲載記事の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessionRepo   repository.SessionRepository
	mentionRepo   repository.PressMentionRepository
	logger        *slog.Logger
	RetentionDays int // 掲載記事の保持日数（デフォルト: 365）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は365日。
func NewCleanupJob(
	sessionRepo repository.SessionRepository,
	mentionRepo repository.PressMentionRepository,
	logger *slog.Logger,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo:   sessionRepo,
		mentionRepo:   mentionRepo,
		logger:        logger,
		RetentionDays: 365,
	}
}

// Run は期限切れセッションと保持期間超過の掲載記事を削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	expiredSessions, err := j.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	deletedMentions, err := j.mentionRepo.DeleteOlderThan(ctx, j.RetentionDays)
	if err != nil {
		j.logger.Error("掲載記事クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("掲載記事クリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", expiredSessions),
		slog.Int64("deleted_mentions", deletedMentions),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
