package press

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/atelier/internal/metrics"
	"github.com/hitoshi/atelier/internal/model"
	"github.com/hitoshi/atelier/internal/repository"
)

// ogImageLookupLimit は1ソースのフェッチあたりのog:image補完リクエスト上限。
// 画像のない掲載記事ごとに記事ページを取得するため、上限なしでは
// フェッチサイクルが外部サイトへのクロールに化けてしまう。
const ogImageLookupLimit = 5

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Sanitizer は掲載記事サマリーのHTMLサニタイズのインターフェース。
type Sanitizer interface {
	Sanitize(rawHTML string) string
}

// Fetcher は個別プレスソースのHTTPフェッチとパースを行う。
// ETag/Last-Modifiedを使用した条件付きGET、SSRF検証、
// gofeedによるパース、掲載記事の冪等なUPSERTを実行する。
type Fetcher struct {
	sourceRepo  repository.PressSourceRepository
	mentionRepo repository.PressMentionRepository
	sanitizer   Sanitizer
	ssrfGuard   SSRFValidator
	collector   metrics.MetricsCollector
	logger      *slog.Logger
	timeout     time.Duration
	maxBodySize int64
	interval    time.Duration
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(
	sourceRepo repository.PressSourceRepository,
	mentionRepo repository.PressMentionRepository,
	sanitizer Sanitizer,
	ssrfGuard SSRFValidator,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	timeout time.Duration,
	maxBodySize int64,
	interval time.Duration,
) *Fetcher {
	return &Fetcher{
		sourceRepo:  sourceRepo,
		mentionRepo: mentionRepo,
		sanitizer:   sanitizer,
		ssrfGuard:   ssrfGuard,
		collector:   collector,
		logger:      logger,
		timeout:     timeout,
		maxBodySize: maxBodySize,
		interval:    interval,
	}
}

// Fetch はプレスソースをフェッチし、結果に応じてソース状態を更新する。
// PressFetcherServiceインターフェースを実装する。
func (f *Fetcher) Fetch(ctx context.Context, source *model.PressSource) error {
	start := time.Now()

	// SSRF検証
	if err := f.ssrfGuard.ValidateURL(source.FeedURL); err != nil {
		f.logger.Error("SSRF検証に失敗しました",
			slog.String("source_id", source.ID),
			slog.String("feed_url", source.FeedURL),
			slog.String("error", err.Error()),
		)
		f.collector.RecordPressFetchFailure(source.ID, "ssrf")
		ApplyStopSource(source, fmt.Sprintf("SSRF検証失敗: %s", err.Error()))
		if updateErr := f.sourceRepo.UpdateFetchState(ctx, source); updateErr != nil {
			f.logger.Error("プレスソース状態の更新に失敗しました",
				slog.String("source_id", source.ID),
				slog.String("error", updateErr.Error()),
			)
		}
		return fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	// HTTPリクエスト構築
	client := f.ssrfGuard.NewSafeClient(f.timeout, f.maxBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.FeedURL, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成に失敗: %w", err)
	}

	req.Header.Set("User-Agent", "Atelier/1.0 Press Collector")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	// 条件付きGET: ETag
	if source.ETag != "" {
		req.Header.Set("If-None-Match", source.ETag)
	}
	// 条件付きGET: Last-Modified
	if source.LastModified != "" {
		req.Header.Set("If-Modified-Since", source.LastModified)
	}

	// HTTPリクエスト実行
	resp, err := client.Do(req)
	if err != nil {
		f.logger.Error("HTTPリクエストに失敗しました",
			slog.String("source_id", source.ID),
			slog.String("feed_url", source.FeedURL),
			slog.String("error", err.Error()),
		)
		f.collector.RecordPressFetchFailure(source.ID, "http")
		ApplyBackoff(source, fmt.Sprintf("HTTPリクエスト失敗: %s", err.Error()))
		if updateErr := f.sourceRepo.UpdateFetchState(ctx, source); updateErr != nil {
			f.logger.Error("プレスソース状態の更新に失敗しました",
				slog.String("source_id", source.ID),
				slog.String("error", updateErr.Error()),
			)
		}
		return fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	f.collector.RecordPressFetchLatency(duration)

	// HTTPステータスに基づく処理分岐
	result := ClassifyHTTPStatus(resp.StatusCode)

	switch result {
	case FetchResultNotModified:
		// 304: コンテンツ未変更 - next_fetch_atのみ更新
		f.logger.Info("プレスソースは未変更です（304）",
			slog.String("source_id", source.ID),
			slog.Int("http_status", resp.StatusCode),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
		f.collector.RecordPressFetchSuccess(source.ID)
		ApplySuccess(source, f.interval)
		return f.sourceRepo.UpdateFetchState(ctx, source)

	case FetchResultStop:
		// 404/410/401/403: フェッチ停止
		reason := fmt.Sprintf("HTTPステータス %d によりフェッチを停止しました", resp.StatusCode)
		f.logger.Warn("プレスソースのフェッチを停止します",
			slog.String("source_id", source.ID),
			slog.String("feed_url", source.FeedURL),
			slog.Int("http_status", resp.StatusCode),
		)
		f.collector.RecordPressFetchFailure(source.ID, "stopped")
		ApplyStopSource(source, reason)
		return f.sourceRepo.UpdateFetchState(ctx, source)

	case FetchResultBackoff:
		// 429/5xx: バックオフ
		reason := fmt.Sprintf("HTTPステータス %d によりバックオフを適用しました", resp.StatusCode)
		f.logger.Warn("プレスソースのフェッチにバックオフを適用します",
			slog.String("source_id", source.ID),
			slog.Int("http_status", resp.StatusCode),
			slog.Int("consecutive_errors", source.ConsecutiveErrors+1),
		)
		f.collector.RecordPressFetchFailure(source.ID, "backoff")
		ApplyBackoff(source, reason)
		return f.sourceRepo.UpdateFetchState(ctx, source)

	case FetchResultOK:
		// 200: 正常フェッチ - 以下で処理を続行
	default:
		// その他のステータスコード
		f.logger.Warn("予期しないHTTPステータスコード",
			slog.String("source_id", source.ID),
			slog.Int("http_status", resp.StatusCode),
		)
		f.collector.RecordPressFetchFailure(source.ID, "unknown_status")
		ApplyBackoff(source, fmt.Sprintf("予期しないHTTPステータス: %d", resp.StatusCode))
		return f.sourceRepo.UpdateFetchState(ctx, source)
	}

	// レスポンスボディを読み込み（最大サイズ制限付き）
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		f.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("source_id", source.ID),
			slog.String("error", err.Error()),
		)
		f.collector.RecordPressFetchFailure(source.ID, "read")
		ApplyBackoff(source, fmt.Sprintf("レスポンス読み取り失敗: %s", err.Error()))
		return f.sourceRepo.UpdateFetchState(ctx, source)
	}

	// ETag/Last-Modifiedを保存
	if etag := resp.Header.Get("ETag"); etag != "" {
		source.ETag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		source.LastModified = lastMod
	}

	// gofeedでフィードをパース
	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		f.logger.Error("プレスフィードのパースに失敗しました",
			slog.String("source_id", source.ID),
			slog.String("feed_url", source.FeedURL),
			slog.String("error", err.Error()),
		)
		f.collector.RecordPressFetchFailure(source.ID, "parse")
		ApplyParseFailure(source, err.Error())
		if updateErr := f.sourceRepo.UpdateFetchState(ctx, source); updateErr != nil {
			f.logger.Error("プレスソース状態の更新に失敗しました",
				slog.String("source_id", source.ID),
				slog.String("error", updateErr.Error()),
			)
		}
		return nil // パース失敗はフェッチエラーとしない（カウントして継続）
	}

	// ソース名はフィードのタイトルで追従する
	if parsedFeed.Title != "" {
		source.Name = parsedFeed.Title
	}

	// gofeedの記事をParsedMentionに変換し、冪等にUPSERTする
	mentions := f.convertItems(ctx, client, parsedFeed.Items)

	upserted := 0
	for _, mention := range mentions {
		if err := f.mentionRepo.Upsert(ctx, source.ID, mention); err != nil {
			f.logger.Error("掲載記事のUPSERTに失敗しました",
				slog.String("source_id", source.ID),
				slog.String("link", mention.Link),
				slog.String("error", err.Error()),
			)
			continue
		}
		upserted++
	}
	f.collector.RecordMentionsUpserted(upserted)

	f.collector.RecordPressFetchSuccess(source.ID)
	ApplySuccess(source, f.interval)

	// ソース状態を更新
	if updateErr := f.sourceRepo.UpdateFetchState(ctx, source); updateErr != nil {
		f.logger.Error("プレスソース状態の更新に失敗しました",
			slog.String("source_id", source.ID),
			slog.String("error", updateErr.Error()),
		)
		return updateErr
	}

	f.logger.Info("プレスソースのフェッチが完了しました",
		slog.String("source_id", source.ID),
		slog.String("feed_url", source.FeedURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("mentions_upserted", upserted),
		slog.Int("mentions_total", len(mentions)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// convertItems はgofeedの記事をmodel.ParsedMentionに変換する。
// サマリーはサニタイズし、画像はenclosure → item.Image → og:imageの
// 順で解決する。og:image補完は上限付き。
func (f *Fetcher) convertItems(ctx context.Context, client *http.Client, items []*gofeed.Item) []model.ParsedMention {
	mentions := make([]model.ParsedMention, 0, len(items))
	ogLookups := 0

	for _, item := range items {
		if item == nil {
			continue
		}

		mention := model.ParsedMention{
			Title:   item.Title,
			Link:    item.Link,
			Summary: f.sanitizer.Sanitize(item.Description),
		}

		// LinkがなくGUIDがURL形式の場合はGUIDをLinkとして使用
		if mention.Link == "" && item.GUID != "" &&
			(strings.HasPrefix(item.GUID, "http://") || strings.HasPrefix(item.GUID, "https://")) {
			mention.Link = item.GUID
		}

		// (source_id, link) が重複排除キーのため、リンクのない記事は保存できない
		if mention.Link == "" {
			continue
		}

		// 公開日時
		if item.PublishedParsed != nil {
			mention.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			mention.PublishedAt = *item.UpdatedParsed
		} else {
			mention.PublishedAt = time.Now()
		}

		mention.ImageURL = imageFromFeedItem(item)

		// フィードに画像がない場合は記事ページのog:imageで補完する
		if mention.ImageURL == "" && ogLookups < ogImageLookupLimit {
			ogLookups++
			mention.ImageURL = f.lookupOGImage(ctx, client, mention.Link)
		}

		mentions = append(mentions, mention)
	}

	return mentions
}

// imageFromFeedItem はフィード記事自体に含まれる画像URLを返す。
func imageFromFeedItem(item *gofeed.Item) string {
	if item.Image != nil && strings.HasPrefix(item.Image.URL, "https://") {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") && strings.HasPrefix(enc.URL, "https://") {
			return enc.URL
		}
	}
	return ""
}

// lookupOGImage は記事ページを取得してog:imageを抽出する。
// 失敗しても掲載記事の取り込み自体は継続するため、エラーはログのみ。
func (f *Fetcher) lookupOGImage(ctx context.Context, client *http.Client, link string) string {
	if err := f.ssrfGuard.ValidateURL(link); err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Atelier/1.0 Press Collector")

	resp, err := client.Do(req)
	if err != nil {
		f.logger.Debug("og:image補完のリクエストに失敗しました",
			slog.String("link", link),
			slog.String("error", err.Error()),
		)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return ""
	}

	return ExtractOGImage(body, link)
}
