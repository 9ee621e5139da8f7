// Package model はドメインモデルを定義する。
package model

import "time"

// PressFetchStatus はプレスソースのフェッチ状態を表す。
type PressFetchStatus string

const (
	// PressFetchActive はフェッチが有効な状態を示す。
	PressFetchActive PressFetchStatus = "active"
	// PressFetchStopped は連続エラー等によりフェッチを停止した状態を示す。
	PressFetchStopped PressFetchStatus = "stopped"
)

// PressSource はスタジオの掲載実績を収集するRSS/AtomフィードのURLを表す。
type PressSource struct {
	ID                string
	Name              string
	FeedURL           string
	FetchStatus       PressFetchStatus
	ConsecutiveErrors int
	ErrorMessage      string
	ETag              string
	LastModified      string
	LastFetchedAt     time.Time
	NextFetchAt       time.Time
	CreatedAt         time.Time
}

// PressMention はプレスソースから取り込んだ掲載記事を表す。
type PressMention struct {
	ID          string
	SourceID    string
	Title       string
	Link        string
	// Summary はサニタイズ済みの抜粋HTML。
	Summary     string
	ImageURL    string
	PublishedAt time.Time
	CreatedAt   time.Time
}

// ParsedMention はフィードのパース結果からUPSERT前に組み立てる中間表現。
type ParsedMention struct {
	Title       string
	Link        string
	Summary     string
	ImageURL    string
	PublishedAt time.Time
}
