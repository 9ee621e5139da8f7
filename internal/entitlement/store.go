package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Loader はエンタイトルメント対応表の読み込みインターフェース。
// repository.EntitlementRepositoryの部分集合として定義する。
type Loader interface {
	// ListGrants は全クライアントの許可スラグ一覧を取得する。
	ListGrants(ctx context.Context) (map[string][]string, error)
}

// Store は現在有効なMapスナップショットを保持する。
// 更新はワーカーによるアトミックなスナップショット差し替えのみで、
// 開示エンジンからの書き込み経路は存在しない。
type Store struct {
	loader  Loader
	current atomic.Pointer[Map]
}

// NewStore はStoreを生成する。初回のCurrent呼び出しまでにLoadを
// 実行していない場合、Currentは空のMapを返す（フェイルクローズ）。
func NewStore(loader Loader) *Store {
	s := &Store{loader: loader}
	s.current.Store(NewMap(nil))
	return s
}

// Load は参照データを読み込み、スナップショットをアトミックに差し替える。
// 読み込み失敗時は既存のスナップショットを維持する。
func (s *Store) Load(ctx context.Context) error {
	grants, err := s.loader.ListGrants(ctx)
	if err != nil {
		return fmt.Errorf("failed to load entitlement grants: %w", err)
	}

	m := NewMap(grants)
	s.current.Store(m)

	slog.Info("entitlement snapshot loaded",
		slog.Int("clients", m.Size()),
	)
	return nil
}

// Current は現在有効なスナップショットを返す。
// 返されたMapは不変であり、レンダリング中に差し替えが起きても
// 進行中の評価には影響しない。
func (s *Store) Current() *Map {
	return s.current.Load()
}
