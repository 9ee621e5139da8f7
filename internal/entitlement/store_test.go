package entitlement

import (
	"context"
	"errors"
	"testing"
)

// --- モック定義 ---

type mockLoader struct {
	listGrantsFn func(ctx context.Context) (map[string][]string, error)
}

func (m *mockLoader) ListGrants(ctx context.Context) (map[string][]string, error) {
	if m.listGrantsFn != nil {
		return m.listGrantsFn(ctx)
	}
	return nil, nil
}

var _ Loader = (*mockLoader)(nil)

// --- テスト ---

// Load前のCurrentは空のスナップショットを返す（フェイルクローズ）
func TestStore_Current_BeforeLoad(t *testing.T) {
	store := NewStore(&mockLoader{})

	m := store.Current()
	if m == nil {
		t.Fatal("expected non-nil snapshot before first load")
	}
	if m.IsEntitled("creait", "case-study-010") {
		t.Error("empty snapshot must not grant entitlements")
	}
}

// Loadが成功するとスナップショットが差し替わる
func TestStore_Load_SwapsSnapshot(t *testing.T) {
	loader := &mockLoader{
		listGrantsFn: func(_ context.Context) (map[string][]string, error) {
			return map[string][]string{
				"creait": {"case-study-010"},
			}, nil
		},
	}
	store := NewStore(loader)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !store.Current().IsEntitled("creait", "case-study-010") {
		t.Error("loaded snapshot must reflect grants")
	}
}

// Load失敗時は既存のスナップショットを維持する
func TestStore_Load_KeepsSnapshotOnError(t *testing.T) {
	calls := 0
	loader := &mockLoader{
		listGrantsFn: func(_ context.Context) (map[string][]string, error) {
			calls++
			if calls == 1 {
				return map[string][]string{"creait": {"case-study-010"}}, nil
			}
			return nil, errors.New("db down")
		},
	}
	store := NewStore(loader)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error on first load: %v", err)
	}
	if err := store.Load(context.Background()); err == nil {
		t.Fatal("expected error on second load")
	}

	if !store.Current().IsEntitled("creait", "case-study-010") {
		t.Error("failed reload must keep the previous snapshot")
	}
}
