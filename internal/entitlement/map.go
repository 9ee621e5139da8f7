// Package entitlement はクライアント識別子と閲覧許可スラグの対応表を提供する。
// 対応表は追記のみの参照データであり、リクエスト処理中に変更されることはない。
package entitlement

// Map はclientIDから閲覧許可スラグ集合への不変マッピング。
// 保護対象アイテムであっても、スラグがこの集合に含まれるクライアントには
// リダクションなしで表示してよい。
type Map struct {
	grants map[string]map[string]struct{}
}

// NewMap はclientID→スラグ一覧の対応からMapを構築する。
// 入力マップは防御的にコピーされ、以降の変更はMapに影響しない。
func NewMap(grants map[string][]string) *Map {
	m := &Map{grants: make(map[string]map[string]struct{}, len(grants))}
	for clientID, slugs := range grants {
		set := make(map[string]struct{}, len(slugs))
		for _, slug := range slugs {
			set[slug] = struct{}{}
		}
		m.grants[clientID] = set
	}
	return m
}

// IsEntitled はclientIDがslugの閲覧を許可されているかを返す。
// 未知のclientID、空のclientID、未登録のslugはすべてfalse（フェイルクローズ）。
// エラーを返すことはない。
func (m *Map) IsEntitled(clientID, slug string) bool {
	if m == nil || clientID == "" || slug == "" {
		return false
	}
	set, ok := m.grants[clientID]
	if !ok {
		return false
	}
	_, ok = set[slug]
	return ok
}

// Size は登録されているクライアント数を返す。
func (m *Map) Size() int {
	if m == nil {
		return 0
	}
	return len(m.grants)
}
