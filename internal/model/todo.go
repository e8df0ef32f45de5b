package model

import (
	"encoding/json"
	"time"
)

// DateLayout はAPIレスポンスで日時を表現する書式（MM/DD/YYYY HH:mm:ss）。
const DateLayout = "01/02/2006 15:04:05"

// Todo はユーザーのTodoアイテムを表す。
// UserIDは作成時に未割り当てを許容するためポインタで保持する。
type Todo struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Completed  bool      `json:"completed"`
	CategoryID int       `json:"categoryId"`
	UserID     *string   `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MarshalJSON は日時フィールドをDateLayoutの文字列として出力する。
// Todo一覧・プロフィール・カテゴリネストのどこに埋め込まれても
// 同じ表現になるよう、変換はモデル側で行う。
func (t Todo) MarshalJSON() ([]byte, error) {
	type alias Todo
	return json.Marshal(struct {
		alias
		CreatedAt string `json:"createdAt"`
		UpdatedAt string `json:"updatedAt"`
	}{
		alias:     alias(t),
		CreatedAt: t.CreatedAt.Format(DateLayout),
		UpdatedAt: t.UpdatedAt.Format(DateLayout),
	})
}

// TodoPatch はTodoの部分更新を表す。
// nilのフィールドは変更しない。所有者（UserID）は更新対象に含めない。
type TodoPatch struct {
	Title      *string
	Completed  *bool
	CategoryID *int
}
