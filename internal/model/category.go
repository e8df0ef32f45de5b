package model

// Category はTodoの分類カテゴリを表す。
// 特定ユーザーに所有されないグローバルなマスタデータで、
// マイグレーションで事前投入される。
type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Todos []Todo `json:"todos,omitempty"`
}
