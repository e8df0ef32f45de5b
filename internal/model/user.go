// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"time"
)

// User はサービス利用ユーザーを表す。
// PasswordHashはレスポンスに含めてはならない（JSONタグ"-"で遮断する）。
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Post はユーザーの投稿を表す。
// 専用のルートは持たず、プロフィール集計（ネスト表示・件数）でのみ使用する。
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// MarshalJSON はTodoと同じくcreatedAtをDateLayoutの文字列で出力する。
func (p Post) MarshalJSON() ([]byte, error) {
	type alias Post
	return json.Marshal(struct {
		alias
		CreatedAt string `json:"createdAt"`
	}{
		alias:     alias(p),
		CreatedAt: p.CreatedAt.Format(DateLayout),
	})
}

// Comment は投稿へのコメントを表す。
// Postと同様、リレーション整合のためにスキーマ上に存在する。
type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserCounts はユーザーに紐づくリソースの件数を表す。
// ユーザー一覧でネストした全行を返す代わりに件数のみを返すために使用する。
type UserCounts struct {
	Todos int `json:"todos"`
	Posts int `json:"posts"`
}
