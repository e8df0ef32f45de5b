// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/taskman/internal/model"
)

// ErrDuplicateEmail はusers.emailのユニーク制約違反を表す。
// サービス層でドメインエラー（USER_ALREADY_EXISTS）へ変換する。
var ErrDuplicateEmail = errors.New("email already exists")

// UserWithCounts はユーザーと紐づくリソース件数を結合した構造体。
// ユーザー一覧でネストした全行を返さないための集計表現。
type UserWithCounts struct {
	model.User
	Counts model.UserCounts
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	// メールが重複している場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// List は全ユーザーをtodo/postの件数付きで返す。
	List(ctx context.Context) ([]UserWithCounts, error)
}

// TodoRepository はTodoデータの永続化インターフェース。
type TodoRepository interface {
	// FindByID は指定IDのTodoを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Todo, error)

	// ListByUserID は指定ユーザーのTodo一覧を返す。
	// categoryIDが非nilの場合はカテゴリで絞り込む。
	ListByUserID(ctx context.Context, userID string, categoryID *int) ([]model.Todo, error)

	// ListByCategoryID は指定カテゴリのTodo一覧を返す。
	ListByCategoryID(ctx context.Context, categoryID int) ([]model.Todo, error)

	// Create はTodoを作成する。created_at/updated_atはサーバー側で割り当てる。
	Create(ctx context.Context, todo *model.Todo) error

	// Update はTodoのtitle/completed/category_idを上書きし、
	// updated_atを現在時刻に更新する。所有者は変更しない。
	Update(ctx context.Context, todo *model.Todo) error

	// Delete は指定IDのTodoを削除する。
	Delete(ctx context.Context, id string) error
}

// CategoryRepository はカテゴリデータの永続化インターフェース。
type CategoryRepository interface {
	// List は全カテゴリをID昇順で返す。
	List(ctx context.Context) ([]model.Category, error)

	// FindByID は指定IDのカテゴリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int) (*model.Category, error)

	// FindFirst は最小IDのカテゴリを返す。
	// カテゴリ未指定のTodo作成で使う決定的なデフォルト。
	// カテゴリが1件も存在しない場合はnilを返す。
	FindFirst(ctx context.Context) (*model.Category, error)

	// Exists は指定IDのカテゴリが存在するかを返す。
	Exists(ctx context.Context, id int) (bool, error)
}

// PostRepository は投稿データの永続化インターフェース。
// プロフィールのネスト表示でのみ使用する（専用ルートは持たない）。
type PostRepository interface {
	// ListByUserID は指定ユーザーの投稿一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]model.Post, error)
}
