// Package user はユーザープロフィールの参照機能を提供する。
package user

import (
	"context"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// Service はユーザー参照のサービス。
type Service struct {
	users repository.UserRepository
	todos repository.TodoRepository
	posts repository.PostRepository
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, todos repository.TodoRepository, posts repository.PostRepository) *Service {
	return &Service{
		users: users,
		todos: todos,
		posts: posts,
	}
}

// Profile はユーザープロフィールの射影。
// パスワードハッシュは含めない（過去にレスポンスへ混入した退行があり、
// テストで明示的にガードしている）。
type Profile struct {
	ID    string       `json:"id"`
	Email string       `json:"email"`
	Todos []model.Todo `json:"todos"`
	Posts []model.Post `json:"posts"`
}

// Summary はユーザー一覧の1件分。ネストした全行の代わりに件数のみを返す。
// ネストを返す素朴な実装はレスポンスサイズが非有界になるため採用しない。
type Summary struct {
	ID     string           `json:"id"`
	Email  string           `json:"email"`
	Counts model.UserCounts `json:"_count"`
}

// Me は呼び出しユーザー自身のプロフィールを返す。
// ユーザーが存在しない場合はnilを返す（ハンドラーは200でnullを返す）。
func (s *Service) Me(ctx context.Context, userID string) (*Profile, error) {
	return s.profile(ctx, userID)
}

// GetByID は指定IDのユーザープロフィールを返す。
// 自分以外のIDを指定した場合は、存在有無の照会より前に403を返す。
func (s *Service) GetByID(ctx context.Context, callerID, id string) (*Profile, error) {
	if id != callerID {
		return nil, model.NewForbiddenError()
	}
	return s.profile(ctx, id)
}

// List は全ユーザーをtodo/postの件数付きで返す。
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, model.NewDatabaseError(err)
	}

	summaries := make([]Summary, len(users))
	for i, u := range users {
		summaries[i] = Summary{
			ID:     u.ID,
			Email:  u.Email,
			Counts: u.Counts,
		}
	}
	return summaries, nil
}

// profile はユーザーとネストしたtodos/postsを取得する。
func (s *Service) profile(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, model.NewDatabaseError(err)
	}
	if u == nil {
		return nil, nil
	}

	todos, err := s.todos.ListByUserID(ctx, userID, nil)
	if err != nil {
		return nil, model.NewDatabaseError(err)
	}
	posts, err := s.posts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, model.NewDatabaseError(err)
	}

	if todos == nil {
		todos = []model.Todo{}
	}
	if posts == nil {
		posts = []model.Post{}
	}

	return &Profile{
		ID:    u.ID,
		Email: u.Email,
		Todos: todos,
		Posts: posts,
	}, nil
}
