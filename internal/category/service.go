// Package category はカテゴリの参照機能を提供する。
// カテゴリはグローバルなマスタデータで、作成・更新のルートは持たない。
package category

import (
	"context"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// Service はカテゴリ参照のサービス。
type Service struct {
	categories repository.CategoryRepository
	todos      repository.TodoRepository
}

// NewService はServiceを生成する。
func NewService(categories repository.CategoryRepository, todos repository.TodoRepository) *Service {
	return &Service{
		categories: categories,
		todos:      todos,
	}
}

// List は全カテゴリをID昇順で返す。
// includeTodosがtrueの場合は各カテゴリにTodoをネストして返す。
func (s *Service) List(ctx context.Context, includeTodos bool) ([]model.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, model.NewDatabaseError(err)
	}

	if includeTodos {
		for i := range categories {
			todos, err := s.todos.ListByCategoryID(ctx, categories[i].ID)
			if err != nil {
				return nil, model.NewDatabaseError(err)
			}
			categories[i].Todos = todos
		}
	}

	return categories, nil
}

// Get は指定IDのカテゴリを返す。見つからない場合はnilを返す
// （ハンドラーは200でnullを返す。404にはしない）。
func (s *Service) Get(ctx context.Context, id int, includeTodos bool) (*model.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, model.NewDatabaseError(err)
	}
	if category == nil {
		return nil, nil
	}

	if includeTodos {
		todos, err := s.todos.ListByCategoryID(ctx, category.ID)
		if err != nil {
			return nil, model.NewDatabaseError(err)
		}
		category.Todos = todos
	}

	return category, nil
}
