// Package todo はTodoアイテムの管理機能を提供する。
package todo

import (
	"context"

	"github.com/google/uuid"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
)

// Service はTodoの取得・作成・更新・削除のサービス。
// 変更系の操作はすべて所有者チェックを通過してから実行される。
type Service struct {
	todos      repository.TodoRepository
	categories repository.CategoryRepository
}

// NewService はServiceを生成する。
func NewService(todos repository.TodoRepository, categories repository.CategoryRepository) *Service {
	return &Service{
		todos:      todos,
		categories: categories,
	}
}

// List は呼び出しユーザーのTodo一覧を返す。
// categoryIDが非nilの場合はカテゴリで絞り込む。
func (s *Service) List(ctx context.Context, userID string, categoryID *int) ([]model.Todo, error) {
	todos, err := s.todos.ListByUserID(ctx, userID, categoryID)
	if err != nil {
		return nil, model.NewDatabaseError(err)
	}
	return todos, nil
}

// Get は指定IDのTodoを所有者チェック付きで返す。
// 存在しない場合は404、存在するが呼び出し元の所有でない場合は403。
// この2つを混同するとリソースの存在が漏洩するため、必ず区別する。
func (s *Service) Get(ctx context.Context, callerID, todoID string) (*model.Todo, error) {
	todo, err := s.todos.FindByID(ctx, todoID)
	if err != nil {
		return nil, model.NewDatabaseError(err)
	}
	if todo == nil {
		return nil, model.NewTodoNotFoundError(todoID)
	}
	if todo.UserID == nil || *todo.UserID != callerID {
		return nil, model.NewForbiddenError()
	}
	return todo, nil
}

// Create は新しいTodoを作成する。
// 所有者はクライアント指定値に関わらず呼び出しユーザーに固定する。
// categoryIDが未指定の場合は最小IDのカテゴリを決定的なデフォルトとして使う。
// カテゴリが1件も存在しない場合はNO_CATEGORYを返す。
func (s *Service) Create(ctx context.Context, callerID, title string, completed bool, categoryID *int) (*model.Todo, error) {
	resolvedCategoryID, err := s.resolveCategoryID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	ownerID := callerID
	todo := &model.Todo{
		ID:         uuid.NewString(),
		Title:      title,
		Completed:  completed,
		CategoryID: resolvedCategoryID,
		UserID:     &ownerID,
	}

	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, model.NewDatabaseError(err)
	}

	return todo, nil
}

// Update は既存のTodoへ部分パッチを適用する。
// 所有者チェックはGetと同じ404/403の規律に従う。
// 所有者フィールド自体は決して変更されない。
// 空のパッチはupdated_at以外のフィールドを変更しない。
func (s *Service) Update(ctx context.Context, callerID, todoID string, patch model.TodoPatch) (*model.Todo, error) {
	todo, err := s.Get(ctx, callerID, todoID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		todo.Title = *patch.Title
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}
	if patch.CategoryID != nil {
		exists, err := s.categories.Exists(ctx, *patch.CategoryID)
		if err != nil {
			return nil, model.NewDatabaseError(err)
		}
		if !exists {
			return nil, model.NewInvalidRequestError("Category does not exist")
		}
		todo.CategoryID = *patch.CategoryID
	}

	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, model.NewDatabaseError(err)
	}

	return todo, nil
}

// Delete は既存のTodoを削除する。所有者チェックはGetと同じ規律に従う。
// 同じIDへの2回目の削除は404となる（冪等性は呼び出し側から観測可能）。
func (s *Service) Delete(ctx context.Context, callerID, todoID string) error {
	if _, err := s.Get(ctx, callerID, todoID); err != nil {
		return err
	}

	if err := s.todos.Delete(ctx, todoID); err != nil {
		return model.NewDatabaseError(err)
	}

	return nil
}

// resolveCategoryID はカテゴリ指定を解決する。
// 指定ありの場合は存在チェック、未指定の場合は最小IDのカテゴリを返す。
func (s *Service) resolveCategoryID(ctx context.Context, categoryID *int) (int, error) {
	if categoryID != nil {
		exists, err := s.categories.Exists(ctx, *categoryID)
		if err != nil {
			return 0, model.NewDatabaseError(err)
		}
		if !exists {
			return 0, model.NewInvalidRequestError("Category does not exist")
		}
		return *categoryID, nil
	}

	first, err := s.categories.FindFirst(ctx)
	if err != nil {
		return 0, model.NewDatabaseError(err)
	}
	if first == nil {
		return 0, model.NewNoCategoryError()
	}
	return first.ID, nil
}
