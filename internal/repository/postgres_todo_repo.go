package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/taskman/internal/model"
)

// PostgresTodoRepo はPostgreSQLを使用したTodoリポジトリ。
type PostgresTodoRepo struct {
	db *sql.DB
}

// NewPostgresTodoRepo はPostgresTodoRepoを生成する。
func NewPostgresTodoRepo(db *sql.DB) *PostgresTodoRepo {
	return &PostgresTodoRepo{db: db}
}

// FindByID は指定IDのTodoを取得する。見つからない場合はnilを返す。
func (r *PostgresTodoRepo) FindByID(ctx context.Context, id string) (*model.Todo, error) {
	todo := &model.Todo{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, completed, category_id, user_id, created_at, updated_at
		 FROM todos WHERE id = $1`,
		id,
	).Scan(&todo.ID, &todo.Title, &todo.Completed, &todo.CategoryID,
		&todo.UserID, &todo.CreatedAt, &todo.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo by ID: %w", err)
	}

	return todo, nil
}

// ListByUserID は指定ユーザーのTodo一覧を作成日時昇順で返す。
// categoryIDが非nilの場合はカテゴリで絞り込む。
func (r *PostgresTodoRepo) ListByUserID(ctx context.Context, userID string, categoryID *int) ([]model.Todo, error) {
	query := `SELECT id, title, completed, category_id, user_id, created_at, updated_at
	          FROM todos WHERE user_id = $1`
	args := []any{userID}

	if categoryID != nil {
		query += ` AND category_id = $2`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	return scanTodos(rows)
}

// ListByCategoryID は指定カテゴリのTodo一覧を返す。
func (r *PostgresTodoRepo) ListByCategoryID(ctx context.Context, categoryID int) ([]model.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, completed, category_id, user_id, created_at, updated_at
		 FROM todos WHERE category_id = $1
		 ORDER BY created_at`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos by category: %w", err)
	}
	defer rows.Close()

	return scanTodos(rows)
}

// Create はTodoを作成する。created_at/updated_atはDB側のデフォルトで割り当てる。
func (r *PostgresTodoRepo) Create(ctx context.Context, todo *model.Todo) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO todos (id, title, completed, category_id, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		todo.ID, todo.Title, todo.Completed, todo.CategoryID, todo.UserID,
	).Scan(&todo.CreatedAt, &todo.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}

	return nil
}

// Update はTodoのtitle/completed/category_idを上書きし、
// updated_atを現在時刻に更新する。user_idは更新対象に含めない。
func (r *PostgresTodoRepo) Update(ctx context.Context, todo *model.Todo) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE todos
		 SET title = $2, completed = $3, category_id = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		todo.ID, todo.Title, todo.Completed, todo.CategoryID,
	).Scan(&todo.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("todo not found: %s", todo.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}

	return nil
}

// Delete は指定IDのTodoを削除する。
func (r *PostgresTodoRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("todo not found: %s", id)
	}
	return nil
}

// scanTodos は行セットをTodoスライスへ変換する。
func scanTodos(rows *sql.Rows) ([]model.Todo, error) {
	var todos []model.Todo
	for rows.Next() {
		var t model.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed, &t.CategoryID,
			&t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo row: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todo rows: %w", err)
	}
	return todos, nil
}

// compile-time interface check
var _ TodoRepository = (*PostgresTodoRepo)(nil)
