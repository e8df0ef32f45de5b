// Package seed はオフラインのデータ投入ツールを提供する。
// リクエストパスのロジックではなく、運用サブコマンドから実行される。
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Assigner は所有者未設定のTodoへの一括所有者割り当てを行う。
type Assigner struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAssigner はAssignerを生成する。
func NewAssigner(db *sql.DB, logger *slog.Logger) *Assigner {
	return &Assigner{db: db, logger: logger}
}

// AssignOwner は所有者が未設定の全Todoを指定ユーザーへ割り当てる。
// 部分的な割り当てを避けるため、全体を単一のACIDトランザクションで実行する。
// 割り当てた件数を返す。
func (a *Assigner) AssignOwner(ctx context.Context, userID string) (int64, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 割り当て先ユーザーの存在確認も同一トランザクションで行う
	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`,
		userID,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("user not found: %s", userID)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE todos SET user_id = $1, updated_at = now() WHERE user_id IS NULL`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to assign todos: %w", err)
	}

	assigned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	a.logger.Info("assigned unowned todos",
		slog.String("user_id", userID),
		slog.Int64("count", assigned),
	)

	return assigned, nil
}
