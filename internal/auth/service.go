// Package auth はユーザー登録・ログイン・トークン管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// パスワード長の制約（文字数）。
const (
	passwordMinLen = 8
	passwordMaxLen = 16
)

// Service は認証サービス。
type Service struct {
	users  repository.UserRepository
	tokens *TokenManager
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, tokens *TokenManager) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	Token  string
	UserID string
	Email  string
}

// Signup は新規ユーザーを作成する。
// 入力検証に失敗した場合はINVALID_USER_DATA、
// メールが重複している場合はUSER_ALREADY_EXISTSを返す。
// 一意性の強制はDBのユニークインデックスに委譲し、
// 衝突を型付きエラーへ変換する。
func (s *Service) Signup(ctx context.Context, email, password string) error {
	if fields := validateCredentials(email, password); len(fields) > 0 {
		return model.NewInvalidUserDataError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.NewUserAlreadyExistsError(email)
		}
		return model.NewDatabaseError(err)
	}

	return nil
}

// Login はメールとパスワードを検証し、トークンを発行する。
// アカウントが存在しない場合は「User not found」、
// パスワード不一致の場合は「Invalid password」を返す。
// この区別はアカウントの存在を開示するが、元実装との互換のため維持する
// （Todoの404/403の規律とは意図的に非対称）。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, model.NewDatabaseError(err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidPasswordError()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{
		Token:  token,
		UserID: user.ID,
		Email:  user.Email,
	}, nil
}

// validateCredentials はメール形式とパスワード長を検証し、
// フィールド別のエラーメッセージを返す。問題がなければ空のマップを返す。
func validateCredentials(email, password string) map[string]any {
	fields := map[string]any{}

	if email == "" {
		fields["email"] = "email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "email format is invalid"
	}

	if password == "" {
		fields["password"] = "password is required"
	} else if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		fields["password"] = fmt.Sprintf("password must be %d-%d characters", passwordMinLen, passwordMaxLen)
	}

	return fields
}
