package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/place-archive/internal/core/domain"
	"github.com/kirillkom/place-archive/internal/core/ports"
)

var accessCodePattern = regexp.MustCompile(`^\d{8}$`)

type AuthUseCase struct {
	users ports.UserStore
}

func NewAuthUseCase(users ports.UserStore) *AuthUseCase {
	return &AuthUseCase{users: users}
}

// Authenticate logs in with an 8-digit access code, registering it on first use.
func (uc *AuthUseCase) Authenticate(ctx context.Context, code string) (*domain.AuthResult, error) {
	code = strings.TrimSpace(code)
	if !accessCodePattern.MatchString(code) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "authenticate", errors.New("access code must be exactly 8 digits"))
	}
	hash := HashAccessCode(code)

	user, err := uc.findUser(ctx, hash)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return &domain.AuthResult{UserID: user.ID, IsNewUser: false}, nil
	}

	newUser := &domain.User{
		ID:           uuid.NewString(),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	created, err := uc.users.CreateUser(ctx, newUser)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "create user", err)
	}
	if created {
		return &domain.AuthResult{UserID: newUser.ID, IsNewUser: true}, nil
	}

	// Lost a registration race on the same code.
	user, err = uc.findUser(ctx, hash)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.WrapError(domain.ErrStorage, "authenticate", errors.New("user vanished after conflict"))
	}
	return &domain.AuthResult{UserID: user.ID, IsNewUser: false}, nil
}

func (uc *AuthUseCase) findUser(ctx context.Context, hash string) (*domain.User, error) {
	user, err := uc.users.FindUserByPasswordHash(ctx, hash)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, domain.WrapError(domain.ErrStorage, "find user", fmt.Errorf("lookup by code hash: %w", err))
	}
	return user, nil
}

// HashAccessCode returns the lowercase hex SHA-256 of the code.
func HashAccessCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
