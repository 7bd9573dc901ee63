// Package auth registers and logs in users and issues the signed identity
// the HTTP API passes into every task operation.
package auth

import (
	"context"
	"errors"
	"fmt"

	"studyflow/internal/lifecycle"
	"studyflow/internal/models"
	"studyflow/internal/repository"

	"github.com/go-playground/validator/v10"
)

var (
	ErrDuplicateUsername  = errors.New("Пользователь с таким именем уже существует")
	ErrInvalidCredentials = errors.New("Неверное имя пользователя или пароль")
)

// UserRepository is the subset of the user store the gateway needs.
type UserRepository interface {
	Create(ctx context.Context, username, password, displayName string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByID(ctx context.Context, id int) (models.User, error)
}

type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3,max=255"`
	Password    string `json:"password" validate:"required,min=3,max=255"`
	DisplayName string `json:"displayName" validate:"required,min=2,max=255"`
}

var fieldMessages = map[string]string{
	"Username":    "Имя пользователя должно быть не менее 3 символов",
	"Password":    "Пароль должен быть не менее 3 символов",
	"DisplayName": "Имя должно быть не менее 2 символов",
}

type Service struct {
	users     UserRepository
	passwords PasswordPolicy
	validate  *validator.Validate
}

func NewService(users UserRepository, passwords PasswordPolicy, validate *validator.Validate) *Service {
	if passwords == nil {
		passwords = PlainPasswords{}
	}
	if validate == nil {
		validate = validator.New()
	}
	return &Service{users: users, passwords: passwords, validate: validate}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	if err := s.validate.Struct(in); err != nil {
		return models.User{}, toValidationError(err)
	}

	stored, err := s.passwords.Hash(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.users.Create(ctx, in.Username, stored, in.DisplayName)
	if errors.Is(err, repository.ErrDuplicate) {
		return models.User{}, ErrDuplicateUsername
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, lifecycle.NewValidationError("", "Введите имя пользователя и пароль")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if !s.passwords.Matches(user.Password, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Me(ctx context.Context, id int) (models.User, error) {
	return s.users.FindByID(ctx, id)
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg, ok := fieldMessages[fe.Field()]
		if !ok || fe.Tag() == "max" {
			msg = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return lifecycle.NewValidationError(fe.Field(), msg)
	}
	return lifecycle.NewValidationError("", err.Error())
}
