// internal/core/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"reconciliation-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("usuário ou senha inválidos")
	ErrInvalidToken       = errors.New("token inválido ou expirado")
	ErrInvalidEmail       = errors.New("e-mail inválido")
	ErrWeakPassword       = errors.New("a senha deve ter pelo menos 8 caracteres")
)

const minPasswordLen = 8

// UserStore is where seller accounts live.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUser(ctx context.Context, id uint64) (domain.User, error)
}

// NewUser são os dados de criação de conta.
type NewUser struct {
	Email    string
	FullName string
	CNPJ     string
	Password string
}

type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
	ParseToken(token string) (uint64, error)
	CreateUser(ctx context.Context, in NewUser) (domain.User, error)
	User(ctx context.Context, id uint64) (domain.User, error)
}

type service struct {
	users     UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(users UserStore, jwtSecret []byte, tokenTTL time.Duration, logger *zap.Logger) Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL, now: time.Now, logger: logger}
}

// NormalizeEmail remove espaços e passa para minúsculas.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	// 1. Encontrar o usuário.
	user, err := s.users.FindUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("erro ao consultar usuário", zap.Error(err))
		return "", errors.New("erro ao consultar o banco de dados")
	}

	// 2. Comparar a senha fornecida com o hash armazenado.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	// 3. Gerar o token JWT.
	claims := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     s.now().Add(s.tokenTTL).Unix(),
	})

	tokenString, err := claims.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.New("erro ao gerar token de acesso")
	}
	return tokenString, nil
}

// ParseToken valida o token e devolve o id do usuário.
func (s *service) ParseToken(tokenString string) (uint64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, ErrInvalidToken
	}
	return uint64(id), nil
}

func (s *service) CreateUser(ctx context.Context, in NewUser) (domain.User, error) {
	email := NormalizeEmail(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.User{}, ErrInvalidEmail
	}
	cnpj, err := NormalizeCNPJ(in.CNPJ)
	if err != nil {
		return domain.User{}, err
	}
	if len(in.Password) < minPasswordLen {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("erro ao gerar hash da senha: %w", err)
	}

	user := domain.User{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		CNPJ:         cnpj,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("usuário criado", zap.Uint64("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

func (s *service) User(ctx context.Context, id uint64) (domain.User, error) {
	return s.users.GetUser(ctx, id)
}
