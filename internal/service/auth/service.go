package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// defaultTokenTTL — срок жизни access-токена.
const defaultTokenTTL = 24 * time.Hour

// RegisterInput описывает данные регистрации нового пользователя.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	// Role пустая — регистрируется клиент.
	Role domain.Role
}

// Claims — полезная нагрузка access-токена.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service отвечает за регистрацию, вход и проверку токенов.
type Service struct {
	store    domain.Store
	secret   []byte
	tokenTTL time.Duration
	logger   *log.Entry
	now      func() time.Time
}

// NewService создаёт сервис аутентификации с подписью HS256.
func NewService(store domain.Store, secret string, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "auth_service")
	}
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: defaultTokenTTL,
		logger:   logger,
		now:      time.Now,
	}
}

func validateRegister(in RegisterInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: email is malformed", domain.ErrInvalidInput)
	}
	if len(in.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", domain.ErrInvalidInput)
	}
	if in.Role != "" && !domain.KnownRole(in.Role) {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, in.Role)
	}
	return nil
}

// Register создаёт пользователя с хэшированным паролем.
// Без явной роли новый пользователь становится клиентом.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	if err := validateRegister(in); err != nil {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleClient
	}

	created, err := s.store.Users().Create(ctx, domain.User{
		Name:         in.Name,
		Email:        strings.ToLower(in.Email),
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// Login проверяет пару email/пароль и выдаёт подписанный токен.
// Любое несовпадение возвращает одну и ту же ошибку ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if domain.IsNotFound(err) {
			return "", domain.User{}, domain.ErrInvalidCredentials
		}
		return "", domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}

func (s *Service) issueToken(user domain.User) (string, error) {
	issued := s.now()
	claims := Claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.tokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и
// восстанавливает принципала.
func (s *Service) ParseToken(tokenString string) (domain.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}
	role := domain.Role(claims.Role)
	if !domain.KnownRole(role) {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}

	return domain.Principal{ID: userID, Role: role}, nil
}
