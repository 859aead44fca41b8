package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"offers-marketplace/internal/domain"
	accountrepo "offers-marketplace/internal/repository/account"
	tokenrepo "offers-marketplace/internal/repository/token"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

var validate = validator.New()

// Service handles signup, login and bearer token resolution.
type Service struct {
	repo        accountrepo.Repository
	tokens      *tokenManager
	accessTTL   time.Duration
	passwordMin int
	logger      *log.Logger
}

// New creates a Service. A zero accessTTL falls back to 48 hours.
func New(repo accountrepo.Repository, tokens tokenrepo.Repository, accessTTL time.Duration, logger *log.Logger) *Service {
	if accessTTL <= 0 {
		accessTTL = 48 * time.Hour
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		accessTTL:   accessTTL,
		passwordMin: 8,
		logger:      logger,
	}
}

// SignupInput captures fields expected by the signup endpoint. Role and
// IsStaff are honoured only when a superuser creates the account.
type SignupInput struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
	IsStaff  bool        `json:"isStaff"`
}

// Signup registers a new account on behalf of caller.
func (s *Service) Signup(ctx context.Context, caller domain.Caller, in SignupInput) (*domain.Account, error) {
	fields := domain.FieldErrors{}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		fields.Add("email", "required")
	} else if err := validate.Var(email, "email"); err != nil {
		fields.Add("email", "must be a valid email address")
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		fields.Add("password", err.Error())
	}

	role, staff := domain.RoleCustomer, false
	if caller.Superuser {
		if in.Role != "" {
			role = in.Role
		}
		staff = in.IsStaff
		if !role.Valid() {
			fields.Add("role", "must be one of customer, brand")
		}
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, domain.Account{
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		IsStaff:      staff,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, domain.Invalid("email", "an account with this email already exists")
	}
	if err != nil {
		return nil, err
	}
	s.logger.Printf("account: signup id=%s role=%s staff=%t", created.ID, created.Role, created.IsStaff)
	return created, nil
}

// Login validates credentials and returns the account with a new access token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	password = strings.TrimSpace(password)
	a, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(ctx, a.ID, s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	return a, access, nil
}

// Logout revokes token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// LookupByToken returns the account bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Account, error) {
	accountID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	a, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return a, nil
}

// PurgeExpiredTokens deletes tokens past their expiry.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.tokens.Purge(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Printf("account: purged expired tokens count=%d", n)
	}
	return n, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
