package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/persistence"
)

// ConsultantService exposes the consultant roster for the sharing and owner
// pickers, and handles account provisioning.
type ConsultantService struct {
	users       persistence.UserRepository
	hasher      func(password string) (string, error)
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewConsultantService constructs a ConsultantService.
func NewConsultantService(users persistence.UserRepository, idGenerator func() string, now func() time.Time) *ConsultantService {
	return NewConsultantServiceWithLogger(users, idGenerator, now, nil)
}

// NewConsultantServiceWithLogger constructs a ConsultantService with a
// specified logger.
func NewConsultantServiceWithLogger(users persistence.UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ConsultantService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ConsultantService{
		users: users,
		hasher: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ConsultantService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ConsultantService", operation, attrs...)
}

// ListConsultants returns every active account, for the sharing picker and
// the admin's owner selector.
func (s *ConsultantService) ListConsultants(ctx context.Context) ([]Consultant, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	consultants := make([]Consultant, 0, len(users))
	for _, user := range users {
		if user.Disabled {
			continue
		}
		consultants = append(consultants, Consultant{
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		})
	}
	return consultants, nil
}

// GetConsultant looks up one account by email.
func (s *ConsultantService) GetConsultant(ctx context.Context, email string) (Consultant, error) {
	if s == nil || s.users == nil {
		return Consultant{}, fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return Consultant{}, mapRepoError(err)
	}
	return Consultant{Email: user.Email, Name: user.Name, Role: user.Role}, nil
}

// CreateConsultant provisions an account. Used by the seed command and by
// admins.
func (s *ConsultantService) CreateConsultant(ctx context.Context, email, name, password string, role agenda.Role) (err error) {
	if s == nil || s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	email = strings.TrimSpace(strings.ToLower(email))
	logger := s.loggerWith(ctx, "CreateConsultant", "email", email, "role", string(role))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "consultant creation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "consultant created")
	}()

	if email == "" || name == "" || password == "" {
		vErr := &ValidationError{}
		if email == "" {
			vErr.add("email", "e-mail é obrigatório")
		}
		if name == "" {
			vErr.add("name", "nome é obrigatório")
		}
		if password == "" {
			vErr.add("password", "senha é obrigatória")
		}
		return vErr
	}
	if role == "" {
		role = agenda.RoleConsultant
	}

	hash, err := s.hasher(password)
	if err != nil {
		return err
	}

	now := s.now()
	return s.users.CreateUser(ctx, persistence.User{
		ID:           s.idGenerator(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
