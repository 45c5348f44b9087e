package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	mqcontract "github.com/Prabesh-Pandey/Task-Manager/contracts/mq"
	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/repository"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/metrics"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/trace"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/util"
)

const (
	minPasswordLength = 6
	defaultTokenTTL   = 7 * 24 * time.Hour
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
}

type EventEmitter interface {
	Emit(ctx context.Context, routingKey string, payload any)
}

// Config carries the signing settings and the registration secrets.
// AdminInviteTokens and DepartmentCodes map a department name to its secret.
type Config struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminInviteTokens map[string]string
	DepartmentCodes   map[string]string
}

type Service struct {
	users  UserStore
	events EventEmitter
	logger *zap.Logger

	jwtSecret   string
	tokenTTL    time.Duration
	adminTokens map[string]model.Department
	deptCodes   map[string]model.Department
}

func NewService(users UserStore, events EventEmitter, cfg Config, logger *zap.Logger) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	adminTokens, err := invertSecrets(cfg.AdminInviteTokens)
	if err != nil {
		return nil, err
	}
	deptCodes, err := invertSecrets(cfg.DepartmentCodes)
	if err != nil {
		return nil, err
	}

	return &Service{
		users:       users,
		events:      events,
		logger:      logger,
		jwtSecret:   cfg.JWTSecret,
		tokenTTL:    cfg.TokenTTL,
		adminTokens: adminTokens,
		deptCodes:   deptCodes,
	}, nil
}

// invertSecrets turns department -> secret into secret -> department, skipping blank secrets.
func invertSecrets(byDepartment map[string]string) (map[string]model.Department, error) {
	out := make(map[string]model.Department, len(byDepartment))
	for name, secret := range byDepartment {
		dept, ok := model.ParseDepartment(name)
		if !ok {
			return nil, errors.New("unknown department in auth config: " + name)
		}
		if secret = strings.TrimSpace(secret); secret != "" {
			out[secret] = dept
		}
	}
	return out, nil
}

type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	ProfileImageURL  string
	AdminInviteToken string
	DepartmentCode   string
}

// Result is a user together with a freshly signed token.
type Result struct {
	User  *model.User
	Token string
}

// resolveRole maps the registration secrets onto a role and department.
// A matching admin invite token wins over a department code.
func (s *Service) resolveRole(in RegisterInput) (model.Role, model.Department, error) {
	if in.AdminInviteToken != "" {
		if dept, ok := s.adminTokens[in.AdminInviteToken]; ok {
			return model.RoleAdmin, dept, nil
		}
	}
	if in.DepartmentCode != "" {
		if dept, ok := s.deptCodes[in.DepartmentCode]; ok {
			return model.RoleMember, dept, nil
		}
	}
	return "", "", apperr.Validation("Invalid department code or admin invite token")
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	log := logger.WithTrace(ctx, s.logger)

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		metrics.IncrementAuthAttempt("register", "invalid")
		return nil, apperr.Validation("Name, email and password are required")
	}
	if len(in.Password) < minPasswordLength {
		metrics.IncrementAuthAttempt("register", "invalid")
		return nil, apperr.Validation("Password must be at least 6 characters")
	}

	role, dept, err := s.resolveRole(in)
	if err != nil {
		metrics.IncrementAuthAttempt("register", "invalid")
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		metrics.IncrementAuthAttempt("register", "conflict")
		return nil, apperr.Conflict("User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &model.User{
		Name:            in.Name,
		Email:           in.Email,
		PasswordHash:    hash,
		ProfileImageURL: in.ProfileImageURL,
		Role:            role,
		Department:      &dept,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			metrics.IncrementAuthAttempt("register", "conflict")
			return nil, apperr.Conflict("User already exists")
		}
		return nil, apperr.Internal(err)
	}

	token, err := util.GenerateJWT(u.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	metrics.IncrementAuthAttempt("register", "success")
	log.Info("User registered",
		zap.Int("user_id", u.ID),
		zap.String("role", string(u.Role)),
		zap.String("department", string(dept)),
	)

	s.events.Emit(ctx, mqcontract.RoutingKeyUserRegistered, mqcontract.UserEventPayload{
		UserID:     u.ID,
		Email:      u.Email,
		Role:       string(u.Role),
		Department: string(dept),
		TraceID:    trace.FromContext(ctx),
		OccurredAt: time.Now().UTC(),
	})

	return &Result{User: u, Token: token}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.IncrementAuthAttempt("login", "invalid_credentials")
			return nil, apperr.Unauthenticated("Invalid email or password")
		}
		return nil, apperr.Internal(err)
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		metrics.IncrementAuthAttempt("login", "invalid_credentials")
		return nil, apperr.Unauthenticated("Invalid email or password")
	}

	token, err := util.GenerateJWT(u.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	metrics.IncrementAuthAttempt("login", "success")
	return &Result{User: u, Token: token}, nil
}

// Authenticate resolves a bearer token to the acting user. A valid token whose
// user no longer exists is rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (model.Actor, *model.User, error) {
	if token == "" {
		return model.Actor{}, nil, apperr.Unauthenticated("Not authorized, no token")
	}

	userID, err := util.ParseJWT(token, s.jwtSecret)
	if err != nil {
		return model.Actor{}, nil, &apperr.Error{Kind: apperr.KindUnauthenticated, Message: "Token failed", Err: err}
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Actor{}, nil, apperr.Unauthenticated("User not found")
		}
		return model.Actor{}, nil, apperr.Internal(err)
	}

	return u.Actor(), u, nil
}

func (s *Service) Profile(ctx context.Context, actor model.Actor) (*model.User, error) {
	u, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// ProfilePatch holds the editable profile fields; nil means "leave unchanged".
type ProfilePatch struct {
	Name            *string
	Email           *string
	Password        *string
	ProfileImageURL *string
}

// UpdateProfile merges patch into the actor's record and returns it with a refreshed token.
// Role and department cannot be changed here.
func (s *Service) UpdateProfile(ctx context.Context, actor model.Actor, patch ProfilePatch) (*Result, error) {
	u, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email != u.Email {
			if _, err := s.users.FindByEmail(ctx, email); err == nil {
				return nil, apperr.Conflict("User already exists")
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, apperr.Internal(err)
			}
			u.Email = email
		}
	}
	if patch.Password != nil && *patch.Password != "" {
		if len(*patch.Password) < minPasswordLength {
			return nil, apperr.Validation("Password must be at least 6 characters")
		}
		hash, err := util.HashPassword(*patch.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		u.PasswordHash = hash
	}
	if patch.ProfileImageURL != nil {
		u.ProfileImageURL = *patch.ProfileImageURL
	}

	if err := s.users.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperr.Conflict("User already exists")
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err)
	}

	token, err := util.GenerateJWT(u.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Result{User: u, Token: token}, nil
}
