package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/facturacr/facturacr/internal/audit/domain"
	"github.com/facturacr/facturacr/internal/auth/domain"
	"github.com/facturacr/facturacr/internal/auth/password"
	"github.com/facturacr/facturacr/internal/companyctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	defaultSessionTTL = 7 * 24 * time.Hour

	minPasswordLength = 8
)

type Config struct {
	SessionTTL time.Duration
}

type Params struct {
	fx.In

	Log          *zap.Logger
	Repo         domain.Repository
	SessionRepo  domain.SessionRepository
	LoginLogRepo domain.LoginLogRepository
	Audit        auditdomain.Service
	GenID        *snowflake.Node
	Config       Config
}

type Service struct {
	log          *zap.Logger
	repo         domain.Repository
	sessionRepo  domain.SessionRepository
	loginLogRepo domain.LoginLogRepository
	audit        auditdomain.Service
	genID        *snowflake.Node
	sessionTTL   time.Duration
}

func New(p Params) domain.Service {
	ttl := p.Config.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Service{
		log:          p.Log.Named("auth.service"),
		repo:         p.Repo,
		sessionRepo:  p.SessionRepo,
		loginLogRepo: p.LoginLogRepo,
		audit:        p.Audit,
		genID:        p.GenID,
		sessionTTL:   ttl,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrInvalidCredentials
	}
	if req.CompanyID == 0 {
		if companyID, ok := companyctx.CompanyIDFromContext(ctx); ok {
			req.CompanyID = companyID
		}
	}

	if _, err := s.repo.FindOne(ctx, domain.User{Email: email}); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultName(email)
	}
	user := &domain.User{
		ID:                  s.genID.Generate(),
		CompanyID:           req.CompanyID,
		Name:                name,
		Email:               email,
		PasswordHash:        &hashed,
		Active:              true,
		LastPasswordChanged: &now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	targetID := user.ID.String()
	s.emitAudit(ctx, user.CompanyID, "user.created", targetID, map[string]any{"email": user.Email})
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, req domain.UpdateUserRequest) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fields := map[string]any{"updated_at": now}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, domain.ErrInvalidCredentials
		}
		if email != user.Email {
			if _, err := s.repo.FindOne(ctx, domain.User{Email: email}); err == nil {
				return nil, domain.ErrUserExists
			} else if !errors.Is(err, domain.ErrUserNotFound) {
				return nil, err
			}
			fields["email"] = email
		}
	}
	if req.Password != nil {
		if len(strings.TrimSpace(*req.Password)) < minPasswordLength {
			return nil, domain.ErrInvalidCredentials
		}
		hashed, err := password.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hashed
		fields["last_password_changed"] = &now
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}

	if err := s.repo.UpdateFields(ctx, req.ID, fields); err != nil {
		return nil, err
	}

	targetID := req.ID.String()
	s.emitAudit(ctx, user.CompanyID, "user.updated", targetID, nil)
	return s.repo.FindByID(ctx, req.ID)
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	companyID, ok := companyctx.CompanyIDFromContext(ctx)
	if !ok || companyID == 0 {
		return nil, domain.ErrUserNotFound
	}
	return s.repo.List(ctx, companyID)
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindOne(ctx, domain.User{Email: email})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordLogin(ctx, nil, email, false, req)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		s.recordLogin(ctx, &user.ID, email, false, req)
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		s.recordLogin(ctx, &user.ID, email, false, req)
		return nil, domain.ErrUserInactive
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		CompanyID:        user.CompanyID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(s.sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.recordLogin(ctx, &user.ID, email, true, req)

	return &domain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	now := time.Now().UTC()
	return s.sessionRepo.RevokeSession(ctx, session.ID, now)
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	now := time.Now().UTC()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID snowflake.ID, currentPassword, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil || !password.Verify(currentPassword, *user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	fields := map[string]any{
		"password_hash":         hashed,
		"last_password_changed": &now,
		"updated_at":            now,
	}
	if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
		return err
	}

	targetID := userID.String()
	s.emitAudit(ctx, user.CompanyID, "user.password_changed", targetID, nil)
	return nil
}

func (s *Service) ListLoginLogs(ctx context.Context, userID snowflake.ID, limit int) ([]domain.LoginLog, error) {
	return s.loginLogRepo.ListLoginLogs(ctx, userID, limit)
}

func (s *Service) recordLogin(ctx context.Context, userID *snowflake.ID, email string, success bool, req domain.LoginRequest) {
	entry := &domain.LoginLog{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Email:     email,
		Success:   success,
		IPAddress: strings.TrimSpace(req.IPAddress),
		UserAgent: strings.TrimSpace(req.UserAgent),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.loginLogRepo.InsertLoginLog(ctx, entry); err != nil {
		s.log.Warn("failed to record login attempt", zap.String("email", email), zap.Error(err))
	}
}

func (s *Service) emitAudit(ctx context.Context, companyID snowflake.ID, action, targetID string, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AuditLog(ctx, &companyID, "", nil, action, "user", &targetID, metadata); err != nil {
		s.log.Warn("failed to emit audit event", zap.String("action", action), zap.Error(err))
	}
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", domain.ErrInvalidCredentials
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}
	return addr.Address, nil
}

func defaultName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
