package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/oxydem/authgate/core"
	"github.com/oxydem/authgate/ports"
)

// AuthService handles authentication business logic
type AuthService struct {
	directory ports.UserDirectory
	tokens    ports.TokenIssuer
	events    ports.EventPublisher
	limiter   *RateLimiter
	totp      *TOTPEngine
	recovery  *RecoveryCodeManager
	pending   *PendingSessionStore
	sealer    *Sealer
	logger    watermill.LoggerAdapter
}

// AuthServiceConfig tunes the orchestration knobs; zero values fall back
// to the service defaults
type AuthServiceConfig struct {
	Issuer            string
	MaxLoginAttempts  int
	LoginWindow       time.Duration
	PendingSessionTTL time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(
	cfg AuthServiceConfig,
	directory ports.UserDirectory,
	tokens ports.TokenIssuer,
	events ports.EventPublisher,
	store ports.Store,
	sealer *Sealer,
	logger watermill.LoggerAdapter,
) *AuthService {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &AuthService{
		directory: directory,
		tokens:    tokens,
		events:    events,
		limiter:   NewRateLimiter(store, cfg.MaxLoginAttempts, cfg.LoginWindow),
		totp:      NewTOTPEngine(cfg.Issuer),
		recovery:  NewRecoveryCodeManager(directory, sealer),
		pending:   NewPendingSessionStore(store, sealer, cfg.PendingSessionTTL),
		sealer:    sealer,
		logger:    logger,
	}
}

// LoginResult is the outcome of a password check: either a bearer token,
// or a pending session waiting for the second factor
type LoginResult struct {
	User              *core.User
	Token             string
	TwoFactorRequired bool
	SessionID         string
}

// TwoFactorEnrollment is returned when two-factor auth is switched on
type TwoFactorEnrollment struct {
	SecretBase32    string
	ProvisioningURI string
	RecoveryCodes   []string
}

// Login verifies the password and either issues a token outright or, for
// users with two-factor enabled, parks the login behind a pending
// session. Every call consumes one attempt from the client's budget,
// successful or not.
func (s *AuthService) Login(ctx context.Context, email, password, clientKey string) (*LoginResult, error) {
	if err := s.limiter.Attempt(ctx, clientKey); err != nil {
		return nil, err
	}
	if err := s.limiter.Hit(ctx, clientKey); err != nil {
		return nil, err
	}

	user, err := s.directory.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if user.TwoFactorEnabled() {
		sessionID, err := s.pending.Create(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create pending session: %w", err)
		}
		return &LoginResult{
			User:              user,
			TwoFactorRequired: true,
			SessionID:         sessionID,
		}, nil
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

// VerifyTwoFactor completes a pending login with either a TOTP code or a
// recovery code. When both are submitted the TOTP code is checked and the
// recovery code ignored, so codes survive accidental double submission.
// A failed TOTP check leaves the session intact for another try; success
// consumes it before the token is issued.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, sessionID, totpCode, recoveryCode string) (*LoginResult, error) {
	session, err := s.pending.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	user, err := s.directory.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, core.ErrTwoFactorNotEnabled
	}
	if !user.TwoFactorEnabled() {
		return nil, core.ErrTwoFactorNotEnabled
	}

	switch {
	case totpCode != "":
		if !s.totp.VerifyCode(user.TOTPSecret, totpCode) {
			return nil, core.ErrInvalidCode
		}
	case recoveryCode != "":
		if err := s.recovery.Consume(ctx, user.ID, recoveryCode); err != nil {
			return nil, err
		}
	default:
		return nil, core.ErrMissingFactor
	}

	if _, err := s.pending.Consume(ctx, sessionID); err != nil {
		return nil, err
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token}, nil
}

// EnableTwoFactor provisions a TOTP secret and a fresh recovery code set
// for the user. Calling it again replaces both.
func (s *AuthService) EnableTwoFactor(ctx context.Context, userID string) (*TwoFactorEnrollment, error) {
	user, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	secret, uri, err := s.totp.GenerateSecret(user.Email)
	if err != nil {
		return nil, err
	}

	codes, err := s.recovery.Generate(DefaultRecoveryCodeCount)
	if err != nil {
		return nil, err
	}
	sealed, err := s.recovery.SealCodes(codes)
	if err != nil {
		return nil, err
	}

	if err := s.directory.SetTwoFactor(ctx, user.ID, secret, sealed); err != nil {
		return nil, fmt.Errorf("failed to enable two-factor: %w", err)
	}

	s.publishTwoFactorChanged(ctx, user.ID, true)

	return &TwoFactorEnrollment{
		SecretBase32:    secret,
		ProvisioningURI: uri,
		RecoveryCodes:   codes,
	}, nil
}

// DisableTwoFactor removes the TOTP secret and recovery codes
func (s *AuthService) DisableTwoFactor(ctx context.Context, userID string) error {
	user, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.directory.ClearTwoFactor(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to disable two-factor: %w", err)
	}

	s.publishTwoFactorChanged(ctx, user.ID, false)
	return nil
}

// RegenerateRecoveryCodes replaces the user's recovery code set. Old
// codes stop working immediately.
func (s *AuthService) RegenerateRecoveryCodes(ctx context.Context, userID string) ([]string, error) {
	user, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.TwoFactorEnabled() {
		return nil, core.ErrTwoFactorNotEnabled
	}

	codes, err := s.recovery.Generate(DefaultRecoveryCodeCount)
	if err != nil {
		return nil, err
	}
	if err := s.recovery.Store(ctx, user.ID, codes); err != nil {
		return nil, fmt.Errorf("failed to store recovery codes: %w", err)
	}

	return codes, nil
}

// ResetTwoFactor is the administrative escape hatch: it strips two-factor
// auth from any user by ID, whether or not it was enabled
func (s *AuthService) ResetTwoFactor(ctx context.Context, userID string) error {
	user, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.directory.ClearTwoFactor(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to reset two-factor: %w", err)
	}

	s.publishTwoFactorChanged(ctx, user.ID, false)
	return nil
}

// ValidateToken unseals a bearer token, validates the inner JWT and
// returns the user it was issued to. All failure modes collapse to
// core.ErrInvalidToken.
func (s *AuthService) ValidateToken(ctx context.Context, sealedToken string) (*core.User, error) {
	token, err := s.sealer.Open(sealedToken)
	if err != nil {
		return nil, core.ErrInvalidToken
	}

	userID, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, core.ErrInvalidToken
	}

	user, err := s.directory.FindByID(ctx, userID)
	if err != nil {
		return nil, core.ErrInvalidToken
	}
	return user, nil
}

// GetUser returns the user's profile by ID
func (s *AuthService) GetUser(ctx context.Context, userID string) (*core.User, error) {
	return s.directory.FindByID(ctx, userID)
}

func (s *AuthService) issueToken(ctx context.Context, user *core.User) (string, error) {
	token, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return "", fmt.Errorf("failed to seal token: %w", err)
	}

	// The login already succeeded at this point; a dead broker must not
	// undo it
	if err := s.events.PublishLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to publish login event", err, watermill.LogFields{"user_id": user.ID})
	}

	return sealed, nil
}

func (s *AuthService) publishTwoFactorChanged(ctx context.Context, userID string, enabled bool) {
	if err := s.events.PublishTwoFactorChanged(ctx, userID, enabled); err != nil {
		s.logger.Error("failed to publish two-factor event", err, watermill.LogFields{
			"user_id": userID,
			"enabled": enabled,
		})
	}
}
