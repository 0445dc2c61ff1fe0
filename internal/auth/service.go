// Package auth implements the session lifecycle: login issues a token pair and a
// session record, logout revokes the record in place, and rotation exchanges an
// expired access token for a fresh one against the stored refresh token.
package auth

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"authplane/internal/security"
	sessiondomain "authplane/internal/session/domain"
	"authplane/internal/telemetry"
	userdomain "authplane/internal/user/domain"
)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// SessionStore is the minimal session store needed by the auth service.
type SessionStore interface {
	Put(ctx context.Context, principalID string, rec sessiondomain.Record, ttl time.Duration) error
	Get(ctx context.Context, principalID string) (*sessiondomain.Record, error)
	UpdateKeepTTL(ctx context.Context, principalID string, rec sessiondomain.Record) error
}

// Result holds the outcome of Login or Rotate: the access token with its expiry
// for the transport layer to persist client-side, the refresh token (empty on
// rotation, which never reissues it), and the principal.
type Result struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	User            *userdomain.User
}

// GoogleProfile is the subset of a Google OAuth profile consumed when upserting
// a federated user. The OAuth handshake itself happens outside this package.
type GoogleProfile struct {
	Email     string
	FirstName string
	LastName  string
	Picture   string
	SubjectID string
}

// Service implements register, login, logout, and access-token rotation.
type Service struct {
	users      UserRepo
	sessions   SessionStore
	hasher     *security.Hasher
	signer     *security.TokenSigner
	accessTTL  time.Duration
	refreshTTL time.Duration
	emitter    telemetry.EventEmitter
}

// NewService returns a Service with the given dependencies. emitter may be nil.
func NewService(
	users UserRepo,
	sessions SessionStore,
	hasher *security.Hasher,
	signer *security.TokenSigner,
	accessTTL, refreshTTL time.Duration,
	emitter telemetry.EventEmitter,
) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		signer:     signer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		emitter:    emitter,
	}
}

// Register creates a local user with a bcrypt-hashed password. username and
// avatarURL are optional. Returns ErrEmailAlreadyRegistered for a duplicate
// email or username, whether caught by the lookup here or by the store's
// unique constraints when a concurrent insert wins the race.
func (s *Service) Register(ctx context.Context, email, password, name, username, avatarURL string) (*userdomain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(password) < 6 {
		return nil, errors.New("password must be at least 6 characters")
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.emitFault(ctx, "", telemetry.EventIdentityLookupError, "register", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Username:     strings.TrimSpace(username),
		AvatarURL:    avatarURL,
		Provider:     userdomain.AuthProviderLocal,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userdomain.ErrDuplicate) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks email/password against the stored hash and returns the
// user. Absent user, federated-only account (no password hash), or mismatch all
// yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*userdomain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.emitFault(ctx, "", telemetry.EventIdentityLookupError, "authenticate", err)
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UpsertGoogleUser returns the user for the profile's email, creating one with
// provider=google when none exists. An existing user is returned as-is regardless
// of how it was originally created.
func (s *Service) UpsertGoogleUser(ctx context.Context, profile GoogleProfile) (*userdomain.User, error) {
	email := strings.TrimSpace(strings.ToLower(profile.Email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.emitFault(ctx, "", telemetry.EventIdentityLookupError, "google_upsert", err)
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	now := time.Now().UTC()
	user = &userdomain.User{
		ID:         uuid.New().String(),
		Email:      email,
		Name:       strings.TrimSpace(profile.FirstName + " " + profile.LastName),
		AvatarURL:  profile.Picture,
		Provider:   userdomain.AuthProviderGoogle,
		ProviderID: profile.SubjectID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userdomain.ErrDuplicate) {
			// A concurrent upsert for the same email won; use its user.
			return s.users.GetByEmail(ctx, email)
		}
		return nil, err
	}
	return user, nil
}

// Login issues an access/refresh token pair for the already-verified user and
// stores a fresh session record under the user's id with the refresh TTL. Any
// previous record for the user is overwritten, revoked or not.
func (s *Service) Login(ctx context.Context, user *userdomain.User) (*Result, error) {
	access, accessExp, err := s.signer.Issue(user.ID, user.Email, user.Role, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.signer.Issue(user.ID, user.Email, user.Role, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	rec := sessiondomain.Record{RefreshToken: refresh, Revoked: false}
	if err := s.sessions.Put(ctx, user.ID, rec, s.refreshTTL); err != nil {
		s.emitFault(ctx, user.ID, telemetry.EventSessionStoreError, "login", err)
		return nil, err
	}
	return &Result{
		AccessToken:     access,
		AccessExpiresAt: accessExp,
		RefreshToken:    refresh,
		User:            user,
	}, nil
}

// Logout marks the principal's session revoked in place, preserving the record's
// remaining TTL. It is idempotent and never returns an error: a missing session,
// an already-revoked session, and a store failure all end the same way for the
// caller. Store failures are still surfaced to operators via telemetry.
func (s *Service) Logout(ctx context.Context, principalID string) error {
	rec, err := s.sessions.Get(ctx, principalID)
	if err != nil {
		s.emitFault(ctx, principalID, telemetry.EventSessionStoreError, "logout", err)
		return nil
	}
	if rec == nil {
		return nil
	}
	rec.Revoked = true
	if err := s.sessions.UpdateKeepTTL(ctx, principalID, *rec); err != nil {
		s.emitFault(ctx, principalID, telemetry.EventSessionStoreError, "logout", err)
	}
	return nil
}

// Rotate exchanges an expired access token for a fresh one. It recovers the
// subject from the expired token without trusting it, requires an active
// non-revoked session whose refresh token still verifies, and re-reads the
// principal so new claims are current rather than copied from the stale token.
// The refresh token and the session record are left untouched: repeated
// rotations never extend the session window.
//
// Every failure returns ErrRotationDenied; a store or identity failure (timeout
// included) denies rotation rather than retrying, and is emitted as an
// infrastructure fault.
func (s *Service) Rotate(ctx context.Context, expiredAccessToken string) (*Result, error) {
	claims := s.signer.DecodeUnsafe(expiredAccessToken)
	if claims == nil || claims.Subject == "" {
		return nil, ErrRotationDenied
	}

	rec, err := s.sessions.Get(ctx, claims.Subject)
	if err != nil {
		s.emitFault(ctx, claims.Subject, telemetry.EventSessionStoreError, "rotate", err)
		return nil, ErrRotationDenied
	}
	if rec == nil {
		// Session expired or never existed; the two are indistinguishable.
		return nil, ErrRotationDenied
	}
	if rec.Revoked {
		return nil, ErrRotationDenied
	}

	// The store TTL nominally matches the refresh token's lifetime, but the token
	// is verified independently; either check alone denies rotation.
	if _, err := s.signer.Verify(rec.RefreshToken); err != nil {
		return nil, ErrRotationDenied
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		s.emitFault(ctx, claims.Subject, telemetry.EventIdentityLookupError, "rotate", err)
		return nil, ErrRotationDenied
	}
	if user == nil {
		return nil, ErrRotationDenied
	}

	access, accessExp, err := s.signer.Issue(user.ID, user.Email, user.Role, s.accessTTL)
	if err != nil {
		log.Printf("auth: rotate: issue access token for %s: %v", user.ID, err)
		return nil, ErrRotationDenied
	}
	return &Result{
		AccessToken:     access,
		AccessExpiresAt: accessExp,
		User:            user,
	}, nil
}

func (s *Service) emitFault(ctx context.Context, principalID, eventType, source string, err error) {
	log.Printf("auth: %s during %s: %v", eventType, source, err)
	telemetry.EmitAsync(s.emitter, &telemetry.Event{
		PrincipalID: principalID,
		EventType:   eventType,
		Source:      source,
		Metadata:    map[string]string{"error": err.Error()},
		CreatedAt:   time.Now().UTC(),
	})
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}
