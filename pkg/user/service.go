package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openlabshq/rangeapi/internal/apperr"
	"github.com/openlabshq/rangeapi/internal/auth"
	"github.com/openlabshq/rangeapi/pkg/secretvault"
)

// Service implements registration and login: the KDF, RSA keypair minting,
// and bcrypt hashing of §4.1/§9 wired to the user store.
type Service struct {
	store *Store
}

// NewService creates a user Service.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Register creates a new account: derives a salt, mints an RSA envelope
// keypair, wraps the private key under the password-derived master key,
// and persists the row. Returns ErrEmailTaken if the email is already
// registered.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	exists, err := s.store.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return User{}, fmt.Errorf("checking existing account: %w", err)
	}
	if exists {
		return User{}, apperr.New(apperr.KindConflict, "an account with this email already exists")
	}

	salt, err := secretvault.NewSalt()
	if err != nil {
		return User{}, fmt.Errorf("generating key salt: %w", err)
	}

	pubPEM, privPEM, err := secretvault.GenerateKeyPair()
	if err != nil {
		return User{}, fmt.Errorf("generating envelope keypair: %w", err)
	}

	masterKey, err := secretvault.DeriveMasterKey(req.Password, salt)
	if err != nil {
		return User{}, fmt.Errorf("deriving master key: %w", err)
	}

	encryptedPriv, err := secretvault.EncryptPrivateKey(privPEM, masterKey)
	if err != nil {
		return User{}, fmt.Errorf("wrapping private key: %w", err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	return s.store.Create(ctx, CreateParams{
		Email:               req.Email,
		Name:                req.Name,
		PasswordHash:        passwordHash,
		KeySalt:             salt,
		PublicKey:           pubPEM,
		EncryptedPrivateKey: encryptedPriv,
		IsAdmin:             false,
	})
}

// Authenticate verifies email/password and returns the user plus the
// password-derived master key, ready to be set as the enc_key cookie.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, []byte, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, nil, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
		}
		return User{}, nil, fmt.Errorf("looking up user: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return User{}, nil, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}

	masterKey, err := secretvault.DeriveMasterKey(password, u.KeySalt)
	if err != nil {
		return User{}, nil, fmt.Errorf("deriving master key: %w", err)
	}

	return u, masterKey, nil
}

// Get returns a user by ID, translating a missing row to NotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.New(apperr.KindNotFound, "user not found")
		}
		return User{}, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}
