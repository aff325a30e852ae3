package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/projecthub-be/internal/apperrors"
	"github.com/isdelr/projecthub-be/internal/models"
	"github.com/isdelr/projecthub-be/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthenticated)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Signup(ctx context.Context, in models.SignupInput) (models.User, error)
	Authenticate(ctx context.Context, in models.SigninInput) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string, withPassword bool) (models.User, error)
	CreateUser(ctx context.Context, user models.User) (models.User, error)
}

// UserService is the credential store: it persists identities and checks
// passwords.
type UserService struct {
	db         *sql.DB
	events     EventServiceProvider
	bcryptCost int
	now        func() time.Time

	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
	compare   func(hash, password []byte) error
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events EventServiceProvider, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)
	return &UserService{
		db:         db,
		events:     events,
		bcryptCost: bcryptCost,
		now:        time.Now,
		dummyHash:  dummyHash,
		compare:    bcrypt.CompareHashAndPassword,
	}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	if err := validation.ID("user", id); err != nil {
		return models.User{}, err
	}
	var user models.User
	var createdAt int64
	row := s.db.QueryRowContext(ctx, "SELECT id, email, first_name, last_name, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperrors.NotFound("user", id)
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

// FindByEmail retrieves a user by email. The password hash is only loaded
// when withPassword is set.
func (s *UserService) FindByEmail(ctx context.Context, email string, withPassword bool) (models.User, error) {
	email = models.NormalizeEmail(email)
	var user models.User
	var createdAt int64
	row := s.db.QueryRowContext(ctx, "SELECT id, email, first_name, last_name, password_hash, created_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%w: user with email %s", apperrors.ErrNotFound, email)
		}
		return models.User{}, fmt.Errorf("find user by email: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	if !withPassword {
		user.PasswordHash = ""
	}
	return user, nil
}

// CreateUser inserts a user whose password is already hashed. A duplicate
// email yields ErrConflict.
func (s *UserService) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	user.CreatedAt = truncate(user.CreatedAt)
	user.Email = models.NormalizeEmail(user.Email)

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, first_name, last_name, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, toMillis(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, fmt.Errorf("%w: email already taken", apperrors.ErrConflict)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Signup validates the payload, hashes the password and creates the user.
func (s *UserService) Signup(ctx context.Context, in models.SignupInput) (models.User, error) {
	in.Normalize()
	if err := validation.Struct(&in); err != nil {
		return models.User{}, err
	}

	if _, err := s.FindByEmail(ctx, in.Email, false); err == nil {
		return models.User{}, fmt.Errorf("%w: email already taken", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.CreateUser(ctx, models.User{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hashedPassword),
	})
	if err != nil {
		return models.User{}, err
	}
	recordEvent(ctx, s.events, "user.signup", fmt.Sprintf("%s %s signed up", user.FirstName, user.LastName), user.ID, user.ID)
	return user, nil
}

// Authenticate verifies a user's credentials. Unknown emails and wrong
// passwords fail identically.
func (s *UserService) Authenticate(ctx context.Context, in models.SigninInput) (models.User, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validation.Struct(&in); err != nil {
		return models.User{}, err
	}

	user, err := s.FindByEmail(ctx, in.Email, true)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = s.compare(s.dummyHash, []byte(in.Password))
			return models.User{}, errInvalidCredentials
		}
		return models.User{}, err
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return models.User{}, errInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}
