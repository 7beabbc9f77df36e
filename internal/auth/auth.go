package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/unicampus/campus-chat/internal/models"
)

// Sentinel errors handlers translate into HTTP statuses.
var (
	ErrMissingFields      = errors.New("email, password and name are required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
)

// avatarPalette is the fixed university palette a new account's avatar color
// is drawn from.
var avatarPalette = []string{"#003366", "#FFB81C", "#006E7F", "#8B1538", "#4A90E2"}

type Service struct {
	db        *sql.DB
	jwtSecret string
	tokenTTL  time.Duration
}

type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func New(db *sql.DB, jwtSecret string) *Service {
	return NewWithTokenTTL(db, jwtSecret, 24*time.Hour)
}

func NewWithTokenTTL(db *sql.DB, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL == 0 {
		tokenTTL = 24 * time.Hour
	}

	return &Service{
		db:        db,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates an account with a bcrypt-hashed password. The plaintext is
// never stored. Initials are derived from the name and the avatar color is
// drawn at random from the campus palette.
func (s *Service) Register(email, password, name string, badge *string) (models.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return models.User{}, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:       &email,
		Name:        name,
		Initials:    deriveInitials(name),
		AvatarColor: avatarPalette[rand.Intn(len(avatarPalette))],
		Badge:       badge,
		Status:      "online",
	}

	result, err := s.db.Exec(`
		INSERT INTO users (email, password_hash, name, initials, avatar_color, badge, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, email, string(hash), user.Name, user.Initials, user.AvatarColor, user.Badge, user.Status)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("failed to register user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to register user: %w", err)
	}
	user.ID = int(id)

	return user, nil
}

// Login verifies the credentials, flips the user online and issues a token.
// Unknown email and wrong password both return ErrInvalidCredentials so the
// API does not leak which addresses are registered.
func (s *Service) Login(email, password string) (models.User, string, error) {
	email = strings.TrimSpace(email)

	var user models.User
	var emailCol, badge, passwordHash sql.NullString
	err := s.db.QueryRow(`
		SELECT id, email, password_hash, name, initials, avatar_color, badge, status, created_at
		FROM users WHERE email = ?
	`, email).Scan(&user.ID, &emailCol, &passwordHash, &user.Name, &user.Initials,
		&user.AvatarColor, &badge, &user.Status, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, "", ErrInvalidCredentials
		}
		return models.User{}, "", fmt.Errorf("failed to query user: %w", err)
	}
	user.Email = models.NullableString(emailCol)
	user.Badge = models.NullableString(badge)

	// Seed system users carry no hash and can never log in.
	if !passwordHash.Valid {
		return models.User{}, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash.String), []byte(password)); err != nil {
		return models.User{}, "", ErrInvalidCredentials
	}

	if err := s.SetStatus(user.ID, "online"); err != nil {
		return models.User{}, "", err
	}
	user.Status = "online"

	token, err := s.GenerateToken(user.ID, email)
	if err != nil {
		return models.User{}, "", err
	}

	return user, token, nil
}

// GenerateToken issues a signed HS256 bearer token carrying the user identity.
// Tokens are stateless: there is no revocation list, and logout does not
// invalidate them.
func (s *Service) GenerateToken(userID int, email string) (string, error) {
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken checks signature and expiry. Expired tokens are reported
// distinctly from malformed or tampered ones.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// GetUserByID resolves a token's user id to the full user record.
func (s *Service) GetUserByID(id int) (models.User, error) {
	var user models.User
	var email, badge sql.NullString
	err := s.db.QueryRow(`
		SELECT id, email, name, initials, avatar_color, badge, status, created_at
		FROM users WHERE id = ?
	`, id).Scan(&user.ID, &email, &user.Name, &user.Initials, &user.AvatarColor,
		&badge, &user.Status, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	user.Email = models.NullableString(email)
	user.Badge = models.NullableString(badge)

	return user, nil
}

// SetStatus updates the display presence flag. It has no effect on issued
// tokens.
func (s *Service) SetStatus(userID int, status string) error {
	_, err := s.db.Exec("UPDATE users SET status = ? WHERE id = ?", status, userID)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// deriveInitials follows the campus convention: two or more name parts use
// the first letter of the first and last part; a single part uses its first
// two characters. Always uppercased.
func deriveInitials(name string) string {
	parts := strings.Fields(name)
	if len(parts) >= 2 {
		first := []rune(parts[0])
		last := []rune(parts[len(parts)-1])
		return strings.ToUpper(string(first[0]) + string(last[0]))
	}

	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}
