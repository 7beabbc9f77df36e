package auth

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUsersSchema = `
	CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE,
		password_hash TEXT,
		name TEXT NOT NULL,
		initials TEXT NOT NULL,
		avatar_color TEXT NOT NULL DEFAULT '#003366',
		badge TEXT,
		status TEXT NOT NULL DEFAULT 'online',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
`

func newTestService(t *testing.T) *Service {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// a second pooled connection would see a different in-memory database
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Exec(testUsersSchema)
	require.NoError(t, err)

	return New(conn, "test-jwt-secret")
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)

	badge := "PROFESOR"
	user, err := svc.Register("ana@campus.edu", "secreta123", "Ana Ruiz", &badge)
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	require.NotNil(t, user.Email)
	assert.Equal(t, "ana@campus.edu", *user.Email)
	assert.Equal(t, "Ana Ruiz", user.Name)
	assert.Equal(t, "AR", user.Initials)
	assert.Contains(t, avatarPalette, user.AvatarColor)
	require.NotNil(t, user.Badge)
	assert.Equal(t, "PROFESOR", *user.Badge)
	assert.Equal(t, "online", user.Status)

	// the stored hash must not be the plaintext
	var hash string
	err = svc.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", user.ID).Scan(&hash)
	require.NoError(t, err)
	assert.NotEqual(t, "secreta123", hash)
	assert.NotContains(t, hash, "secreta123")
}

func TestRegisterMissingFields(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name     string
		email    string
		password string
		fullName string
	}{
		{name: "missing email", email: "", password: "pw", fullName: "Ana Ruiz"},
		{name: "missing password", email: "a@x.com", password: "", fullName: "Ana Ruiz"},
		{name: "missing name", email: "a@x.com", password: "pw", fullName: ""},
		{name: "blank name", email: "a@x.com", password: "pw", fullName: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.email, tt.password, tt.fullName, nil)
			assert.ErrorIs(t, err, ErrMissingFields)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register("a@x.com", "pw", "Ana Ruiz", nil)
	require.NoError(t, err)

	// same email always conflicts, other fields do not matter
	_, err = svc.Register("a@x.com", "different", "Otro Nombre", nil)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestDeriveInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Ana Ruiz", want: "AR"},
		{name: "X", want: "X"},
		{name: "Ana", want: "AN"},
		{name: "Juan Carlos Pérez", want: "JP"},
		{name: "maría lópez", want: "ML"},
		{name: "  Ana   Ruiz  ", want: "AR"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, deriveInitials(tt.name), "name %q", tt.name)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)

	registered, err := svc.Register("ana@campus.edu", "secreta123", "Ana Ruiz", nil)
	require.NoError(t, err)
	require.NoError(t, svc.SetStatus(registered.ID, "offline"))

	user, token, err := svc.Login("ana@campus.edu", "secreta123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "online", user.Status)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, "ana@campus.edu", claims.Email)
}

func TestLoginDoesNotLeakAccountExistence(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register("ana@campus.edu", "secreta123", "Ana Ruiz", nil)
	require.NoError(t, err)

	_, _, wrongPassword := svc.Login("ana@campus.edu", "incorrecta")
	_, _, unknownEmail := svc.Login("nadie@campus.edu", "secreta123")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginSeedUserWithoutPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.db.Exec(`
		INSERT INTO users (email, name, initials) VALUES ('sistema@campus.edu', 'Administración', 'AD')
	`)
	require.NoError(t, err)

	_, _, err = svc.Login("sistema@campus.edu", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.GenerateToken(42, "ana@campus.edu")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "ana@campus.edu", claims.Email)
}

func TestValidateTokenExpired(t *testing.T) {
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	svc := NewWithTokenTTL(conn, "test-jwt-secret", -time.Minute)

	token, err := svc.GenerateToken(1, "ana@campus.edu")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateTokenInvalid(t *testing.T) {
	svc := newTestService(t)

	otherSvc := NewWithTokenTTL(svc.db, "a-different-secret", time.Hour)
	foreign, err := otherSvc.GenerateToken(1, "ana@campus.edu")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: foreign},
		{name: "garbage", token: "not.a.jwt"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestGetUserByID(t *testing.T) {
	svc := newTestService(t)

	registered, err := svc.Register("ana@campus.edu", "secreta123", "Ana Ruiz", nil)
	require.NoError(t, err)

	user, err := svc.GetUserByID(registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, "Ana Ruiz", user.Name)

	_, err = svc.GetUserByID(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
