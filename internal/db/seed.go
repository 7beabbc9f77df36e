package db

import (
	"fmt"
	"time"
)

type seedUser struct {
	name        string
	initials    string
	avatarColor string
	badge       *string
}

type seedMessage struct {
	userID      int
	author      string
	initials    string
	avatarColor string
	badge       *string
	badgeColor  *string
	text        string
	timestamp   time.Time
}

func strPtr(s string) *string { return &s }

var seedUsers = []seedUser{
	{name: "Dr. Roberto Gómez", initials: "DR", avatarColor: "#8B1538", badge: strPtr("PROFESOR")},
	{name: "Administración", initials: "AD", avatarColor: "#006E7F", badge: strPtr("OFICIAL")},
	{name: "María López", initials: "ML", avatarColor: "#4A90E2", badge: strPtr("MONITOR")},
	{name: "Juan Pérez", initials: "JD", avatarColor: "#003366"},
	{name: "Carlos Silva", initials: "CS", avatarColor: "#003366"},
}

var seedMessages = []seedMessage{
	{
		userID:      1,
		author:      "Dr. Roberto Gómez",
		initials:    "DR",
		avatarColor: "#8B1538",
		badge:       strPtr("PROFESOR"),
		badgeColor:  strPtr("#FFB81C"),
		text:        "¡Buenos días a todos! Les recuerdo que mañana tenemos examen parcial de Cálculo I. El examen será presencial en el Aula Magna a las 8:00 AM. Lleguen 15 minutos antes con su identificación estudiantil.",
		timestamp:   time.Date(2025, 2, 13, 10, 30, 0, 0, time.UTC),
	},
	{
		userID:      2,
		author:      "Administración",
		initials:    "AD",
		avatarColor: "#006E7F",
		badge:       strPtr("OFICIAL"),
		badgeColor:  strPtr("#006E7F"),
		text:        "📚 **Biblioteca Virtual Actualizada**\nYa están disponibles los nuevos recursos digitales para el semestre. Pueden acceder desde el canal #biblioteca-virtual con sus credenciales institucionales.",
		timestamp:   time.Date(2025, 2, 13, 9, 15, 0, 0, time.UTC),
	},
	{
		userID:      3,
		author:      "María López",
		initials:    "ML",
		avatarColor: "#4A90E2",
		badge:       strPtr("MONITOR"),
		badgeColor:  strPtr("#10b981"),
		text:        "Hola equipo 👋 Les comparto el calendario de tutorías de esta semana:",
		timestamp:   time.Date(2025, 2, 13, 8, 45, 0, 0, time.UTC),
	},
}

// Seed loads the fixed demo records: campus system users without login
// credentials, a handful of announcements and one pdf attachment. Meant to
// run on freshly reset tables. Returns the number of users and messages
// inserted.
func (db *DB) Seed() (int, int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range seedUsers {
		_, err := tx.Exec(`
			INSERT INTO users (name, initials, avatar_color, badge, status)
			VALUES (?, ?, ?, ?, 'online')
		`, u.name, u.initials, u.avatarColor, u.badge)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to seed user %q: %w", u.name, err)
		}
	}

	var lastMessageID int64
	for _, m := range seedMessages {
		result, err := tx.Exec(`
			INSERT INTO messages (user_id, author, author_initials, avatar_color, badge, badge_color, text, edited, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
		`, m.userID, m.author, m.initials, m.avatarColor, m.badge, m.badgeColor, m.text, m.timestamp)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to seed message: %w", err)
		}
		lastMessageID, err = result.LastInsertId()
		if err != nil {
			return 0, 0, fmt.Errorf("failed to seed message: %w", err)
		}
	}

	// The tutoring calendar hangs off the last announcement.
	_, err = tx.Exec(`
		INSERT INTO attachments (message_id, name, size, type)
		VALUES (?, 'calendario-tutorias-marzo.pdf', '245 KB', 'pdf')
	`, lastMessageID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to seed attachment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit seed: %w", err)
	}

	return len(seedUsers), len(seedMessages), nil
}
