package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unicampus/campus-chat/internal/db"
	"github.com/unicampus/campus-chat/internal/models"
)

// badgeHighlightColor marks posts from badge holders (professors, staff).
const badgeHighlightColor = "#FFB81C"

type MessageHandler struct {
	db    *sql.DB
	store *db.DB
}

func NewMessageHandler(store *db.DB) *MessageHandler {
	return &MessageHandler{db: store.GetConn(), store: store}
}

const messageColumns = "id, user_id, author, author_initials, avatar_color, badge, badge_color, text, edited, timestamp"

func scanMessage(row interface{ Scan(...any) error }) (models.Message, error) {
	var msg models.Message
	var badge, badgeColor sql.NullString
	err := row.Scan(&msg.ID, &msg.UserID, &msg.Author, &msg.AuthorInitials,
		&msg.AvatarColor, &badge, &badgeColor, &msg.Text, &msg.Edited, &msg.Timestamp)
	if err != nil {
		return models.Message{}, err
	}
	msg.Badge = models.NullableString(badge)
	msg.BadgeColor = models.NullableString(badgeColor)
	msg.Attachments = []models.Attachment{}
	return msg, nil
}

func (h *MessageHandler) loadAttachments(messageID int) ([]models.Attachment, error) {
	rows, err := h.db.Query(`
		SELECT id, message_id, name, size, type, data FROM attachments
		WHERE message_id = ? ORDER BY id
	`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := []models.Attachment{}
	for rows.Next() {
		var att models.Attachment
		var data sql.NullString
		if err := rows.Scan(&att.ID, &att.MessageID, &att.Name, &att.Size, &att.Type, &data); err != nil {
			return nil, err
		}
		att.Data = models.NullableString(data)
		attachments = append(attachments, att)
	}
	return attachments, rows.Err()
}

// ListMessages returns the whole channel history, oldest first. Ties on
// timestamp fall back to insertion order. Public and read-only.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	rows, err := h.db.Query("SELECT " + messageColumns + " FROM messages ORDER BY timestamp ASC, id ASC")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to fetch messages")})
		return
	}
	defer rows.Close()

	messages := []models.Message{}
	byID := map[int]int{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to fetch messages")})
			return
		}
		byID[msg.ID] = len(messages)
		messages = append(messages, msg)
	}
	rows.Close()

	attRows, err := h.db.Query("SELECT id, message_id, name, size, type, data FROM attachments ORDER BY message_id, id")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to fetch messages")})
		return
	}
	defer attRows.Close()

	for attRows.Next() {
		var att models.Attachment
		var data sql.NullString
		if err := attRows.Scan(&att.ID, &att.MessageID, &att.Name, &att.Size, &att.Type, &data); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to fetch messages")})
			return
		}
		att.Data = models.NullableString(data)
		if idx, ok := byID[att.MessageID]; ok {
			messages[idx].Attachments = append(messages[idx].Attachments, att)
		}
	}

	c.JSON(http.StatusOK, messages)
}

// GetMessage returns one message with its attachments. Public.
func (h *MessageHandler) GetMessage(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("invalid message id")})
		return
	}

	msg, err := scanMessage(h.db.QueryRow("SELECT "+messageColumns+" FROM messages WHERE id = ?", messageID))
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": __("message not found")})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to fetch message")})
		return
	}

	if msg.Attachments, err = h.loadAttachments(msg.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to fetch message")})
		return
	}

	c.JSON(http.StatusOK, msg)
}

type AttachmentRequest struct {
	Name string  `json:"name"`
	Size string  `json:"size"`
	Type string  `json:"type"`
	Data *string `json:"data"`
}

type CreateMessageRequest struct {
	Text        string              `json:"text"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// CreateMessage posts on behalf of the authenticated user. The author
// display fields are copied from the user record at this instant and never
// synced afterwards. Message and attachments land in one transaction.
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": __("no token")})
		return
	}

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("invalid request")})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("text is required")})
		return
	}

	var badgeColor *string
	if user.Badge != nil {
		color := badgeHighlightColor
		badgeColor = &color
	}

	tx, err := h.db.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to create message")})
		return
	}
	defer tx.Rollback()

	msg := models.Message{
		UserID:         user.ID,
		Author:         user.Name,
		AuthorInitials: user.Initials,
		AvatarColor:    user.AvatarColor,
		Badge:          user.Badge,
		BadgeColor:     badgeColor,
		Text:           req.Text,
		Timestamp:      time.Now().UTC(),
		Attachments:    []models.Attachment{},
	}

	result, err := tx.Exec(`
		INSERT INTO messages (user_id, author, author_initials, avatar_color, badge, badge_color, text, edited, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)
	`, msg.UserID, msg.Author, msg.AuthorInitials, msg.AvatarColor, msg.Badge, msg.BadgeColor, msg.Text, msg.Timestamp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to create message")})
		return
	}

	messageID, err := result.LastInsertId()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to create message")})
		return
	}
	msg.ID = int(messageID)

	for _, att := range req.Attachments {
		attResult, err := tx.Exec(`
			INSERT INTO attachments (message_id, name, size, type, data)
			VALUES (?, ?, ?, ?, ?)
		`, messageID, att.Name, att.Size, att.Type, att.Data)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to create message")})
			return
		}
		attID, err := attResult.LastInsertId()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to create message")})
			return
		}
		msg.Attachments = append(msg.Attachments, models.Attachment{
			ID:        int(attID),
			MessageID: msg.ID,
			Name:      att.Name,
			Size:      att.Size,
			Type:      att.Type,
			Data:      att.Data,
		})
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to create message")})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

type UpdateMessageRequest struct {
	Text *string `json:"text"`
}

// UpdateMessage edits a message's text. Only the author may edit, and the
// edited flag is set even when the new text equals the old one.
func (h *MessageHandler) UpdateMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": __("no token")})
		return
	}

	messageID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("invalid message id")})
		return
	}

	var req UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("invalid request")})
		return
	}

	var ownerID int
	err = h.db.QueryRow("SELECT user_id FROM messages WHERE id = ?", messageID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": __("message not found")})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to fetch message")})
		return
	}

	if ownerID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": __("no permission to edit this message")})
		return
	}

	if req.Text != nil {
		_, err = h.db.Exec("UPDATE messages SET text = ?, edited = 1 WHERE id = ?", *req.Text, messageID)
	} else {
		_, err = h.db.Exec("UPDATE messages SET edited = 1 WHERE id = ?", messageID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to update message")})
		return
	}

	msg, err := scanMessage(h.db.QueryRow("SELECT "+messageColumns+" FROM messages WHERE id = ?", messageID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to fetch message")})
		return
	}
	if msg.Attachments, err = h.loadAttachments(msg.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to fetch message")})
		return
	}

	c.JSON(http.StatusOK, msg)
}

// DeleteMessage removes a message and all of its attachments in one
// transaction. Only the author may delete.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": __("no token")})
		return
	}

	messageID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("invalid message id")})
		return
	}

	var ownerID int
	err = h.db.QueryRow("SELECT user_id FROM messages WHERE id = ?", messageID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": __("message not found")})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to fetch message")})
		return
	}

	if ownerID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": __("no permission to delete this message")})
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to delete message")})
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM attachments WHERE message_id = ?", messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to delete message")})
		return
	}
	if _, err := tx.Exec("DELETE FROM messages WHERE id = ?", messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to delete message")})
		return
	}
	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to delete message")})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": __("message deleted successfully")})
}

type UploadImageRequest struct {
	MessageID *int    `json:"messageId"`
	Name      string  `json:"name"`
	Size      string  `json:"size"`
	Image     *string `json:"image"`
}

// UploadImage attaches an inline base64 image to an existing message. The
// payload is stored and returned verbatim.
func (h *MessageHandler) UploadImage(c *gin.Context) {
	var req UploadImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("invalid request")})
		return
	}

	if req.MessageID == nil || req.Image == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("incomplete data")})
		return
	}

	var exists bool
	err := h.db.QueryRow("SELECT EXISTS(SELECT 1 FROM messages WHERE id = ?)", *req.MessageID).Scan(&exists)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to save attachment")})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": __("message not found")})
		return
	}

	result, err := h.db.Exec(`
		INSERT INTO attachments (message_id, name, size, type, data)
		VALUES (?, ?, ?, 'image', ?)
	`, *req.MessageID, req.Name, req.Size, *req.Image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to save attachment")})
		return
	}

	id, _ := result.LastInsertId()
	c.JSON(http.StatusCreated, models.Attachment{
		ID:        int(id),
		MessageID: *req.MessageID,
		Name:      req.Name,
		Size:      req.Size,
		Type:      "image",
		Data:      req.Image,
	})
}

// InitDatabase destructively resets all data and loads the demo fixtures.
func (h *MessageHandler) InitDatabase(c *gin.Context) {
	if err := h.store.Reset(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to initialize database")})
		return
	}

	users, messages, err := h.store.Seed()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to initialize database")})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  __("database initialized successfully"),
		"users":    users,
		"messages": messages,
	})
}
