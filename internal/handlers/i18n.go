package handlers

import "github.com/unicampus/campus-chat/pkg/i18n"

// __ translates a message key into the user-facing Spanish string.
func __(key string) string {
	return i18n.Translate(key)
}
