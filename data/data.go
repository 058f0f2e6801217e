// Package data holds the bot's persisted entity records: per-user form
// state, per-chat message bookkeeping and the singleton bot record. The
// records know nothing about the transport; sending goes through the
// Messenger port.
package data

import (
	"strconv"
	"strings"
)

// ChatInfo is the transport-neutral description of a Telegram chat or user,
// produced by the transport layer.
type ChatInfo struct {
	ID        int64
	Username  string
	Title     string
	FirstName string
	LastName  string
}

// Meta identifies a stored entity. Name is display-oriented and feeds the
// on-disk directory name.
type Meta struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// NewMeta derives entity identity from chat info. Preference order:
// username, chat title, personal name, numeric ID.
func NewMeta(info ChatInfo) Meta {
	name := info.Username
	if name == "" {
		name = info.Title
	}
	if name == "" {
		name = strings.TrimSpace(info.FirstName + " " + info.LastName)
	}
	if name == "" {
		name = strconv.FormatInt(info.ID, 10)
	}
	return Meta{ID: info.ID, Name: name}
}
