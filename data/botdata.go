package data

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// BotData is the singleton bot record: the deep-link token, the owner, the
// dating channel and the admin and pending lists. All mutation goes through
// methods; YAML round-trips through a private document type.
type BotData struct {
	uuid    string
	owner   int64
	channel int64
	admins  []int64
	pending []int64
}

// NewBotData mints a record with a fresh deep-link token.
func NewBotData() *BotData {
	return &BotData{uuid: uuid.NewString()}
}

// DeepLink renders the start link that authenticates the owner or an admin
// chat.
func (b *BotData) DeepLink(botUsername string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, b.uuid)
}

// VerifyToken reports whether token matches the deep-link token.
func (b *BotData) VerifyToken(token string) bool {
	return token != "" && token == b.uuid
}

// Owner returns the owner's user ID, zero while unclaimed.
func (b *BotData) Owner() int64 {
	return b.owner
}

// SetOwner claims ownership. The claim succeeds once and only with the
// deep-link token.
func (b *BotData) SetOwner(id int64, token string) error {
	if b.owner != 0 {
		return ErrOwnerSet
	}
	if !b.VerifyToken(token) {
		return ErrWrongToken
	}
	b.owner = id
	return nil
}

// Channel returns the dating channel ID, zero when unset.
func (b *BotData) Channel() int64 {
	return b.channel
}

// SetChannel records the dating channel.
func (b *BotData) SetChannel(id int64) {
	b.channel = id
}

// ClearChannel forgets the dating channel.
func (b *BotData) ClearChannel() {
	b.channel = 0
}

// Admins returns a copy of the admin list. Users have positive IDs, admin
// chats negative ones.
func (b *BotData) Admins() []int64 {
	return append([]int64(nil), b.admins...)
}

// IsAdmin reports whether id is the owner or listed as an admin.
func (b *BotData) IsAdmin(id int64) bool {
	if id != 0 && id == b.owner {
		return true
	}
	for _, a := range b.admins {
		if a == id {
			return true
		}
	}
	return false
}

// AddAdmin appends id to the admin list, reporting whether it was new.
func (b *BotData) AddAdmin(id int64) bool {
	for _, a := range b.admins {
		if a == id {
			return false
		}
	}
	b.admins = append(b.admins, id)
	return true
}

// RemoveAdmin drops id from the admin list, reporting whether it was there.
func (b *BotData) RemoveAdmin(id int64) bool {
	for i, a := range b.admins {
		if a == id {
			b.admins = append(b.admins[:i], b.admins[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns a copy of the pending form owner IDs.
func (b *BotData) Pending() []int64 {
	return append([]int64(nil), b.pending...)
}

// IsPending reports whether a user's form awaits review.
func (b *BotData) IsPending(id int64) bool {
	for _, p := range b.pending {
		if p == id {
			return true
		}
	}
	return false
}

// AddPending queues a user's form for review, reporting whether it was new.
func (b *BotData) AddPending(id int64) bool {
	if b.IsPending(id) {
		return false
	}
	b.pending = append(b.pending, id)
	return true
}

// RemovePending dequeues a user's form, reporting whether it was queued.
func (b *BotData) RemovePending(id int64) bool {
	for i, p := range b.pending {
		if p == id {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return true
		}
	}
	return false
}

type botYAML struct {
	UUID    string  `yaml:"uuid"`
	Owner   int64   `yaml:"owner,omitempty"`
	Channel int64   `yaml:"channel,omitempty"`
	Admins  []int64 `yaml:"admins,omitempty"`
	Pending []int64 `yaml:"pending,omitempty"`
}

// MarshalYAML serializes the record through the document type.
func (b BotData) MarshalYAML() (interface{}, error) {
	return botYAML{
		UUID:    b.uuid,
		Owner:   b.owner,
		Channel: b.channel,
		Admins:  b.admins,
		Pending: b.pending,
	}, nil
}

// UnmarshalYAML restores the record from its stored document.
func (b *BotData) UnmarshalYAML(node *yaml.Node) error {
	var raw botYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	b.uuid = raw.UUID
	b.owner = raw.Owner
	b.channel = raw.Channel
	b.admins = raw.Admins
	b.pending = raw.Pending
	return nil
}
