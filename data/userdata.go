package data

import (
	"github.com/polydating/datingbot/form"
	"github.com/polydating/datingbot/telegram/format"
)

// UserData is the per-user record: the form under construction, the
// wrapping question cursor and the dialog position to return to. Back is a
// plain state tag; resolving it to behavior is the dialog's job.
type UserData struct {
	Meta     `yaml:",inline"`
	Username string    `yaml:"username,omitempty"`
	Form     form.Form `yaml:"form"`
	Question int       `yaml:"question"`
	Back     string    `yaml:"back,omitempty"`
	// Published holds channel message IDs of the posted form so a later
	// delete can remove them.
	Published []int `yaml:"published,omitempty"`
}

// NewUserData builds a fresh record for a user.
func NewUserData(info ChatInfo) *UserData {
	return &UserData{Meta: NewMeta(info), Username: info.Username}
}

// Nick returns the handle printed on published forms.
func (u *UserData) Nick() string {
	return format.Mention(u.Username, u.Name)
}

// CurrentQuestion resolves the cursor against the schema.
func (u *UserData) CurrentQuestion(schema *form.Schema) form.Question {
	u.Question = schema.WrapIndex(u.Question)
	return schema.At(u.Question)
}

// ShiftQuestion moves the cursor by delta, wrapping in both directions.
func (u *UserData) ShiftQuestion(schema *form.Schema, delta int) form.Question {
	u.Question = schema.WrapIndex(u.Question + delta)
	return schema.At(u.Question)
}
