package data

import (
	"fmt"

	"github.com/polydating/datingbot/form"
)

// slotCount is the number of editable dialog messages a chat keeps.
const slotCount = 2

// ChatData is the per-chat record: the editable dialog message slots, the
// error banner, message IDs of forms currently displayed in the chat and a
// flag raised when foreign traffic pushed the dialog out of view.
type ChatData struct {
	Meta        `yaml:",inline"`
	Slots       [slotCount]int  `yaml:"slots,omitempty"`
	ErrorMsg    int             `yaml:"error_msg,omitempty"`
	Forms       map[int64][]int `yaml:"forms,omitempty"`
	NeedsUpdate bool            `yaml:"needs_update,omitempty"`
}

// NewChatData builds a fresh record for a chat.
func NewChatData(info ChatInfo) *ChatData {
	return &ChatData{Meta: NewMeta(info)}
}

// PrintMessages renders the dialog into the editable slots: existing slot
// messages are edited in place, missing ones sent, surplus ones deleted.
// When the chat needs a full refresh the old slots are dropped and resent
// so the dialog lands at the bottom again.
func (c *ChatData) PrintMessages(m Messenger, outs ...Outgoing) error {
	if len(outs) > slotCount {
		return fmt.Errorf("%d messages do not fit %d slots", len(outs), slotCount)
	}
	if c.NeedsUpdate {
		for i, id := range c.Slots {
			if id != 0 {
				_ = m.Delete(c.ID, id)
				c.Slots[i] = 0
			}
		}
		c.NeedsUpdate = false
	}
	for i := 0; i < slotCount; i++ {
		switch {
		case i < len(outs) && c.Slots[i] != 0:
			id, err := m.Edit(c.ID, c.Slots[i], outs[i])
			if err != nil {
				// slot message is gone; send a replacement
				id, err = m.Send(c.ID, outs[i])
				if err != nil {
					return err
				}
			}
			c.Slots[i] = id
		case i < len(outs):
			id, err := m.Send(c.ID, outs[i])
			if err != nil {
				return err
			}
			c.Slots[i] = id
		case c.Slots[i] != 0:
			_ = m.Delete(c.ID, c.Slots[i])
			c.Slots[i] = 0
		}
	}
	return nil
}

// PrintError replaces the error banner with text.
func (c *ChatData) PrintError(m Messenger, text string) error {
	c.ClearError(m)
	id, err := m.Send(c.ID, Outgoing{Text: text})
	if err != nil {
		return err
	}
	c.ErrorMsg = id
	return nil
}

// ClearError removes the error banner if one is up.
func (c *ChatData) ClearError(m Messenger) {
	if c.ErrorMsg != 0 {
		_ = m.Delete(c.ID, c.ErrorMsg)
		c.ErrorMsg = 0
	}
}

// ShowForm sends the user's rendered form into this chat and records the
// message IDs so it can be removed later. A hide button, when given, is
// attached to the last text chunk.
func (c *ChatData) ShowForm(m Messenger, schema *form.Schema, user *UserData, maxLen int, hide *Button) error {
	c.DeleteForm(m, user.ID)

	var ids []int
	record := func(id int) { ids = append(ids, id) }

	chunks := user.Form.RenderBody(schema, user.Nick(), maxLen)
	for i, chunk := range chunks {
		out := Outgoing{Text: chunk, Markdown: true}
		if hide != nil && i == len(chunks)-1 {
			out.Keyboard = [][]Button{{*hide}}
		}
		id, err := m.Send(c.ID, out)
		if err != nil {
			return err
		}
		record(id)
	}

	if a, ok := user.Form.Answer(form.TagPhoto); ok {
		albumIDs, err := m.SendPhotoAlbum(c.ID, a.Files)
		if err != nil {
			return err
		}
		ids = append(ids, albumIDs...)
	}
	if a, ok := user.Form.Answer(form.TagSoundtrack); ok && a.Kind == form.KindAudio && len(a.Files) > 0 {
		id, err := m.SendAudio(c.ID, a.Files[0])
		if err != nil {
			return err
		}
		record(id)
	}

	if c.Forms == nil {
		c.Forms = make(map[int64][]int)
	}
	c.Forms[user.ID] = ids
	return nil
}

// AddFormMessages records extra displayed messages (media previews) under a
// user's form entry so they are cleaned up together.
func (c *ChatData) AddFormMessages(userID int64, ids ...int) {
	if len(ids) == 0 {
		return
	}
	if c.Forms == nil {
		c.Forms = make(map[int64][]int)
	}
	c.Forms[userID] = append(c.Forms[userID], ids...)
}

// DeleteForm removes a displayed form copy, reporting whether one was up.
func (c *ChatData) DeleteForm(m Messenger, userID int64) bool {
	ids, ok := c.Forms[userID]
	if !ok {
		return false
	}
	for _, id := range ids {
		_ = m.Delete(c.ID, id)
	}
	delete(c.Forms, userID)
	return true
}

// ClearForms removes every displayed form copy.
func (c *ChatData) ClearForms(m Messenger) {
	for userID := range c.Forms {
		c.DeleteForm(m, userID)
	}
}
