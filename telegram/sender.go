package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/telegram/keyboard"
)

// Sender adapts a Telebot bot to the data.Messenger and data.Resolver
// ports. It is created before the bot exists and bound once the bot is up;
// handlers never run before that.
type Sender struct {
	mu  sync.RWMutex
	bot *tele.Bot
}

// NewSender creates an unbound sender.
func NewSender() *Sender {
	return &Sender{}
}

// Bind attaches the running bot.
func (s *Sender) Bind(bot *tele.Bot) {
	s.mu.Lock()
	s.bot = bot
	s.mu.Unlock()
}

func (s *Sender) bound() (*tele.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bot == nil {
		return nil, errors.New("telegram: sender not bound to a bot")
	}
	return s.bot, nil
}

// Send delivers one message and returns its ID.
func (s *Sender) Send(chatID int64, out data.Outgoing) (int, error) {
	bot, err := s.bound()
	if err != nil {
		return 0, err
	}
	msg, err := bot.Send(tele.ChatID(chatID), out.Text, sendOptions(out))
	if err != nil {
		return 0, fmt.Errorf("send to %d: %w", chatID, err)
	}
	return msg.ID, nil
}

// Edit rewrites an existing message in place.
func (s *Sender) Edit(chatID int64, messageID int, out data.Outgoing) (int, error) {
	bot, err := s.bound()
	if err != nil {
		return 0, err
	}
	stored := &tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}
	msg, err := bot.Edit(stored, out.Text, sendOptions(out))
	if err != nil {
		return 0, fmt.Errorf("edit %d in %d: %w", messageID, chatID, err)
	}
	return msg.ID, nil
}

// Delete removes a message.
func (s *Sender) Delete(chatID int64, messageID int) error {
	bot, err := s.bound()
	if err != nil {
		return err
	}
	stored := &tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}
	if err := bot.Delete(stored); err != nil {
		return fmt.Errorf("delete %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

// SendPhotoAlbum delivers stored photos as one media group.
func (s *Sender) SendPhotoAlbum(chatID int64, files []string) ([]int, error) {
	bot, err := s.bound()
	if err != nil {
		return nil, err
	}
	album := make(tele.Album, 0, len(files))
	for _, f := range files {
		album = append(album, &tele.Photo{File: tele.File{FileID: f}})
	}
	msgs, err := bot.SendAlbum(tele.ChatID(chatID), album)
	if err != nil {
		return nil, fmt.Errorf("send album to %d: %w", chatID, err)
	}
	ids := make([]int, len(msgs))
	for i := range msgs {
		ids[i] = msgs[i].ID
	}
	return ids, nil
}

// SendAudio delivers one stored audio file.
func (s *Sender) SendAudio(chatID int64, file string) (int, error) {
	bot, err := s.bound()
	if err != nil {
		return 0, err
	}
	msg, err := bot.Send(tele.ChatID(chatID), &tele.Audio{File: tele.File{FileID: file}})
	if err != nil {
		return 0, fmt.Errorf("send audio to %d: %w", chatID, err)
	}
	return msg.ID, nil
}

// ResolveChat looks a chat up by ID. IDs Telegram does not know yield
// ErrIncorrectID.
func (s *Sender) ResolveChat(id int64) (data.ChatInfo, error) {
	bot, err := s.bound()
	if err != nil {
		return data.ChatInfo{}, err
	}
	chat, err := bot.ChatByID(id)
	if err != nil {
		return data.ChatInfo{}, fmt.Errorf("%w: %d: %v", ErrIncorrectID, id, err)
	}
	return data.ChatInfo{
		ID:        chat.ID,
		Username:  chat.Username,
		Title:     chat.Title,
		FirstName: chat.FirstName,
		LastName:  chat.LastName,
	}, nil
}

func sendOptions(out data.Outgoing) *tele.SendOptions {
	opts := &tele.SendOptions{}
	if out.Markdown {
		opts.ParseMode = tele.ModeMarkdownV2
	}
	if markup := keyboard.Markup(out.Keyboard); markup != nil {
		opts.ReplyMarkup = markup
	}
	return opts
}
