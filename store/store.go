// Package store is the YAML persistence engine. Every entity lives in its
// own file under the persistence root:
//
//	root/user/<id>_<name>/data.yaml
//	root/chat/<id>_<name>/data.yaml
//	root/bot/data.yaml
//	root/bot/conv.yaml
//
// Updates are change-detected against the last serialized bytes, so
// repeated saves of identical data touch the disk once. Callers always get
// independent copies; the engine is safe for concurrent use.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/logger"
)

const (
	kindUser = "user"
	kindChat = "chat"
	kindBot  = "bot"

	dataFile = "data.yaml"
	convFile = "conv.yaml"
)

type entry struct {
	dir string
	raw []byte
}

// Store is the engine. With onFlush set, updates only refresh the cache and
// the disk is touched by Flush; otherwise every accepted update writes
// immediately.
type Store struct {
	mu      sync.Mutex
	root    string
	onFlush bool

	users map[int64]*entry
	chats map[int64]*entry
	bot   *entry

	conv map[string]map[string]string
}

// New opens the engine over root. The directory tree is created lazily on
// first write.
func New(root string, onFlush bool) *Store {
	return &Store{
		root:    root,
		onFlush: onFlush,
		users:   make(map[int64]*entry),
		chats:   make(map[int64]*entry),
	}
}

// GetUserData loads the record for a user. Unknown users return
// data.ErrMissingData.
func (s *Store) GetUserData(id int64) (*data.UserData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.load(kindUser, s.users, id)
	if err != nil {
		return nil, err
	}
	var u data.UserData
	if err := yaml.Unmarshal(e.raw, &u); err != nil {
		return nil, &PersistenceError{Path: s.entityPath(kindUser, e), Err: err}
	}
	return &u, nil
}

// UpdateUserData persists the record when it changed.
func (s *Store) UpdateUserData(u *data.UserData) error {
	raw, err := yaml.Marshal(u)
	if err != nil {
		return fmt.Errorf("serialize user %d: %w", u.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(kindUser, s.users, u.ID, u.Name, raw)
}

// GetChatData loads the record for a chat. Unknown chats return
// data.ErrMissingData.
func (s *Store) GetChatData(id int64) (*data.ChatData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.load(kindChat, s.chats, id)
	if err != nil {
		return nil, err
	}
	var c data.ChatData
	if err := yaml.Unmarshal(e.raw, &c); err != nil {
		return nil, &PersistenceError{Path: s.entityPath(kindChat, e), Err: err}
	}
	return &c, nil
}

// UpdateChatData persists the record when it changed.
func (s *Store) UpdateChatData(c *data.ChatData) error {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("serialize chat %d: %w", c.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(kindChat, s.chats, c.ID, c.Name, raw)
}

// GetBotData loads the singleton bot record, data.ErrMissingData when the
// bot was never saved.
func (s *Store) GetBotData() (*data.BotData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bot == nil {
		path := filepath.Join(s.root, kindBot, dataFile)
		raw, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, data.ErrMissingData
		}
		if err != nil {
			return nil, &PersistenceError{Path: path, Err: err}
		}
		s.bot = &entry{raw: raw}
	}
	var b data.BotData
	if err := yaml.Unmarshal(s.bot.raw, &b); err != nil {
		return nil, &PersistenceError{Path: filepath.Join(s.root, kindBot, dataFile), Err: err}
	}
	return &b, nil
}

// UpdateBotData persists the singleton record when it changed.
func (s *Store) UpdateBotData(b *data.BotData) error {
	raw, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("serialize bot data: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bot != nil && bytes.Equal(s.bot.raw, raw) {
		return nil
	}
	s.bot = &entry{raw: raw}
	if s.onFlush {
		return nil
	}
	return s.writeFile(filepath.Join(s.root, kindBot, dataFile), raw, kindBot)
}

// ConvKey identifies one dialog inside a conversation namespace.
type ConvKey struct {
	ChatID int64
	UserID int64
}

func (k ConvKey) String() string {
	return fmt.Sprintf("%d:%d", k.ChatID, k.UserID)
}

// GetConversation returns the stored state for a dialog.
func (s *Store) GetConversation(name string, key ConvKey) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadConv(); err != nil {
		return "", false, err
	}
	state, ok := s.conv[name][key.String()]
	return state, ok, nil
}

// UpdateConversation records a dialog state; the empty state removes the
// entry.
func (s *Store) UpdateConversation(name string, key ConvKey, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadConv(); err != nil {
		return err
	}
	k := key.String()
	if prev, ok := s.conv[name][k]; ok && prev == state {
		return nil
	}
	if state == "" {
		if _, ok := s.conv[name][k]; !ok {
			return nil
		}
		delete(s.conv[name], k)
		if len(s.conv[name]) == 0 {
			delete(s.conv, name)
		}
	} else {
		if s.conv[name] == nil {
			s.conv[name] = make(map[string]string)
		}
		s.conv[name][k] = state
	}
	if s.onFlush {
		return nil
	}
	return s.writeConv()
}

// Flush rewrites every cached entity. Called on shutdown and, in on-flush
// mode, periodically by the host.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.users {
		if err := s.writeFile(s.entityPath(kindUser, e), e.raw, kindUser); err != nil {
			return err
		}
	}
	for _, e := range s.chats {
		if err := s.writeFile(s.entityPath(kindChat, e), e.raw, kindChat); err != nil {
			return err
		}
	}
	if s.bot != nil {
		if err := s.writeFile(filepath.Join(s.root, kindBot, dataFile), s.bot.raw, kindBot); err != nil {
			return err
		}
	}
	if s.conv != nil {
		if err := s.writeConv(); err != nil {
			return err
		}
	}
	logger.Info(context.Background(), "store", "flush",
		slog.Int("count", len(s.users)+len(s.chats)))
	return nil
}

func (s *Store) load(kind string, cache map[int64]*entry, id int64) (*entry, error) {
	if e, ok := cache[id]; ok {
		return e, nil
	}
	dir, err := s.findDir(kind, id)
	if err != nil {
		return nil, err
	}
	e := &entry{dir: dir}
	path := s.entityPath(kind, e)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, data.ErrMissingData
	}
	if err != nil {
		return nil, &PersistenceError{Path: path, Err: err}
	}
	e.raw = raw
	cache[id] = e
	return e, nil
}

func (s *Store) update(kind string, cache map[int64]*entry, id int64, name string, raw []byte) error {
	e := cache[id]
	if e == nil {
		dir, err := s.findDir(kind, id)
		if err != nil && !errors.Is(err, data.ErrMissingData) {
			return err
		}
		if dir == "" {
			dir = dirName(id, name)
		}
		e = &entry{dir: dir}
		cache[id] = e
	}
	if bytes.Equal(e.raw, raw) {
		return nil
	}
	e.raw = raw
	if s.onFlush {
		return nil
	}
	return s.writeFile(s.entityPath(kind, e), raw, kind)
}

// findDir locates the existing on-disk directory for an entity so renames
// keep writing to the original place. data.ErrMissingData when none exists.
func (s *Store) findDir(kind string, id int64) (string, error) {
	base := filepath.Join(s.root, kind)
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return "", data.ErrMissingData
	}
	if err != nil {
		return "", &PersistenceError{Path: base, Err: err}
	}
	prefix := strconv.FormatInt(id, 10) + "_"
	for _, de := range entries {
		if de.IsDir() && strings.HasPrefix(de.Name(), prefix) {
			return de.Name(), nil
		}
	}
	return "", data.ErrMissingData
}

func (s *Store) entityPath(kind string, e *entry) string {
	return filepath.Join(s.root, kind, e.dir, dataFile)
}

func (s *Store) loadConv() error {
	if s.conv != nil {
		return nil
	}
	path := filepath.Join(s.root, kindBot, convFile)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.conv = make(map[string]map[string]string)
		return nil
	}
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	conv := make(map[string]map[string]string)
	if err := yaml.Unmarshal(raw, &conv); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	s.conv = conv
	return nil
}

func (s *Store) writeConv() error {
	raw, err := yaml.Marshal(s.conv)
	if err != nil {
		return fmt.Errorf("serialize conversations: %w", err)
	}
	return s.writeFile(filepath.Join(s.root, kindBot, convFile), raw, kindBot)
}

func (s *Store) writeFile(path string, raw []byte, kind string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	logger.Debug(context.Background(), "store", "entity.write",
		slog.String("kind", kind), slog.String("path", path))
	return nil
}

// dirName builds the on-disk directory for a new entity. The display name
// is reduced to filesystem-safe characters.
func dirName(id int64, name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return strconv.FormatInt(id, 10) + "_" + safe
}
