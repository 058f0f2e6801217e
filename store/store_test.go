package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/polydating/datingbot/data"
	"github.com/polydating/datingbot/form"
)

func testUser(t *testing.T) *data.UserData {
	t.Helper()
	s, err := form.NewSchema(nil)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	u := data.NewUserData(data.ChatInfo{ID: 5, Username: "alice", FirstName: "Alice"})
	if err := u.Form.SetAnswer(s, form.TagName, form.Input{Text: "Alice"}); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	return u
}

func userFile(root string, dir string) string {
	return filepath.Join(root, "user", dir, "data.yaml")
}

func TestUserDataRoundTrip(t *testing.T) {
	root := t.TempDir()
	u := testUser(t)

	if err := New(root, false).UpdateUserData(u); err != nil {
		t.Fatalf("update: %v", err)
	}

	// a fresh engine must find the entity on disk
	got, err := New(root, false).GetUserData(5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "alice" || got.Username != "alice" {
		t.Fatalf("restored user = %+v", got)
	}
	if a, ok := got.Form.Answer(form.TagName); !ok || a.Text != "Alice" {
		t.Fatalf("restored answer = %+v", a)
	}
}

func TestGetUnknownUser(t *testing.T) {
	s := New(t.TempDir(), false)
	if _, err := s.GetUserData(404); !errors.Is(err, data.ErrMissingData) {
		t.Fatalf("expected ErrMissingData, got %v", err)
	}
}

func TestChangeDetectionSkipsIdenticalWrite(t *testing.T) {
	root := t.TempDir()
	s := New(root, false)
	u := testUser(t)

	if err := s.UpdateUserData(u); err != nil {
		t.Fatalf("update: %v", err)
	}
	path := userFile(root, "5_alice")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("first update did not write: %v", err)
	}

	// removing the file makes a second write observable
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.UpdateUserData(u); err != nil {
		t.Fatalf("identical update: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("identical update touched the disk")
	}

	u.Question = 3
	if err := s.UpdateUserData(u); err != nil {
		t.Fatalf("changed update: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("changed update did not write: %v", err)
	}
}

func TestGetReturnsIndependentCopies(t *testing.T) {
	root := t.TempDir()
	s := New(root, false)
	if err := s.UpdateUserData(testUser(t)); err != nil {
		t.Fatalf("update: %v", err)
	}

	first, err := s.GetUserData(5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	first.Question = 42

	second, err := s.GetUserData(5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.Question != 0 {
		t.Fatal("mutation leaked into the cached entity")
	}
}

func TestDirReusedAfterRename(t *testing.T) {
	root := t.TempDir()
	u := testUser(t)
	if err := New(root, false).UpdateUserData(u); err != nil {
		t.Fatalf("update: %v", err)
	}

	u.Name = "alice2"
	if err := New(root, false).UpdateUserData(u); err != nil {
		t.Fatalf("update after rename: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "user"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "5_alice" {
		t.Fatalf("rename created a second directory: %v", entries)
	}
}

func TestBotDataRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := New(root, false)

	if _, err := s.GetBotData(); !errors.Is(err, data.ErrMissingData) {
		t.Fatalf("expected ErrMissingData, got %v", err)
	}

	b := data.NewBotData()
	b.AddPending(7)
	if err := s.UpdateBotData(b); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := New(root, false).GetBotData()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsPending(7) {
		t.Fatalf("pending lost: %v", got.Pending())
	}
}

func TestConversationRoundTrip(t *testing.T) {
	root := t.TempDir()
	s := New(root, false)
	key := ConvKey{ChatID: 10, UserID: 5}

	if err := s.UpdateConversation("dialog", key, "ask_question"); err != nil {
		t.Fatalf("update: %v", err)
	}

	state, ok, err := New(root, false).GetConversation("dialog", key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || state != "ask_question" {
		t.Fatalf("state = %q, ok = %v", state, ok)
	}

	if err := s.UpdateConversation("dialog", key, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := s.GetConversation("dialog", key); ok {
		t.Fatal("cleared state still present")
	}
}

func TestOnFlushDefersWrites(t *testing.T) {
	root := t.TempDir()
	s := New(root, true)

	if err := s.UpdateUserData(testUser(t)); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := os.Stat(userFile(root, "5_alice")); !os.IsNotExist(err) {
		t.Fatal("on-flush update wrote immediately")
	}

	if err := s.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, err := os.Stat(userFile(root, "5_alice")); err != nil {
		t.Fatalf("flush did not write: %v", err)
	}
}
