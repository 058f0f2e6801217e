package data

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSetOwnerOnce(t *testing.T) {
	b := NewBotData()
	token := b.DeepLink("bot")
	token = token[len(token)-36:] // uuid tail of the link

	if err := b.SetOwner(7, "wrong"); !errors.Is(err, ErrWrongToken) {
		t.Fatalf("expected ErrWrongToken, got %v", err)
	}
	if err := b.SetOwner(7, token); err != nil {
		t.Fatalf("SetOwner: %v", err)
	}
	if b.Owner() != 7 {
		t.Fatalf("owner = %d", b.Owner())
	}
	if err := b.SetOwner(8, token); !errors.Is(err, ErrOwnerSet) {
		t.Fatalf("expected ErrOwnerSet, got %v", err)
	}
	if !b.IsAdmin(7) {
		t.Fatal("owner must pass the admin check")
	}
}

func TestAdminListDedupe(t *testing.T) {
	b := NewBotData()
	if !b.AddAdmin(-100) {
		t.Fatal("first add reported duplicate")
	}
	if b.AddAdmin(-100) {
		t.Fatal("duplicate add reported new")
	}
	if !b.IsAdmin(-100) {
		t.Fatal("admin chat not recognized")
	}
	if !b.RemoveAdmin(-100) {
		t.Fatal("remove reported missing")
	}
	if b.RemoveAdmin(-100) {
		t.Fatal("second remove reported present")
	}
}

func TestPendingQueue(t *testing.T) {
	b := NewBotData()
	if !b.AddPending(1) || !b.AddPending(2) {
		t.Fatal("adds reported duplicate")
	}
	if b.AddPending(1) {
		t.Fatal("duplicate pending accepted")
	}
	if got := b.Pending(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("pending = %v", got)
	}
	if !b.RemovePending(1) {
		t.Fatal("remove reported missing")
	}
	if b.IsPending(1) {
		t.Fatal("removed ID still pending")
	}
}

func TestBotDataYAMLRoundTrip(t *testing.T) {
	b := NewBotData()
	b.SetChannel(-1001)
	b.AddAdmin(42)
	b.AddPending(7)

	out, err := yaml.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored BotData
	if err := yaml.Unmarshal(out, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if restored.Channel() != -1001 {
		t.Fatalf("channel = %d", restored.Channel())
	}
	if !restored.IsAdmin(42) || !restored.IsPending(7) {
		t.Fatalf("lists lost: admins=%v pending=%v", restored.Admins(), restored.Pending())
	}
	if !restored.VerifyToken(b.uuid) {
		t.Fatal("token lost in round trip")
	}
}
