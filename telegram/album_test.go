package telegram

import (
	"sync"
	"testing"
	"time"
)

func TestAlbumCollectorSinglePhoto(t *testing.T) {
	a := NewAlbumCollector(time.Hour)
	var got []string
	a.Add("", "f1", func(files []string) { got = files })
	if len(got) != 1 || got[0] != "f1" {
		t.Fatalf("single photo batch = %v", got)
	}
}

func TestAlbumCollectorBatchesGroup(t *testing.T) {
	a := NewAlbumCollector(30 * time.Millisecond)

	var mu sync.Mutex
	var batches [][]string
	deliver := func(files []string) {
		mu.Lock()
		batches = append(batches, files)
		mu.Unlock()
	}

	a.Add("album-1", "f1", deliver)
	a.Add("album-1", "f2", deliver)
	a.Add("album-1", "f3", deliver)

	mu.Lock()
	early := len(batches)
	mu.Unlock()
	if early != 0 {
		t.Fatal("batch delivered before the window closed")
	}

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(batches))
	}
	want := []string{"f1", "f2", "f3"}
	if len(batches[0]) != len(want) {
		t.Fatalf("batch = %v", batches[0])
	}
	for i := range want {
		if batches[0][i] != want[i] {
			t.Fatalf("batch order = %v", batches[0])
		}
	}
}

func TestAlbumCollectorSeparatesAlbums(t *testing.T) {
	a := NewAlbumCollector(30 * time.Millisecond)

	var mu sync.Mutex
	batches := make(map[string][]string)

	a.Add("album-1", "f1", func(files []string) {
		mu.Lock()
		batches["album-1"] = files
		mu.Unlock()
	})
	a.Add("album-2", "g1", func(files []string) {
		mu.Lock()
		batches["album-2"] = files
		mu.Unlock()
	})

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(batches["album-1"]) != 1 || len(batches["album-2"]) != 1 {
		t.Fatalf("batches = %v", batches)
	}
}
