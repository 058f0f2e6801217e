package telegram

import (
	"sync"
	"time"
)

// DefaultAlbumWindow is how long the collector waits for the next photo of
// a media group before treating the batch as complete.
const DefaultAlbumWindow = 800 * time.Millisecond

// AlbumCollector batches media-group photos. Telegram delivers an album as
// individual updates sharing an AlbumID with no terminator, so the batch is
// closed by a quiet period instead.
type AlbumCollector struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[string]*albumBatch
}

type albumBatch struct {
	files   []string
	timer   *time.Timer
	deliver func([]string)
}

// NewAlbumCollector builds a collector; window <= 0 uses the default.
func NewAlbumCollector(window time.Duration) *AlbumCollector {
	if window <= 0 {
		window = DefaultAlbumWindow
	}
	return &AlbumCollector{
		window:  window,
		pending: make(map[string]*albumBatch),
	}
}

// Add queues one photo. A photo without an album ID is delivered at once as
// a single-element batch; album photos are delivered together, in arrival
// order, once the group goes quiet.
func (a *AlbumCollector) Add(albumID, file string, deliver func(files []string)) {
	if albumID == "" {
		deliver([]string{file})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.pending[albumID]
	if !ok {
		b = &albumBatch{deliver: deliver}
		a.pending[albumID] = b
		b.timer = time.AfterFunc(a.window, func() { a.flush(albumID) })
	}
	b.files = append(b.files, file)
	b.timer.Reset(a.window)
}

func (a *AlbumCollector) flush(albumID string) {
	a.mu.Lock()
	b, ok := a.pending[albumID]
	if ok {
		delete(a.pending, albumID)
	}
	a.mu.Unlock()
	if ok {
		b.deliver(b.files)
	}
}
