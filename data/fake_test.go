package data

import "errors"

// fakeMessenger records outbound traffic and hands out sequential message
// IDs.
type fakeMessenger struct {
	nextID   int
	sent     map[int]Outgoing
	deleted  []int
	edited   []int
	albums   [][]string
	audio    []string
	failEdit bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{sent: make(map[int]Outgoing)}
}

func (f *fakeMessenger) Send(chatID int64, out Outgoing) (int, error) {
	f.nextID++
	f.sent[f.nextID] = out
	return f.nextID, nil
}

func (f *fakeMessenger) Edit(chatID int64, messageID int, out Outgoing) (int, error) {
	if f.failEdit {
		return 0, errors.New("message to edit not found")
	}
	f.edited = append(f.edited, messageID)
	f.sent[messageID] = out
	return messageID, nil
}

func (f *fakeMessenger) Delete(chatID int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	delete(f.sent, messageID)
	return nil
}

func (f *fakeMessenger) SendPhotoAlbum(chatID int64, files []string) ([]int, error) {
	f.albums = append(f.albums, files)
	ids := make([]int, len(files))
	for i := range files {
		f.nextID++
		ids[i] = f.nextID
	}
	return ids, nil
}

func (f *fakeMessenger) SendAudio(chatID int64, file string) (int, error) {
	f.audio = append(f.audio, file)
	f.nextID++
	return f.nextID, nil
}
