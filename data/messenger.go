package data

// Button is one inline keyboard button: Unique routes the callback, Data
// carries the payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Outgoing is one message to send or edit.
type Outgoing struct {
	Text     string
	Markdown bool
	Keyboard [][]Button
}

// Messenger is the outbound transport port. Message IDs are returned so
// records can edit or delete their own messages later.
type Messenger interface {
	Send(chatID int64, out Outgoing) (int, error)
	Edit(chatID int64, messageID int, out Outgoing) (int, error)
	Delete(chatID int64, messageID int) error
	SendPhotoAlbum(chatID int64, files []string) ([]int, error)
	SendAudio(chatID int64, file string) (int, error)
}

// Resolver looks up chat identity by ID. Unknown or inaccessible chats
// return an error from the transport layer.
type Resolver interface {
	ResolveChat(id int64) (ChatInfo, error)
}
