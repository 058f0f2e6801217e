package telegram

import "errors"

// ErrIncorrectID marks a chat or user ID Telegram does not recognize.
var ErrIncorrectID = errors.New("incorrect chat or user id")
