package bot

import (
	tele "gopkg.in/telebot.v3"
)

// sender is the slice of *tele.Bot the views, the locator and the confirmer use.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}
