package bot

import (
	"context"
	"errors"
	"lifeline/pkg/apperr"
	"strings"

	tele "gopkg.in/telebot.v3"
)

func (b *Bot) handleLoginStart(c tele.Context) error {
	s := b.session(c.Chat().ID)

	s.mu.Lock()
	s.username = ""
	s.state = StateUsername
	s.mu.Unlock()

	return c.Send("👤 Username:", tele.RemoveKeyboard)
}

func (b *Bot) handleLoginText(c tele.Context, s *chatSession) error {
	text := strings.TrimSpace(c.Text())

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateUsername:
		if text == "" {
			return c.Send("👤 Username:")
		}
		s.username = text
		s.state = StatePassword
		return c.Send("🔒 Password:")
	case StatePassword:
		// the password should not stay in the chat history
		c.Delete()

		username := s.username
		s.username = ""
		s.state = StateIdle

		b.background("login", func(ctx context.Context) {
			_, err := s.driver.Login(ctx, username, text)
			if err != nil && !errors.Is(err, apperr.ErrLoginSuperseded) {
				b.send.Send(tele.ChatID(s.id), "Tap the button to try again.", loginMenu())
			}
		})
		return nil
	}
	return nil
}
