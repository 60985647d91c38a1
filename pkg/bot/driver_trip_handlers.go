package bot

import (
	"context"
	"errors"
	"lifeline/pkg/apperr"
	"lifeline/pkg/logger"

	tele "gopkg.in/telebot.v3"
)

func (b *Bot) handleComplete(c tele.Context) error {
	s := b.session(c.Chat().ID)

	b.background("complete", func(ctx context.Context) {
		outcome, err := s.driver.Complete(ctx)
		switch {
		case errors.Is(err, apperr.ErrNotLoggedIn):
			b.send.Send(tele.ChatID(s.id), "Please log in first.", loginMenu())
		case errors.Is(err, apperr.ErrNoAssignment):
			b.send.Send(tele.ChatID(s.id), "No active emergency to complete.")
		case errors.Is(err, apperr.ErrCompletionBusy):
			b.send.Send(tele.ChatID(s.id), "⏳ Completion already in progress.")
		}
		b.Log.Info("completion finished", logger.Int64("chat_id", s.id), logger.String("outcome", outcome.String()))
	})
	return nil
}

func (b *Bot) handleConfirm(answer bool) tele.HandlerFunc {
	return func(c tele.Context) error {
		s := b.session(c.Chat().ID)
		if !s.confirm.resolve(c.Data(), answer) {
			return c.Respond(&tele.CallbackResponse{Text: "This question has expired."})
		}
		return c.Respond()
	}
}
