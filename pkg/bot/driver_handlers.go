package bot

import (
	"context"
	"errors"
	"lifeline/pkg/apperr"
	"lifeline/pkg/logger"

	tele "gopkg.in/telebot.v3"
)

func (b *Bot) handleRefresh(c tele.Context) error {
	s := b.session(c.Chat().ID)
	ctx := context.Background()

	if err := s.driver.PollNow(ctx); errors.Is(err, apperr.ErrNotLoggedIn) {
		return c.Send("Please log in first.", loginMenu())
	}
	s.driver.RefreshStatus(ctx)
	return nil
}

func (b *Bot) handleBoard(c tele.Context) error {
	s := b.session(c.Chat().ID)
	if s.driver.State().Driver == nil {
		return c.Send("Please log in first.", loginMenu())
	}

	list, err := b.Svc.ActiveEmergencies(context.Background())
	if err != nil {
		b.Log.Error("failed to load active emergencies", logger.Error(err))
		return c.Send("❌ Could not load active emergencies.")
	}
	return c.Send(formatBoard(list), tele.ModeHTML)
}

func (b *Bot) handleLogout(c tele.Context) error {
	s := b.session(c.Chat().ID)
	s.setState(StateIdle)
	s.driver.Logout(context.Background())
	return nil
}
