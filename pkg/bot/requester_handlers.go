package bot

import (
	"context"
	"errors"
	"lifeline/pkg/apperr"
	"lifeline/pkg/logger"
	"lifeline/pkg/models"
	"strings"

	tele "gopkg.in/telebot.v3"
)

func emergencyTypeMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	var current []tele.Btn
	for i, t := range models.EmergencyTypes {
		current = append(current, menu.Data(t.Label(), btnEmergencyType.Unique, string(t)))
		if (i+1)%2 == 0 {
			rows = append(rows, menu.Row(current...))
			current = []tele.Btn{}
		}
	}
	if len(current) > 0 {
		rows = append(rows, menu.Row(current...))
	}
	menu.Inline(rows...)
	return menu
}

func (b *Bot) handleBookStart(c tele.Context) error {
	s := b.session(c.Chat().ID)
	if s.requester.Processing() {
		return c.Send("⏳ A request is already being processed.")
	}

	s.mu.Lock()
	s.form = models.BookingForm{}
	s.state = StatePatientName
	s.mu.Unlock()

	return c.Send("👤 Patient name:", tele.RemoveKeyboard)
}

func (b *Bot) handleReset(c tele.Context) error {
	s := b.session(c.Chat().ID)
	s.setState(StateIdle)
	s.requester.Reset(context.Background())
	return nil
}

func (b *Bot) handleBookingText(c tele.Context, s *chatSession) error {
	text := strings.TrimSpace(c.Text())

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StatePatientName:
		s.form.PatientName = text
		s.state = StateContactNumber
		return c.Send("📞 Contact number (10 digits):")
	case StateContactNumber:
		s.form.ContactNumber = text
		s.state = StateEmergencyType
		return c.Send("🏷 Select the emergency type:", emergencyTypeMenu())
	case StateEmergencyType:
		return c.Send("Please pick one of the buttons above.")
	case StateNotes:
		if text != btnSkip {
			s.form.Notes = text
		}
		s.state = StateIdle
		form := s.form
		b.submit(s, form)
		return nil
	}
	return nil
}

func (b *Bot) handleEmergencyType(c tele.Context) error {
	s := b.session(c.Chat().ID)
	c.Respond()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEmergencyType {
		return nil
	}
	t := models.EmergencyType(c.Data())
	s.form.EmergencyType = t
	s.state = StateNotes

	c.Edit("🏷 Emergency type: " + t.Label())
	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(btnSkip)))
	return c.Send("📝 Additional notes (or skip):", menu)
}

func (b *Bot) submit(s *chatSession, form models.BookingForm) {
	b.background("book", func(ctx context.Context) {
		_, err := s.requester.Book(ctx, form)
		switch {
		case err == nil:
			return
		case apperr.IsValidation(err):
			s.mu.Lock()
			s.form = models.BookingForm{}
			s.state = StatePatientName
			s.mu.Unlock()
			b.send.Send(tele.ChatID(s.id), "👤 Let's try again. Patient name:")
		case errors.Is(err, apperr.ErrBookingInProgress):
			b.send.Send(tele.ChatID(s.id), "⏳ A request is already being processed.")
		default:
			b.Log.Debug("booking finished with error", logger.Int64("chat_id", s.id), logger.Error(err))
		}
	})
}
