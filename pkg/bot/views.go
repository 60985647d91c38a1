package bot

import (
	"context"
	"lifeline/pkg/logger"
	"lifeline/pkg/models"
	"sync"

	tele "gopkg.in/telebot.v3"
)

// requesterView renders the booking flow into one chat. Status lines are
// edited in place so the narrative reads like a single status display.
type requesterView struct {
	send   sender
	chatID int64
	log    logger.ILogger

	mu        sync.Mutex
	statusMsg *tele.Message
	statusTxt string
}

func (v *requesterView) Alert(_ context.Context, msg string) {
	v.sendText(msg)
}

func (v *requesterView) SetBusy(_ context.Context, busy bool) {
	if busy {
		v.mu.Lock()
		v.statusMsg, v.statusTxt = nil, ""
		v.mu.Unlock()
		v.sendText("⏳ PROCESSING...", tele.RemoveKeyboard)
		return
	}
	v.sendText("🚑 Ready for a new request.", requesterMenu())
}

func (v *requesterView) ShowStatus(_ context.Context, st models.Status) {
	text := formatStatus(st)

	v.mu.Lock()
	defer v.mu.Unlock()
	if text == v.statusTxt {
		return
	}
	v.statusTxt = text
	if v.statusMsg != nil {
		if _, err := v.send.Edit(v.statusMsg, text, tele.ModeHTML); err == nil {
			return
		}
	}
	msg, err := v.send.Send(tele.ChatID(v.chatID), text, tele.ModeHTML)
	if err != nil {
		v.log.Warning("failed to send status", logger.Error(err))
		return
	}
	v.statusMsg = msg
}

func (v *requesterView) ShowDispatch(_ context.Context, m models.DispatchMetrics) {
	v.sendText(formatDispatch(m), tele.ModeHTML)
}

func (v *requesterView) ClearDispatch(context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statusMsg, v.statusTxt = nil, ""
}

func (v *requesterView) sendText(text string, opts ...interface{}) {
	if _, err := v.send.Send(tele.ChatID(v.chatID), text, opts...); err != nil {
		v.log.Warning("failed to send message", logger.Error(err))
	}
}

// driverView renders the driver dashboard. The assignment card is sent once
// per dispatch and edited afterwards; repeated identical renders are no-ops.
type driverView struct {
	send   sender
	chatID int64
	log    logger.ILogger

	mu           sync.Mutex
	card         *tele.Message
	cardDispatch int64
	cardText     string
	assignment   *models.Assignment
	address      string
	idle         bool
}

func (v *driverView) Alert(_ context.Context, msg string) {
	v.sendText(msg)
}

func (v *driverView) ShowDashboard(_ context.Context, d models.Driver) {
	v.mu.Lock()
	v.reset()
	v.mu.Unlock()
	v.sendText(formatDashboard(d), tele.ModeHTML, driverMenu())
}

func (v *driverView) ShowDriverStatus(_ context.Context, st models.DriverStatus) {
	v.sendText(formatDriverStatus(st), tele.ModeHTML)
}

func (v *driverView) ShowAssignment(_ context.Context, a models.Assignment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cardDispatch != a.DispatchID {
		v.card, v.cardText, v.address = nil, "", ""
	}
	v.cardDispatch = a.DispatchID
	v.assignment = &a
	v.idle = false
	v.renderCard()
}

func (v *driverView) ShowIdle(context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.idle {
		return
	}
	v.reset()
	v.idle = true
	if _, err := v.send.Send(tele.ChatID(v.chatID), formatIdle(), tele.ModeHTML); err != nil {
		v.log.Warning("failed to send idle view", logger.Error(err))
	}
}

func (v *driverView) ShowAddress(_ context.Context, dispatchID int64, address string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.assignment == nil || v.cardDispatch != dispatchID {
		return
	}
	v.address = address
	v.renderCard()
}

func (v *driverView) ShowLoggedOut(context.Context) {
	v.mu.Lock()
	v.reset()
	v.mu.Unlock()
	v.sendText("👋 You are logged out.", loginMenu())
}

// renderCard must be called with mu held.
func (v *driverView) renderCard() {
	text := formatAssignment(*v.assignment, v.address)
	if text == v.cardText {
		return
	}
	v.cardText = text
	if v.card != nil {
		if _, err := v.send.Edit(v.card, text, tele.ModeHTML, tele.NoPreview); err == nil {
			return
		}
	}
	msg, err := v.send.Send(tele.ChatID(v.chatID), text, tele.ModeHTML, tele.NoPreview)
	if err != nil {
		v.log.Warning("failed to send assignment", logger.Error(err))
		return
	}
	v.card = msg
}

// reset must be called with mu held.
func (v *driverView) reset() {
	v.card, v.cardText, v.cardDispatch = nil, "", 0
	v.assignment, v.address = nil, ""
	v.idle = false
}

func (v *driverView) sendText(text string, opts ...interface{}) {
	if _, err := v.send.Send(tele.ChatID(v.chatID), text, opts...); err != nil {
		v.log.Warning("failed to send message", logger.Error(err))
	}
}
