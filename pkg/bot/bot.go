package bot

import (
	"context"
	"fmt"
	"lifeline/config"
	"lifeline/pkg/logger"
	"lifeline/pkg/models"
	"lifeline/service"
	"sort"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"
)

type BotType string

const (
	BotTypeRequester BotType = "requester"
	BotTypeDriver    BotType = "driver"
)

const (
	StateIdle = "idle"

	StatePatientName   = "awaiting_patient_name"
	StateContactNumber = "awaiting_contact_number"
	StateEmergencyType = "awaiting_emergency_type"
	StateNotes         = "awaiting_notes"

	StateUsername = "awaiting_username"
	StatePassword = "awaiting_password"
)

const (
	btnBook     = "🚑 Book Ambulance"
	btnReset    = "🔄 Reset"
	btnSkip     = "⏭ Skip"
	btnLogin    = "🔑 Login"
	btnComplete = "✅ Complete Emergency"
	btnRefresh  = "🔄 Refresh"
	btnBoard    = "📋 Active Emergencies"
	btnLogout   = "🚪 Logout"
)

// Inline button templates; the payload carries the value.
var (
	btnEmergencyType = tele.Btn{Unique: "etype"}
	btnConfirmYes    = tele.Btn{Unique: uniqueConfirmYes}
	btnConfirmNo     = tele.Btn{Unique: uniqueConfirmNo}
)

// chatSession is the per-chat conversation state plus the flows bound to it.
type chatSession struct {
	id int64

	mu       sync.Mutex
	state    string
	form     models.BookingForm
	username string

	locator   *chatLocator
	confirm   *chatConfirmer
	requester *service.RequesterService
	driver    *service.DriverService
}

func (s *chatSession) setState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *chatSession) getState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

type Bot struct {
	Type BotType
	Bot  *tele.Bot
	Log  logger.ILogger
	Cfg  *config.Config
	Svc  service.IServiceManager

	send sender

	mu    sync.Mutex
	chats map[int64]*chatSession

	runMu   sync.Mutex
	started bool
	stopped bool
}

// SessionInfo is one chat's driver session as exposed by the status API.
type SessionInfo struct {
	ChatID int64 `json:"chat_id"`
	models.SessionSnapshot
}

func New(botType BotType, cfg *config.Config, svc service.IServiceManager, log logger.ILogger) (*Bot, error) {
	token := cfg.TelegramBotToken
	if botType == BotTypeDriver {
		token = cfg.DriverBotToken
	}

	log = log.With(logger.String("bot", string(botType)))
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error("telegram handler failed", logger.Error(err))
		},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}
	bot := &Bot{
		Type:  botType,
		Bot:   b,
		Log:   log,
		Cfg:   cfg,
		Svc:   svc,
		send:  b,
		chats: make(map[int64]*chatSession),
	}
	bot.registerHandlers()
	return bot, nil
}

func (b *Bot) Start() {
	b.runMu.Lock()
	if b.stopped {
		b.runMu.Unlock()
		return
	}
	b.started = true
	b.runMu.Unlock()

	b.Log.Info(fmt.Sprintf("🤖 %s bot started", b.Type))
	b.Bot.Start()
}

// Stop stops receiving updates and shuts every driver poller down. A Stop
// that comes before Start makes the later Start return at once.
func (b *Bot) Stop() {
	b.runMu.Lock()
	running := b.started && !b.stopped
	b.stopped = true
	b.runMu.Unlock()

	// telebot's Stop waits for the update loop, which only exists after Start
	if running {
		b.Bot.Stop()
	}

	b.mu.Lock()
	chats := make([]*chatSession, 0, len(b.chats))
	for _, s := range b.chats {
		chats = append(chats, s)
	}
	b.mu.Unlock()

	for _, s := range chats {
		if s.driver != nil {
			s.driver.Close()
		}
	}
}

// Sessions lists the driver sessions known to this bot, ordered by chat.
func (b *Bot) Sessions() []SessionInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]SessionInfo, 0, len(b.chats))
	for id, s := range b.chats {
		if s.driver == nil {
			continue
		}
		out = append(out, SessionInfo{ChatID: id, SessionSnapshot: s.driver.State()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out
}

func (b *Bot) session(chatID int64) *chatSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.chats[chatID]; ok {
		return s
	}
	s := &chatSession{
		id:      chatID,
		state:   StateIdle,
		locator: newChatLocator(b.send, chatID),
		confirm: newChatConfirmer(b.send, chatID),
	}
	log := b.Log.With(logger.Int64("chat_id", chatID))
	switch b.Type {
	case BotTypeRequester:
		s.requester = b.Svc.Requester(chatID, s.locator, &requesterView{send: b.send, chatID: chatID, log: log})
	case BotTypeDriver:
		s.driver = b.Svc.Driver(chatID, s.locator, s.confirm, &driverView{send: b.send, chatID: chatID, log: log})
	}
	b.chats[chatID] = s
	return s
}

func (b *Bot) registerHandlers() {
	b.Bot.Handle("/start", b.handleStart)
	b.Bot.Handle(tele.OnLocation, b.handleLocation)
	b.Bot.Handle(btnCancelLocation, b.handleCancelLocation)

	if b.Type == BotTypeRequester {
		b.Bot.Handle(btnBook, b.handleBookStart)
		b.Bot.Handle(btnReset, b.handleReset)
		b.Bot.Handle(&btnEmergencyType, b.handleEmergencyType)
	} else {
		b.Bot.Handle(btnLogin, b.handleLoginStart)
		b.Bot.Handle(btnComplete, b.handleComplete)
		b.Bot.Handle(btnRefresh, b.handleRefresh)
		b.Bot.Handle(btnBoard, b.handleBoard)
		b.Bot.Handle(btnLogout, b.handleLogout)
		b.Bot.Handle(&btnConfirmYes, b.handleConfirm(true))
		b.Bot.Handle(&btnConfirmNo, b.handleConfirm(false))
	}

	b.Bot.Handle(tele.OnText, b.handleText)
}

func requesterMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(btnBook)), menu.Row(menu.Text(btnReset)))
	return menu
}

func driverMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnComplete)),
		menu.Row(menu.Text(btnRefresh), menu.Text(btnBoard)),
		menu.Row(menu.Text(btnLogout)),
	)
	return menu
}

func loginMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(btnLogin)))
	return menu
}

func (b *Bot) handleStart(c tele.Context) error {
	s := b.session(c.Chat().ID)
	s.setState(StateIdle)

	if b.Type == BotTypeRequester {
		return c.Send("🚑 <b>Emergency Ambulance Service</b>\n\nAWAITING EMERGENCY REQUEST", requesterMenu(), tele.ModeHTML)
	}

	snap := s.driver.State()
	if snap.State == models.DriverLoggedOut {
		return c.Send("🚑 <b>Driver Dashboard</b>\n\nPlease log in to receive assignments.", loginMenu(), tele.ModeHTML)
	}
	return c.Send(formatDashboard(*snap.Driver), driverMenu(), tele.ModeHTML)
}

func (b *Bot) handleLocation(c tele.Context) error {
	s := b.session(c.Chat().ID)
	if c.Message().Location == nil {
		return nil
	}
	if !s.locator.deliver(fixFromMessage(c.Message())) {
		return nil
	}
	return c.Send("📍 Location received.", tele.RemoveKeyboard)
}

func (b *Bot) handleCancelLocation(c tele.Context) error {
	s := b.session(c.Chat().ID)
	if !s.locator.deny() {
		return nil
	}
	return c.Send("Location sharing cancelled.", tele.RemoveKeyboard)
}

func (b *Bot) handleText(c tele.Context) error {
	s := b.session(c.Chat().ID)

	switch s.getState() {
	case StatePatientName, StateContactNumber, StateEmergencyType, StateNotes:
		return b.handleBookingText(c, s)
	case StateUsername, StatePassword:
		return b.handleLoginText(c, s)
	}
	return nil
}

// background runs a flow outside the update handler so that prompts it
// raises can be answered by later updates.
func (b *Bot) background(name string, fn func(ctx context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				b.Log.Error("flow panicked", logger.String("flow", name), logger.Any("panic", r))
			}
		}()
		fn(context.Background())
	}()
}
