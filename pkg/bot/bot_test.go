package bot

import (
	"lifeline/pkg/logger"
	"testing"
	"time"

	tele "gopkg.in/telebot.v3"
)

// idlePoller delivers nothing and returns once asked to stop.
type idlePoller struct{}

func (idlePoller) Poll(_ *tele.Bot, _ chan tele.Update, stop chan struct{}) {
	<-stop
}

func newOfflineBot(t *testing.T) *Bot {
	t.Helper()
	tb, err := tele.NewBot(tele.Settings{Offline: true, Poller: idlePoller{}})
	if err != nil {
		t.Fatalf("NewBot() error = %v", err)
	}
	return &Bot{Type: BotTypeDriver, Bot: tb, Log: logger.NewNop(), chats: make(map[int64]*chatSession)}
}

func returnsWithin(t *testing.T, what string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not return", what)
	}
}

func TestStopBeforeStart(t *testing.T) {
	b := newOfflineBot(t)

	returnsWithin(t, "Stop before Start", b.Stop)
	returnsWithin(t, "Start after Stop", b.Start)
	returnsWithin(t, "second Stop", b.Stop)
}

func TestStopAfterStart(t *testing.T) {
	b := newOfflineBot(t)

	done := make(chan struct{})
	go func() {
		b.Start()
		close(done)
	}()
	// give the update loop a moment to come up
	time.Sleep(20 * time.Millisecond)

	returnsWithin(t, "Stop", b.Stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept running after Stop")
	}
}
