package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v3"
)

const (
	uniqueConfirmYes = "confirm_yes"
	uniqueConfirmNo  = "confirm_no"

	defaultConfirmTimeout = 2 * time.Minute
)

var errConfirmTimeout = errors.New("confirmation timed out")

// chatConfirmer asks yes/no questions with inline buttons. Every prompt has
// its own nonce so a stale button cannot answer a newer question.
type chatConfirmer struct {
	send    sender
	chatID  int64
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]chan bool
}

func newChatConfirmer(send sender, chatID int64) *chatConfirmer {
	return &chatConfirmer{
		send:    send,
		chatID:  chatID,
		timeout: defaultConfirmTimeout,
		pending: make(map[string]chan bool),
	}
}

func (c *chatConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	nonce := uuid.NewString()
	ch := make(chan bool, 1)

	c.mu.Lock()
	c.pending[nonce] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, nonce)
		c.mu.Unlock()
	}()

	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("✅ Yes", uniqueConfirmYes, nonce),
		menu.Data("❌ No", uniqueConfirmNo, nonce),
	))
	msg, err := c.send.Send(tele.ChatID(c.chatID), prompt, menu)
	if err != nil {
		return false, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case ok := <-ch:
		answer := "❌ No"
		if ok {
			answer = "✅ Yes"
		}
		c.send.Edit(msg, prompt+"\n\n"+answer)
		return ok, nil
	case <-timer.C:
		c.send.Edit(msg, prompt+"\n\n⌛ No answer")
		return false, errConfirmTimeout
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// resolve answers the prompt with the given nonce. It reports false for
// unknown or already answered prompts.
func (c *chatConfirmer) resolve(nonce string, answer bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.pending[nonce]
	if !ok {
		return false
	}
	delete(c.pending, nonce)
	ch <- answer
	return true
}
