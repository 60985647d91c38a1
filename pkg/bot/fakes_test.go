package bot

import (
	"sync"

	tele "gopkg.in/telebot.v3"
)

type sentMessage struct {
	id   int
	text string
	opts []interface{}
}

type fakeSender struct {
	mu     sync.Mutex
	nextID int
	sent   []sentMessage
	edits  []sentMessage
	notify chan struct{}
}

func newFakeSender() *fakeSender {
	return &fakeSender{notify: make(chan struct{}, 16)}
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	text, _ := what.(string)
	f.sent = append(f.sent, sentMessage{id: id, text: text, opts: opts})
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
	return &tele.Message{ID: id, Text: text}, nil
}

func (f *fakeSender) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	m := msg.(*tele.Message)
	text, _ := what.(string)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, sentMessage{id: m.ID, text: text, opts: opts})
	return &tele.Message{ID: m.ID, Text: text}, nil
}

func (f *fakeSender) Delete(tele.Editable) error { return nil }

func (f *fakeSender) counts() (sent, edits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent), len(f.edits)
}

func (f *fakeSender) lastSent() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeSender) lastEdit() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edits[len(f.edits)-1]
}
