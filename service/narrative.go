package service

import (
	"context"
	"lifeline/pkg/models"
	"time"
)

// Stage is one scripted status line shown Delay after the previous one.
type Stage struct {
	Delay  time.Duration
	Status models.Status
}

// DefaultStages is the booking narrative. It is pacing only and says nothing
// about how far the real request has got.
var DefaultStages = []Stage{
	{Delay: 0, Status: models.Status{Message: "INITIATING EMERGENCY PROTOCOL...", Tone: models.ToneAlert}},
	{Delay: 800 * time.Millisecond, Status: models.Status{Message: "ACQUIRING GEOLOCATION DATA...", Tone: models.ToneWarn}},
	{Delay: 1200 * time.Millisecond, Status: models.Status{Message: "ANALYZING NEAREST AVAILABLE UNITS...", Tone: models.ToneCaution}},
	{Delay: 800 * time.Millisecond, Status: models.Status{Message: "DISPATCHING EMERGENCY UNIT...", Tone: models.ToneInfo}},
}

type Narrative struct {
	stages []Stage
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewNarrative(stages []Stage) Narrative {
	return Narrative{stages: stages, sleep: sleepCtx}
}

// Duration is the total scripted time of the narrative.
func (n Narrative) Duration() time.Duration {
	var total time.Duration
	for _, s := range n.stages {
		total += s.Delay
	}
	return total
}

// Play emits every stage in order. It stops early only if ctx is cancelled.
func (n Narrative) Play(ctx context.Context, emit func(models.Status)) error {
	for _, s := range n.stages {
		if err := n.sleep(ctx, s.Delay); err != nil {
			return err
		}
		emit(s.Status)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
