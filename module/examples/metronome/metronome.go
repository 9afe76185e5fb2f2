// Package metronome is a reference module showing the lifecycle base in
// use: state lives in the module, all interaction flows through events.
package metronome

import (
	"context"
	"fmt"
	"sync"

	"github.com/tonika/tonika-bus/bus"
	"github.com/tonika/tonika-bus/module"
)

// Event types owned by this module.
const (
	EventTick         = "metronome:tick"
	EventStarted      = "metronome:started"
	EventStopped      = "metronome:stopped"
	EventTempoChanged = "metronome:tempo-changed"
)

// Metronome counts beats at a tempo controlled over the bus. It reacts to
// "transport:start", "transport:stop" and "transport:tempo" events; the
// host clock drives it by calling Tick.
type Metronome struct {
	*module.Base

	mu      sync.Mutex
	bpm     int
	beat    int
	running bool
}

// New constructs the metronome and registers it on the bus.
func New(opts ...module.Option) *Metronome {
	m := &Metronome{bpm: 120}
	opts = append(opts, module.WithInit(m.setup))
	m.Base = module.New("metronome", "1.0.0", "Beat counter driven by transport events", opts...)
	return m
}

// setup subscribes to the transport events the metronome follows.
func (m *Metronome) setup(ctx context.Context) error {
	m.On("transport:start", m.handleStart)
	m.On("transport:stop", m.handleStop)
	m.On("transport:tempo", m.handleTempo)
	return nil
}

func (m *Metronome) handleStart(ctx context.Context, evt bus.Event) error {
	m.mu.Lock()
	m.running = true
	m.beat = 0
	bpm := m.bpm
	m.mu.Unlock()

	m.Emit(ctx, EventStarted, map[string]any{"bpm": bpm})
	return nil
}

func (m *Metronome) handleStop(ctx context.Context, evt bus.Event) error {
	m.mu.Lock()
	m.running = false
	beat := m.beat
	m.mu.Unlock()

	m.Emit(ctx, EventStopped, map[string]any{"beats": beat})
	return nil
}

func (m *Metronome) handleTempo(ctx context.Context, evt bus.Event) error {
	detail, ok := evt.Detail.(map[string]any)
	if !ok {
		return fmt.Errorf("transport:tempo detail must be a map, got %T", evt.Detail)
	}
	bpm, ok := detail["bpm"].(int)
	if !ok || bpm <= 0 {
		return fmt.Errorf("transport:tempo needs a positive bpm, got %v", detail["bpm"])
	}

	m.mu.Lock()
	m.bpm = bpm
	m.mu.Unlock()

	m.Emit(ctx, EventTempoChanged, map[string]any{"bpm": bpm})
	return nil
}

// Tick advances one beat and emits "metronome:tick" while running.
func (m *Metronome) Tick(ctx context.Context) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.beat++
	beat := m.beat
	bpm := m.bpm
	m.mu.Unlock()

	m.Emit(ctx, EventTick, map[string]any{"beat": beat, "bpm": bpm})
}

// BPM returns the current tempo.
func (m *Metronome) BPM() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bpm
}
