package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.IncCounter(EventsEmitted, map[string]string{"type": "midi:note-on"})
	c.IncCounter(EventsEmitted, map[string]string{"type": "midi:note-on"})
	c.AddCounter(EventsEmitted, 3, map[string]string{"type": "midi:note-off"})

	assert.Equal(t, 2.0, c.Value(EventsEmitted, map[string]string{"type": "midi:note-on"}))
	assert.Equal(t, 3.0, c.Value(EventsEmitted, map[string]string{"type": "midi:note-off"}))
	assert.Equal(t, 0.0, c.Value(EventsEmitted, map[string]string{"type": "never"}))
}

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector()

	c.AddGauge(WaitersActive, 1, nil)
	c.AddGauge(WaitersActive, 1, nil)
	c.AddGauge(WaitersActive, -1, nil)
	assert.Equal(t, 1.0, c.Value(WaitersActive, nil))

	c.SetGauge(WaitersActive, 7, nil)
	assert.Equal(t, 7.0, c.Value(WaitersActive, nil))
}

func TestCollector_SnapshotIsACopy(t *testing.T) {
	c := NewCollector()
	c.IncCounter(HandlerErrors, map[string]string{"type": "t"})

	snap := c.Snapshot()
	assert.Len(t, snap, 1)

	for key, m := range snap {
		assert.Equal(t, "counter", m.Type)
		m.Labels["type"] = "mutated"
		_ = key
	}
	// Mutating the snapshot labels must not leak into the collector.
	assert.Equal(t, 1.0, c.Value(HandlerErrors, map[string]string{"type": "t"}))
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.IncCounter(AsyncScheduled, nil)
	c.Reset()
	assert.Equal(t, 0.0, c.Value(AsyncScheduled, nil))
	assert.Empty(t, c.Snapshot())
}

func TestBuildKey_SortsLabels(t *testing.T) {
	a := buildKey("m", map[string]string{"b": "2", "a": "1"})
	b := buildKey("m", map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, a, b)
	assert.Equal(t, "m{a=1,b=2}", a)
	assert.Equal(t, "m", buildKey("m", nil))
}
