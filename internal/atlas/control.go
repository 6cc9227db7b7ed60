package atlas

import (
	"encoding/json"
	"errors"
	"sync"
)

var (
	// ErrUnknownOverlay is returned for a key the control does not list.
	ErrUnknownOverlay = errors.New("unknown overlay")
	// ErrUnavailable is returned when showing an overlay whose data failed to load.
	ErrUnavailable = errors.New("overlay data unavailable")
)

// ControlEntry is one toggle of the layer control.
type ControlEntry struct {
	Key       string `json:"key" yaml:"key"`
	Name      string `json:"name" yaml:"name"`
	Visible   bool   `json:"visible" yaml:"visible"`
	Available bool   `json:"available" yaml:"available"`
}

// LayerControl is the always expanded list of overlay toggles. It offers no
// base layer switcher since the map has a single base layer.
type LayerControl struct {
	mu        sync.RWMutex
	collapsed bool
	entries   []ControlEntry
}

// defaultVisible lists overlays shown when the map first opens.
var defaultVisible = map[string]bool{
	EarthquakesKey: true,
	PlatesKey:      false,
}

// NewLayerControl lists every overlay. It must be created after the
// overlays resolved so no toggle ever points at data still in flight.
func NewLayerControl(overlays []*Overlay) *LayerControl {
	c := &LayerControl{entries: make([]ControlEntry, 0, len(overlays))}
	for _, o := range overlays {
		c.entries = append(c.entries, ControlEntry{
			Key:       o.Key,
			Name:      o.Name,
			Visible:   o.Status.Loaded && defaultVisible[o.Key],
			Available: o.Status.Loaded,
		})
	}
	return c
}

// Collapsed reports whether the control renders folded. It never does.
func (c *LayerControl) Collapsed() bool {
	return c.collapsed
}

// Entries returns a snapshot of the toggles in display order.
func (c *LayerControl) Entries() []ControlEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ControlEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Visible reports whether an overlay is currently shown.
func (c *LayerControl) Visible(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.Key == key {
			return e.Visible
		}
	}
	return false
}

// Show makes an overlay visible. Showing a visible overlay is a no-op.
func (c *LayerControl) Show(key string) error {
	_, err := c.update(key, func(bool) bool { return true })
	return err
}

// Hide removes an overlay from view. Hiding a hidden overlay is a no-op.
func (c *LayerControl) Hide(key string) error {
	_, err := c.update(key, func(bool) bool { return false })
	return err
}

// Toggle flips an overlay and returns its new visibility.
func (c *LayerControl) Toggle(key string) (bool, error) {
	return c.update(key, func(visible bool) bool { return !visible })
}

// update applies next to an entry's visibility under a single lock.
func (c *LayerControl) update(key string, next func(visible bool) bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		e := &c.entries[i]
		if e.Key != key {
			continue
		}
		visible := next(e.Visible)
		if visible && !e.Available {
			return e.Visible, ErrUnavailable
		}
		e.Visible = visible
		return visible, nil
	}
	return false, ErrUnknownOverlay
}

// MarshalJSON encodes the control state.
func (c *LayerControl) MarshalJSON() ([]byte, error) {
	return json.Marshal(ControlState{Collapsed: c.Collapsed(), Entries: c.Entries()})
}

// MarshalYAML encodes the control state.
func (c *LayerControl) MarshalYAML() (any, error) {
	return ControlState{Collapsed: c.Collapsed(), Entries: c.Entries()}, nil
}

// ControlState is the serialized form of a LayerControl.
type ControlState struct {
	Collapsed bool           `json:"collapsed" yaml:"collapsed"`
	Entries   []ControlEntry `json:"entries" yaml:"entries"`
}
