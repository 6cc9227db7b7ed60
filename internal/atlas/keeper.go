package atlas

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/QJones76/leaflet-challenge/internal/legend"
	"github.com/rs/zerolog/log"
)

// Keeper holds the current Atlas and optionally rebuilds it on an interval.
type Keeper struct {
	builder  *Builder
	interval time.Duration
	current  atomic.Pointer[Atlas]
}

// NewKeeper creates a keeper. A zero interval builds the map once.
func NewKeeper(b *Builder, interval time.Duration) *Keeper {
	return &Keeper{builder: b, interval: interval}
}

// Load builds the first Atlas synchronously.
func (k *Keeper) Load(ctx context.Context) *Atlas {
	a := k.builder.Build(ctx)
	k.current.Store(a)
	return a
}

// Current returns the latest Atlas, nil before Load.
func (k *Keeper) Current() *Atlas {
	return k.current.Load()
}

// Run rebuilds the Atlas every interval until ctx is done. An overlay whose
// feed failed on rebuild keeps its previous contents.
func (k *Keeper) Run(ctx context.Context) {
	if k.interval <= 0 {
		return
	}

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next := k.builder.Build(ctx)
			if ctx.Err() != nil {
				return
			}
			k.current.Store(carryForward(k.Current(), next))
		}
	}
}

// carryForward replaces every failed overlay of next with the loaded one from
// prev, then rebuilds the legend and control to match.
func carryForward(prev, next *Atlas) *Atlas {
	if prev == nil {
		return next
	}

	kept := 0
	for i, o := range next.Overlays {
		if o.Status.Loaded {
			continue
		}
		old, ok := prev.Overlay(o.Key)
		if !ok || !old.Status.Loaded {
			continue
		}
		log.Warn().Str("overlay", o.Key).Str("error", o.Status.Error).
			Msg("Refresh failed, keeping previous overlay")
		next.Overlays[i] = old
		kept++
	}
	if kept == 0 {
		return next
	}

	if q, ok := next.Overlay(EarthquakesKey); ok && q.Status.Loaded && next.Legend == nil {
		next.Legend = legend.New()
	}
	next.Control = NewLayerControl(next.Overlays)
	return next
}
