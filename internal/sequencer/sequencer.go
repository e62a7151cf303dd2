// Package sequencer picks the checkpoint a guard should visit next.
//
// The choice is driven by route order only: the first checkpoint of the route not
// yet scanned today. Scanning out of order is allowed and does not move the
// suggestion past an earlier gap. Once every checkpoint has been scanned the
// suggestion wraps to the first one and the round starts again.
package sequencer

import (
	"time"

	"patrol_tracker/internal/models"
)

// ScannedSet holds the checkpoint IDs a guard scanned in the current window.
type ScannedSet map[uint]struct{}

func NewScannedSet(ids ...uint) ScannedSet {
	s := make(ScannedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s ScannedSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

// StartOfDay returns local midnight of t in t's own location.
// Scan history resets at this instant, not on a rolling 24h window.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Next returns the first checkpoint of route not in scanned, or the first
// checkpoint when all are scanned. It returns nil for a nil or empty route.
func Next(route *models.PatrolRoute, scanned ScannedSet) *models.Checkpoint {
	checkpoints := route.OrderedCheckpoints()
	if len(checkpoints) == 0 {
		return nil
	}
	for i := range checkpoints {
		if !scanned.Has(checkpoints[i].ID) {
			return &checkpoints[i]
		}
	}
	return &checkpoints[0]
}

// Progress describes how far through the current round a guard is.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func ComputeProgress(route *models.PatrolRoute, scanned ScannedSet) Progress {
	checkpoints := route.OrderedCheckpoints()
	p := Progress{Total: len(checkpoints)}
	for _, cp := range checkpoints {
		if scanned.Has(cp.ID) {
			p.Completed++
		}
	}
	return p
}
