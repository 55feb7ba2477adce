package game

import (
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
)

// playerEntry is tagged with the round it belongs to. An entry whose tag is
// not the registry's current round is stale and treated as absent.
type playerEntry struct {
	round uint64
	entry models.ParticipantEntry
}

// registry is the per-round PlayerRegistry. Starting a new round is a tag
// bump; stale entries are reused on rejoin and compacted lazily.
type registry struct {
	round   uint64
	entries map[models.ParticipantID]*playerEntry
	order   []models.ParticipantID // current round, join order
}

func newRegistry(round uint64) *registry {
	return &registry{
		round:   round,
		entries: make(map[models.ParticipantID]*playerEntry),
	}
}

func (r *registry) lookup(id models.ParticipantID) (*playerEntry, bool) {
	e, ok := r.entries[id]
	if !ok || e.round != r.round {
		return nil, false
	}
	return e, true
}

func (r *registry) insert(id models.ParticipantID, stake models.Amount, now time.Time) {
	if len(r.entries) > 2*len(r.order)+64 {
		r.compact()
	}
	e, ok := r.entries[id]
	if !ok {
		e = &playerEntry{}
		r.entries[id] = e
	}
	e.round = r.round
	e.entry = models.ParticipantEntry{ID: id, Stake: stake, JoinedAt: now}
	r.order = append(r.order, id)
}

func (r *registry) len() int {
	return len(r.order)
}

// snapshot copies the current round's entries in join order.
func (r *registry) snapshot() []models.ParticipantEntry {
	out := make([]models.ParticipantEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].entry)
	}
	return out
}

// reset moves the registry to round; every existing entry becomes stale.
func (r *registry) reset(round uint64) {
	r.round = round
	r.order = r.order[:0]
}

func (r *registry) compact() {
	for id, e := range r.entries {
		if e.round != r.round {
			delete(r.entries, id)
		}
	}
}

// stakeTotal sums current stakes; ok is false on overflow.
func (r *registry) stakeTotal() (models.Amount, bool) {
	var total models.Amount
	for _, id := range r.order {
		var ok bool
		if total, ok = total.Add(r.entries[id].entry.Stake); !ok {
			return 0, false
		}
	}
	return total, true
}
