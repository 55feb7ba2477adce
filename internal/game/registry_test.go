package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
)

func TestRegistryResetInvalidatesEntries(t *testing.T) {
	r := newRegistry(1)
	r.insert("a", 10, epoch)
	r.insert("b", 20, epoch)

	r.reset(2)
	if _, ok := r.lookup("a"); ok {
		t.Error("stale entry visible after reset")
	}
	if r.len() != 0 || len(r.snapshot()) != 0 {
		t.Error("registry not empty after reset")
	}

	r.insert("a", 5, epoch.Add(time.Second))
	e, ok := r.lookup("a")
	if !ok || e.entry.Stake != 5 || e.entry.Clicks != 0 {
		t.Errorf("rejoined entry = %+v", e)
	}
	total, ok := r.stakeTotal()
	if !ok || total != 5 {
		t.Errorf("stakeTotal() = %s, %v", total, ok)
	}
}

func TestRegistrySnapshotKeepsJoinOrder(t *testing.T) {
	r := newRegistry(1)
	ids := []models.ParticipantID{"z", "a", "m"}
	for _, id := range ids {
		r.insert(id, 1, epoch)
	}
	snap := r.snapshot()
	for i, id := range ids {
		if snap[i].ID != id {
			t.Errorf("snapshot[%d] = %s, want %s", i, snap[i].ID, id)
		}
	}

	snap[0].Clicks = 99
	if e, _ := r.lookup("z"); e.entry.Clicks != 0 {
		t.Error("snapshot aliases registry state")
	}
}

func TestRegistryCompactsStaleEntries(t *testing.T) {
	r := newRegistry(1)
	for round := uint64(1); round <= 200; round++ {
		r.reset(round)
		r.insert(models.ParticipantID(fmt.Sprintf("p%d", round)), 1, epoch)
	}
	if n := len(r.entries); n > 2*r.len()+65 {
		t.Errorf("registry holds %d entries for %d live players", n, r.len())
	}
}

func TestRegistryEmptyStakeTotal(t *testing.T) {
	total, ok := newRegistry(1).stakeTotal()
	if !ok || total != 0 {
		t.Errorf("stakeTotal() = %s, %v", total, ok)
	}
}
