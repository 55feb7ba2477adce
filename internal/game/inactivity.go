package game

import "time"

// Inactivity guard: a round nobody joins can never satisfy EndRound, so
// after the inactivity threshold it may be force-closed.

func (l *roundLedger) inactivityAnchor() time.Time {
	if !l.startedAt.IsZero() {
		return l.startedAt
	}
	return l.createdAt
}

func (l *roundLedger) canClaimInactivity(now time.Time) bool {
	if l.pending != nil || l.players.len() > 0 {
		return false
	}
	return now.Sub(l.inactivityAnchor()) > l.inactivity
}

// timeUntilInactivity is zero once the window has passed and whenever
// the round has players, since a claim is then impossible.
func (l *roundLedger) timeUntilInactivity(now time.Time) time.Duration {
	if l.players.len() > 0 {
		return 0
	}
	if left := l.inactivity - now.Sub(l.inactivityAnchor()); left > 0 {
		return left
	}
	return 0
}
