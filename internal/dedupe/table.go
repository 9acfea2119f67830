package dedupe

import "winnow/internal/media"

// Action describes what the coordinator must do after observing a file.
type Action int

const (
	// ActionRecord marks a first sighting: keep the file where it is.
	ActionRecord Action = iota
	// ActionQuarantineNew marks the incoming file as the duplicate to move.
	ActionQuarantineNew
	// ActionReplaceAndQuarantineOld promotes the incoming file and moves the
	// previous survivor instead.
	ActionReplaceAndQuarantineOld
)

// String returns a human-readable action name.
func (a Action) String() string {
	switch a {
	case ActionRecord:
		return "record"
	case ActionQuarantineNew:
		return "quarantine-new"
	case ActionReplaceAndQuarantineOld:
		return "replace-survivor"
	default:
		return "unknown"
	}
}

// Decision captures the outcome of observing one file against the table.
// Existing is the zero Candidate unless a prior survivor held the key.
type Decision struct {
	Action   Action
	Key      string
	Incoming media.Candidate
	Existing media.Candidate
}

// Loser returns the candidate that must be quarantined. For ActionRecord
// there is no loser and the zero Candidate is returned.
func (d Decision) Loser() media.Candidate {
	switch d.Action {
	case ActionQuarantineNew:
		return d.Incoming
	case ActionReplaceAndQuarantineOld:
		return d.Existing
	default:
		return media.Candidate{}
	}
}

// Table tracks the current survivor for every fingerprint key seen during a
// scan. Observe is a pure read; mutations happen only through Commit, so a
// failed move never corrupts the table. Table is not safe for concurrent
// use: a single coordinator goroutine must own it.
type Table struct {
	entries map[string]media.Candidate
}

// NewTable returns an empty survivor table.
func NewTable() *Table {
	return &Table{entries: make(map[string]media.Candidate)}
}

// Observe compares the incoming candidate against the current survivor for
// key and returns the decision. A deeper incoming path replaces the survivor;
// ties and shallower paths leave the survivor in place.
func (t *Table) Observe(key string, incoming media.Candidate) Decision {
	existing, ok := t.entries[key]
	if !ok {
		return Decision{Action: ActionRecord, Key: key, Incoming: incoming}
	}
	if incoming.Depth > existing.Depth {
		return Decision{Action: ActionReplaceAndQuarantineOld, Key: key, Incoming: incoming, Existing: existing}
	}
	return Decision{Action: ActionQuarantineNew, Key: key, Incoming: incoming, Existing: existing}
}

// Commit applies a decision to the table. Callers commit only after any move
// the decision requires has succeeded.
func (t *Table) Commit(d Decision) {
	switch d.Action {
	case ActionRecord, ActionReplaceAndQuarantineOld:
		t.entries[d.Key] = d.Incoming
	case ActionQuarantineNew:
		// Survivor unchanged.
	}
}

// Survivor reports the current survivor for key.
func (t *Table) Survivor(key string) (media.Candidate, bool) {
	candidate, ok := t.entries[key]
	return candidate, ok
}

// Len returns the number of distinct fingerprint keys committed so far.
func (t *Table) Len() int {
	return len(t.entries)
}
