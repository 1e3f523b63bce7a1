// ABOUTME: Bounded top-K frequency tracker
// ABOUTME: Insertion-sorted, stable ties, strict-greater eviction

package stats

import "encoding/json"

// Entry is one tracked key with its accumulated count.
type Entry struct {
	Key   string `json:"key"`
	Count uint64 `json:"count"`
}

// TopK tracks up to cap distinct keys ordered by descending count.
// Maintenance is an insertion-sort bubble: increments move an entry up
// past strictly smaller counts only, so keys with equal counts keep the
// order in which they reached that count. The structure is approximate
// on purpose: once full, a new key displaces the minimum slot only when
// it arrives with an accumulated count strictly greater than the
// minimum, so a frequent key first seen after the table fills can be
// missed. That behavior is part of the contract.
type TopK struct {
	cap     int
	entries []Entry
}

// NewTopK returns a tracker holding at most cap keys. A cap below one is
// treated as one.
func NewTopK(cap int) TopK {
	if cap < 1 {
		cap = 1
	}
	return TopK{cap: cap}
}

// Observe records one occurrence of key.
func (t *TopK) Observe(key string) {
	t.ObserveCount(key, 1)
}

// ObserveCount records n occurrences of key at once. Merges use it to
// replay one snapshot into another; n competes against the minimum slot
// when the table is full.
func (t *TopK) ObserveCount(key string, n uint64) {
	if n == 0 {
		return
	}
	if t.cap < 1 {
		t.cap = 1
	}
	for i := range t.entries {
		if t.entries[i].Key == key {
			t.entries[i].Count += n
			t.bubbleUp(i)
			return
		}
	}
	if len(t.entries) < t.cap {
		t.entries = append(t.entries, Entry{Key: key, Count: n})
		t.bubbleUp(len(t.entries) - 1)
		return
	}
	// Full: the last slot holds the minimum. Strictly greater wins.
	last := len(t.entries) - 1
	if n > t.entries[last].Count {
		t.entries[last] = Entry{Key: key, Count: n}
		t.bubbleUp(last)
	}
}

// bubbleUp restores descending order after entries[i] grew, moving it
// ahead of strictly smaller counts while leaving equal counts in place.
func (t *TopK) bubbleUp(i int) {
	for i > 0 && t.entries[i-1].Count < t.entries[i].Count {
		t.entries[i-1], t.entries[i] = t.entries[i], t.entries[i-1]
		i--
	}
}

// Len is the number of tracked keys.
func (t *TopK) Len() int {
	return len(t.entries)
}

// Cap is the configured capacity.
func (t *TopK) Cap() int {
	return t.cap
}

// Count returns the tracked count for key, zero when untracked.
func (t *TopK) Count(key string) uint64 {
	for i := range t.entries {
		if t.entries[i].Key == key {
			return t.entries[i].Count
		}
	}
	return 0
}

// Snapshot returns the tracked entries in descending count order. The
// returned slice is a copy.
func (t *TopK) Snapshot() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Clone returns an independent copy of the tracker.
func (t TopK) Clone() TopK {
	out := TopK{cap: t.cap}
	if len(t.entries) > 0 {
		out.entries = make([]Entry, len(t.entries))
		copy(out.entries, t.entries)
	}
	return out
}

type topkJSON struct {
	Cap     int     `json:"cap"`
	Entries []Entry `json:"entries"`
}

func (t TopK) MarshalJSON() ([]byte, error) {
	return json.Marshal(topkJSON{Cap: t.cap, Entries: t.entries})
}

func (t *TopK) UnmarshalJSON(data []byte) error {
	var in topkJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	t.cap = in.Cap
	if t.cap < 1 {
		t.cap = 1
	}
	t.entries = in.Entries
	return nil
}
