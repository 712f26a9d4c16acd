package provider

import (
	"sort"
	"sync"
)

// Deduplicator remembers every commit delivered by one adapter instance.
// Entries are never purged. Overlapping Watch calls of the same adapter
// share it, so Filter is serialized.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[CommitID]struct{}
}

// NewDeduplicator creates an empty dedup set.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[CommitID]struct{})}
}

// Filter orders builds by StartDate, most recent first, and returns those
// whose commit has not been delivered yet, marking each returned commit as
// seen. The input slice is not modified.
func (d *Deduplicator) Filter(builds []*BuildRecord) []*BuildRecord {
	ordered := make([]*BuildRecord, len(builds))
	copy(ordered, builds)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartDate.After(ordered[j].StartDate)
	})

	d.mu.Lock()
	defer d.mu.Unlock()

	fresh := make([]*BuildRecord, 0, len(ordered))
	for _, b := range ordered {
		if _, dup := d.seen[b.CommitID]; dup {
			continue
		}
		d.seen[b.CommitID] = struct{}{}
		fresh = append(fresh, b)
	}
	return fresh
}
