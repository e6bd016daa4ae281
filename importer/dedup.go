package importer

import (
	"fmt"

	"github.com/Dosada05/tournament-registration/models"
)

// DedupIndex is a snapshot of who is already registered in one content. It is
// built from persisted entries on every call and never cached.
type DedupIndex struct {
	users   map[int]struct{}
	pairs   map[string]struct{}
	entries int
}

// PairKey returns the order-independent key of two user ids ("3-7").
func PairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}

// BuildDedupIndex scans persisted entries (with members) of one content.
func BuildDedupIndex(entries []*models.Entry) *DedupIndex {
	idx := &DedupIndex{
		users: make(map[int]struct{}),
		pairs: make(map[string]struct{}),
	}
	for _, e := range entries {
		if e == nil {
			continue
		}
		idx.entries++
		for _, m := range e.Members {
			idx.users[m.UserID] = struct{}{}
		}
		if len(e.Members) == 2 {
			idx.pairs[PairKey(e.Members[0].UserID, e.Members[1].UserID)] = struct{}{}
		}
	}
	return idx
}

func (d *DedupIndex) HasUser(userID int) bool {
	if d == nil {
		return false
	}
	_, ok := d.users[userID]
	return ok
}

func (d *DedupIndex) HasPair(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.pairs[key]
	return ok
}

// Occupancy is the number of entries already registered.
func (d *DedupIndex) Occupancy() int {
	if d == nil {
		return 0
	}
	return d.entries
}
