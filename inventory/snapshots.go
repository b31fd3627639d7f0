// Package inventory holds the ordered snapshot sets the replication engine
// reasons over: per-dataset, per-host inventories sorted ascending by
// creation time.
package inventory

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"xync.dev/xync/model"
)

// Snapshots is a small ordered set of snapshots, kept sorted ascending by
// creation time (ties broken by name). It's backed by a plain slice plus
// an ID→position index rather than a linked structure: the sets this
// package deals with are the handful of managed snapshots one dataset
// accumulates between runs, bounded in practice by SNAP_KEEP, so the
// O(n) shift an insert or delete costs is cheaper in both code and
// runtime than maintaining prev/next pointers for a container that never
// grows past a few dozen entries.
type Snapshots struct {
	items []*model.Snapshot
	index map[string]int // Snapshot.ID() -> position in items
}

func New(snapshots ...*model.Snapshot) *Snapshots {
	snaps := &Snapshots{index: make(map[string]int)}
	for _, snap := range snapshots {
		snaps.Add(snap)
	}
	return snaps
}

func (snaps *Snapshots) String() string {
	if snaps == nil || len(snaps.items) == 0 {
		return "0 snaps"
	}
	return fmt.Sprintf("%d → %s", snaps.Len(), snaps.items[len(snaps.items)-1].Name)
}

func (snaps *Snapshots) Print() string {
	var out strings.Builder
	for snap := range snaps.All() {
		fmt.Fprintf(&out, "  - %s\n", snap.ID())
	}
	return out.String()
}

func (snaps *Snapshots) Eq(other *Snapshots) bool {
	if snaps.Len() != other.Len() {
		return false
	}
	for snap := range snaps.All() {
		if !other.Has(snap) {
			return false
		}
	}
	return true
}

// Diff renders a unified +/- listing of what changed between snaps and
// other, one line per snapshot, prefixed with prefix.
func (snaps *Snapshots) Diff(prefix string, other *Snapshots) string {
	removed := snaps.Difference(other)
	added := other.Difference(snaps)

	var out strings.Builder
	for snap := range snaps.Union(other).All() {
		sigil := " "
		switch {
		case removed.Has(snap):
			sigil = "-"
		case added.Has(snap):
			sigil = "+"
		}
		fmt.Fprintf(&out, "%s%s %s\n", prefix, sigil, snap.ID())
	}
	return out.String()
}

// All yields snapshots oldest first.
func (snaps *Snapshots) All() iter.Seq[*model.Snapshot] {
	return func(yield func(*model.Snapshot) bool) {
		if snaps == nil {
			return
		}
		for _, snap := range snaps.items {
			if !yield(snap) {
				return
			}
		}
	}
}

// AllDesc yields snapshots newest first.
func (snaps *Snapshots) AllDesc() iter.Seq[*model.Snapshot] {
	return func(yield func(*model.Snapshot) bool) {
		if snaps == nil {
			return
		}
		for i := len(snaps.items) - 1; i >= 0; i-- {
			if !yield(snaps.items[i]) {
				return
			}
		}
	}
}

// Add inserts snap into its sorted position, a no-op if a snapshot with
// the same ID (dataset+name) is already present.
func (snaps *Snapshots) Add(snap *model.Snapshot) {
	if _, has := snaps.index[snap.ID()]; has {
		return
	}

	pos := sort.Search(len(snaps.items), func(i int) bool {
		return snap.Less(snaps.items[i])
	})

	snaps.items = append(snaps.items, nil)
	copy(snaps.items[pos+1:], snaps.items[pos:])
	snaps.items[pos] = snap

	snaps.reindexFrom(pos)
}

// Del removes the snapshot matching snap's ID, if present.
func (snaps *Snapshots) Del(snap *model.Snapshot) {
	pos, ok := snaps.index[snap.ID()]
	if !ok {
		return
	}

	snaps.items = append(snaps.items[:pos], snaps.items[pos+1:]...)
	delete(snaps.index, snap.ID())

	snaps.reindexFrom(pos)
}

// reindexFrom rebuilds the index for items[pos:], the only entries whose
// position could have shifted after an insert or delete at pos.
func (snaps *Snapshots) reindexFrom(pos int) {
	for i := pos; i < len(snaps.items); i++ {
		snaps.index[snaps.items[i].ID()] = i
	}
}

func (snaps *Snapshots) Has(snap *model.Snapshot) bool {
	if snaps == nil {
		return false
	}
	_, exists := snaps.index[snap.ID()]
	return exists
}

// HasName reports whether any snapshot in the set has the given name,
// regardless of dataset — used for the same-name collision check (§4.6
// Step 3) and for cross-side base matching (§4.6 Step 4).
func (snaps *Snapshots) HasName(name string) bool {
	if snaps == nil {
		return false
	}
	for _, snap := range snaps.items {
		if snap.Name == name {
			return true
		}
	}
	return false
}

func (snaps *Snapshots) Len() int {
	if snaps == nil {
		return 0
	}
	return len(snaps.items)
}

// Oldest returns the oldest snapshot, or nil if the set is empty.
func (snaps *Snapshots) Oldest() *model.Snapshot {
	if snaps == nil || len(snaps.items) == 0 {
		return nil
	}
	return snaps.items[0]
}

// Newest returns the newest snapshot, or nil if the set is empty.
func (snaps *Snapshots) Newest() *model.Snapshot {
	if snaps == nil || len(snaps.items) == 0 {
		return nil
	}
	return snaps.items[len(snaps.items)-1]
}

func (snaps *Snapshots) Union(other *Snapshots) *Snapshots {
	union := New()
	for snap := range snaps.All() {
		union.Add(snap)
	}
	for snap := range other.All() {
		union.Add(snap)
	}
	return union
}

func (snaps *Snapshots) Intersection(other *Snapshots) *Snapshots {
	intersection := New()
	for snap := range snaps.All() {
		if other.Has(snap) {
			intersection.Add(snap)
		}
	}
	return intersection
}

func (snaps *Snapshots) Difference(other *Snapshots) *Snapshots {
	difference := New()
	for snap := range snaps.All() {
		if !other.Has(snap) {
			difference.Add(snap)
		}
	}
	return difference
}

func (snaps *Snapshots) Clone() *Snapshots {
	if snaps == nil {
		return nil
	}
	out := New()
	for snap := range snaps.All() {
		out.Add(snap)
	}
	return out
}
