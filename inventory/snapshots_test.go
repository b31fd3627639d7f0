package inventory

import (
	"strings"
	"testing"

	"xync.dev/xync/model"
)

func TestAdd_KeepsAscendingOrderRegardlessOfInsertionOrder(t *testing.T) {
	t2 := &model.Snapshot{Name: "autorep-T2", CreatedAt: 200}
	t4 := &model.Snapshot{Name: "autorep-T4", CreatedAt: 400}
	t1 := &model.Snapshot{Name: "autorep-T1", CreatedAt: 100}
	t3 := &model.Snapshot{Name: "autorep-T3", CreatedAt: 300}

	snaps := New()
	snaps.Add(t2)
	snaps.Add(t4)
	snaps.Add(t1)
	snaps.Add(t3)

	want := []*model.Snapshot{t1, t2, t3, t4}
	i := 0
	for snap := range snaps.All() {
		if snap != want[i] {
			t.Fatalf("position %d: got %s; want %s", i, snap.Name, want[i].Name)
		}
		i++
	}
	if i != len(want) {
		t.Fatalf("iterated %d snapshots; want %d", i, len(want))
	}
}

func TestAdd_DuplicateIDIsANoop(t *testing.T) {
	snaps := New(&model.Snapshot{Dataset: "p1", Name: "autorep-T1", CreatedAt: 1})
	snaps.Add(&model.Snapshot{Dataset: "p1", Name: "autorep-T1", CreatedAt: 999})

	if snaps.Len() != 1 {
		t.Fatalf("Len() = %d; want 1 (second Add should be a no-op on the same ID)", snaps.Len())
	}
	if snaps.Oldest().CreatedAt != 1 {
		t.Fatalf("CreatedAt = %d; want the first Add's value to have won", snaps.Oldest().CreatedAt)
	}
}

func TestAllDesc_IsTheReverseOfAll(t *testing.T) {
	snaps := New(
		&model.Snapshot{Name: "autorep-T1", CreatedAt: 1},
		&model.Snapshot{Name: "autorep-T2", CreatedAt: 2},
		&model.Snapshot{Name: "autorep-T3", CreatedAt: 3},
	)

	var asc, desc []string
	for snap := range snaps.All() {
		asc = append(asc, snap.Name)
	}
	for snap := range snaps.AllDesc() {
		desc = append(desc, snap.Name)
	}

	for i, name := range asc {
		if desc[len(desc)-1-i] != name {
			t.Fatalf("AllDesc is not the reverse of All: asc=%v desc=%v", asc, desc)
		}
	}
}

func TestDel_RemovesAndClosesTheGap(t *testing.T) {
	t1 := &model.Snapshot{Name: "autorep-T1", CreatedAt: 1}
	t2 := &model.Snapshot{Name: "autorep-T2", CreatedAt: 2}
	t3 := &model.Snapshot{Name: "autorep-T3", CreatedAt: 3}
	snaps := New(t1, t2, t3)

	snaps.Del(t2)

	if snaps.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", snaps.Len())
	}
	if snaps.Has(t2) {
		t.Fatalf("expected t2 to be gone")
	}
	if snaps.Oldest() != t1 || snaps.Newest() != t3 {
		t.Fatalf("Oldest/Newest = %s/%s; want t1/t3", snaps.Oldest().Name, snaps.Newest().Name)
	}
}

func TestDel_MissingSnapshotIsANoop(t *testing.T) {
	snaps := New(&model.Snapshot{Name: "autorep-T1", CreatedAt: 1})
	snaps.Del(&model.Snapshot{Name: "autorep-NOPE", CreatedAt: 999})
	if snaps.Len() != 1 {
		t.Fatalf("Len() = %d; want 1 (deleting an absent ID changes nothing)", snaps.Len())
	}
}

func TestDel_MatchesByIDIgnoringCreatedAt(t *testing.T) {
	real := &model.Snapshot{Dataset: "p1", Name: "autorep-T1", CreatedAt: 12345}
	snaps := New(real)

	// A sentinel sharing only Dataset+Name (the duplicate-name defense in
	// replicate.Engine.Run constructs exactly this kind of stand-in).
	sentinel := &model.Snapshot{Dataset: "p1", Name: "autorep-T1"}
	snaps.Del(sentinel)

	if snaps.Len() != 0 {
		t.Fatalf("Len() = %d; want 0 (Del should match by ID alone)", snaps.Len())
	}
}

func TestOldestNewest_EmptySetReturnsNil(t *testing.T) {
	snaps := New()
	if snaps.Oldest() != nil || snaps.Newest() != nil {
		t.Fatalf("expected nil Oldest/Newest on an empty set")
	}
}

func TestHasName_IgnoresDataset(t *testing.T) {
	snaps := New(&model.Snapshot{Dataset: "pool/a", Name: "autorep-T1", CreatedAt: 1})
	if !snaps.HasName("autorep-T1") {
		t.Fatalf("expected HasName to find autorep-T1 regardless of dataset")
	}
	if snaps.HasName("autorep-T2") {
		t.Fatalf("did not expect HasName to find autorep-T2")
	}
}

func TestUnion_CombinesBothSidesWithoutDuplicates(t *testing.T) {
	shared := &model.Snapshot{Name: "autorep-T1", CreatedAt: 1}
	onlyA := &model.Snapshot{Name: "autorep-T2", CreatedAt: 2}
	onlyB := &model.Snapshot{Name: "autorep-T3", CreatedAt: 3}

	a := New(shared, onlyA)
	b := New(shared, onlyB)

	union := a.Union(b)
	if union.Len() != 3 {
		t.Fatalf("Len() = %d; want 3", union.Len())
	}
	if !union.Has(shared) || !union.Has(onlyA) || !union.Has(onlyB) {
		t.Fatalf("union is missing an expected member")
	}
}

func TestIntersection_KeepsOnlySharedMembers(t *testing.T) {
	shared := &model.Snapshot{Name: "autorep-T1", CreatedAt: 1}
	onlyA := &model.Snapshot{Name: "autorep-T2", CreatedAt: 2}

	a := New(shared, onlyA)
	b := New(shared)

	intersection := a.Intersection(b)
	if intersection.Len() != 1 || !intersection.Has(shared) {
		t.Fatalf("expected intersection to contain exactly the shared snapshot")
	}
}

func TestDifference_KeepsOnlyLeftOnlyMembers(t *testing.T) {
	shared := &model.Snapshot{Name: "autorep-T1", CreatedAt: 1}
	onlyA := &model.Snapshot{Name: "autorep-T2", CreatedAt: 2}

	a := New(shared, onlyA)
	b := New(shared)

	difference := a.Difference(b)
	if difference.Len() != 1 || !difference.Has(onlyA) {
		t.Fatalf("expected difference to contain exactly the left-only snapshot")
	}
}

func TestClone_IsIndependentOfTheOriginal(t *testing.T) {
	t1 := &model.Snapshot{Name: "autorep-T1", CreatedAt: 1}
	original := New(t1)

	clone := original.Clone()
	clone.Add(&model.Snapshot{Name: "autorep-T2", CreatedAt: 2})

	if original.Len() != 1 {
		t.Fatalf("mutating the clone changed the original's length to %d", original.Len())
	}
}

func TestDiff_MarksAddedAndRemovedLines(t *testing.T) {
	removed := &model.Snapshot{Dataset: "p1", Name: "autorep-OLD", CreatedAt: 1}
	kept := &model.Snapshot{Dataset: "p1", Name: "autorep-KEPT", CreatedAt: 2}
	added := &model.Snapshot{Dataset: "p1", Name: "autorep-NEW", CreatedAt: 3}

	before := New(removed, kept)
	after := New(kept, added)

	out := before.Diff("  ", after)
	if !strings.Contains(out, "- "+removed.ID()) {
		t.Fatalf("expected a removed-line for %s, got:\n%s", removed.ID(), out)
	}
	if !strings.Contains(out, "+ "+added.ID()) {
		t.Fatalf("expected an added-line for %s, got:\n%s", added.ID(), out)
	}
	if strings.Contains(out, "- "+kept.ID()) || strings.Contains(out, "+ "+kept.ID()) {
		t.Fatalf("did not expect a +/- line for the kept snapshot, got:\n%s", out)
	}
}
