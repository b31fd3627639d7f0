package zfs

import "testing"

func TestParseSnapshotRows(t *testing.T) {
	snaps, err := parseSnapshotRows("pool/a", []string{
		"pool/a@autorep-2026-08-01\t1754006400",
		"pool/a@autorep-2026-08-02\t1754092800",
	}, "")
	if err != nil {
		t.Fatalf("parseSnapshotRows: %v", err)
	}
	if snaps.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", snaps.Len())
	}
	if snaps.Oldest().Name != "autorep-2026-08-01" {
		t.Fatalf("Oldest().Name = %q", snaps.Oldest().Name)
	}
	if snaps.Newest().Name != "autorep-2026-08-02" {
		t.Fatalf("Newest().Name = %q", snaps.Newest().Name)
	}
}

func TestParseSnapshotRows_FiltersByPrefix(t *testing.T) {
	snaps, err := parseSnapshotRows("pool/a", []string{
		"pool/a@manual-snap\t1754006400",
		"pool/a@autorep-2026-08-02\t1754092800",
	}, "autorep-")
	if err != nil {
		t.Fatalf("parseSnapshotRows: %v", err)
	}
	if snaps.Len() != 1 {
		t.Fatalf("Len() = %d; want 1", snaps.Len())
	}
	if snaps.Newest().Name != "autorep-2026-08-02" {
		t.Fatalf("Newest().Name = %q", snaps.Newest().Name)
	}
}

func TestParseSnapshotRows_SkipsMalformedRows(t *testing.T) {
	snaps, err := parseSnapshotRows("pool/a", []string{
		"garbage-row-without-a-tab",
		"pool/a@autorep-2026-08-02\t1754092800",
	}, "")
	if err != nil {
		t.Fatalf("parseSnapshotRows: %v", err)
	}
	if snaps.Len() != 1 {
		t.Fatalf("Len() = %d; want 1", snaps.Len())
	}
}
