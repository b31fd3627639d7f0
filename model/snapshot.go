package model

import (
	"fmt"
	"time"
)

// Snapshot identifies a single point-in-time image of a dataset, as
// reported by the filesystem tool: dataset@name, created at a given time.
type Snapshot struct {
	Dataset   DatasetName
	Name      string
	CreatedAt int64
}

// ID uniquely identifies a snapshot within a run: dataset + name. Two
// Snapshot values with the same ID are considered the same snapshot even
// if fetched from different inventory reads.
func (snap *Snapshot) ID() string {
	return fmt.Sprintf("%s@%s", snap.Dataset, snap.Name)
}

func (snap *Snapshot) Eq(other *Snapshot) bool {
	if snap == nil || other == nil {
		return snap == other
	}
	return snap.ID() == other.ID()
}

// Less orders snapshots by creation time, breaking ties by name so that
// same-second collisions still sort deterministically.
func (snap *Snapshot) Less(other *Snapshot) bool {
	if snap.CreatedAt != other.CreatedAt {
		return snap.CreatedAt < other.CreatedAt
	}
	return snap.Name < other.Name
}

func (snap *Snapshot) More(other *Snapshot) bool {
	return other.Less(snap)
}

func (snap *Snapshot) Time() time.Time {
	return time.Unix(snap.CreatedAt, 0)
}

// Full renders the dataset@name identifier used on the filesystem tool's
// command line.
func (snap *Snapshot) Full() string {
	return snap.Dataset.Path() + "@" + snap.Name
}

func (snap *Snapshot) String() string {
	return snap.Full()
}
