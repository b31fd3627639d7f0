package model

import "fmt"

// Pair is one (source, destination) replication pairing, after parsing
// and validation. RECURSE_CHILDREN expansion turns one user-supplied Pair
// into one Pair per expanded source dataset.
type Pair struct {
	SrcSet  DatasetName
	SrcHost HostRef
	DstSet  DatasetName
	DstHost HostRef
}

func (p Pair) String() string {
	return fmt.Sprintf("%s -> %s", p.srcLabel(), p.dstLabel())
}

func (p Pair) srcLabel() string {
	if p.SrcHost.IsLocal() {
		return p.SrcSet.Path()
	}
	return fmt.Sprintf("%s@%s", p.SrcSet.Path(), p.SrcHost)
}

func (p Pair) dstLabel() string {
	if p.DstHost.IsLocal() {
		return p.DstSet.Path()
	}
	return fmt.Sprintf("%s@%s", p.DstSet.Path(), p.DstHost)
}

// EffectiveDest returns the destination dataset for a source dataset that
// has been expanded from p.SrcSet (itself or a descendant): the source
// path is appended verbatim under the pair's destination set.
func (p Pair) EffectiveDest(src DatasetName) DatasetName {
	return p.DstSet.Join(src)
}
