package model

import "strings"

// DatasetName is a slash-separated path into the filesystem tool's
// namespace, e.g. "pool/a/b". It never carries a host or a snapshot name.
type DatasetName string

func (dn DatasetName) String() string {
	if dn == "" {
		return "<root>"
	}
	return string(dn)
}

// Path returns the dataset name as a plain string, suitable for
// concatenation into a filesystem-tool argument.
func (dn DatasetName) Path() string {
	return string(dn)
}

// Pool returns the leading path component.
func (dn DatasetName) Pool() DatasetName {
	if i := strings.IndexByte(string(dn), '/'); i >= 0 {
		return dn[:i]
	}
	return dn
}

// IsRoot reports whether dn names its own pool, i.e. has no slash.
func (dn DatasetName) IsRoot() bool {
	return dn == dn.Pool()
}

// Join appends child under dn, e.g. DatasetName("pool2").Join("pool1/a") == "pool2/pool1/a".
func (dn DatasetName) Join(child DatasetName) DatasetName {
	switch {
	case dn == "":
		return child
	case child == "":
		return dn
	default:
		return dn + "/" + child
	}
}

// Dirname returns the dataset's parent path, or "" if dn is a root dataset.
func (dn DatasetName) Dirname() DatasetName {
	i := strings.LastIndexByte(string(dn), '/')
	if i < 0 {
		return ""
	}
	return dn[:i]
}

// HostRef names a host reachable by the configured SSH transport. The
// empty HostRef means "local".
type HostRef string

func (h HostRef) IsLocal() bool {
	return h == ""
}

func (h HostRef) String() string {
	if h == "" {
		return "<local>"
	}
	return string(h)
}
