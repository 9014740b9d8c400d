package revalidate

// Snapshot identifies the state of an open document: the client version
// and a server-side revision bumped on every content change, save included.
type Snapshot struct {
	Version  int32
	Revision uint64
}

// Fresh reports whether work started at s still matches the current state.
func (s Snapshot) Fresh(current Snapshot, open bool) bool {
	return open && s == current
}
