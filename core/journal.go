package core

// Journal is implemented by every piece of state an operation mutates.
// Snapshot ids are only valid until the snapshot is reverted or committed.
type Journal interface {
	Snapshot() int
	RevertToSnapshot(id int)
	// Commit drops the undo log
	Commit()
}
