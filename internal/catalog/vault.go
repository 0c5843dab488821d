package catalog

import "io"

// Vault stores database snapshots away from the machine running the catalog.
// Snapshots are streamed so large databases are never held in memory.
type Vault interface {
	// PutSnapshot stores a named snapshot for an instance.
	// size is the number of bytes that will be read from r.
	// version is stored alongside the snapshot for consistency checks.
	PutSnapshot(instanceID string, name string, r io.Reader, size int64, version int64) error

	// GetSnapshot retrieves a named snapshot for an instance and writes it to w.
	// Returns ErrSnapshotNotFound if nothing has been stored.
	GetSnapshot(instanceID string, name string, w io.Writer) error

	// GetSnapshotVersion returns the version of a named snapshot.
	// Returns 0 if nothing has been stored for this instance/name.
	GetSnapshotVersion(instanceID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
