package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"channels-go/internal/catalog"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It keeps every snapshot in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name      string
	snapshots map[string][]byte // "instanceID/name" -> snapshot
	versions  map[string]int64  // "instanceID/name" -> version
	mu        sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		snapshots: make(map[string][]byte),
		versions:  make(map[string]int64),
	}
}

func snapshotKey(instanceID, name string) string {
	return instanceID + "/" + name
}

// PutSnapshot stores a named snapshot for an instance, replacing any previous one.
func (m *MemoryVault) PutSnapshot(instanceID string, name string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := snapshotKey(instanceID, name)
	m.snapshots[key] = data
	m.versions[key] = version
	return nil
}

// GetSnapshot writes the named snapshot for an instance to w.
func (m *MemoryVault) GetSnapshot(instanceID string, name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[snapshotKey(instanceID, name)]
	if !ok {
		return fmt.Errorf("snapshot %q for instance %s: %w", name, instanceID, catalog.ErrSnapshotNotFound)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// GetSnapshotVersion returns the stored version, or 0 when nothing is stored.
func (m *MemoryVault) GetSnapshotVersion(instanceID string, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[snapshotKey(instanceID, name)], nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ catalog.Vault = (*MemoryVault)(nil)
