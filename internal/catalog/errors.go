package catalog

import "errors"

// Sentinel errors returned by the tree store and the catalog service.
// Storage-level failures are wrapped around these with %w; callers match
// them with errors.Is.
var (
	// ErrDuplicateName is returned when a channel name is already taken or a
	// sibling with the same name exists.
	ErrDuplicateName = errors.New("name already exists")

	// ErrNotFound is returned when a channel, category or node id does not
	// resolve to a stored node.
	ErrNotFound = errors.New("not found")

	// ErrEmptyPath is returned when a category path has no segments.
	ErrEmptyPath = errors.New("category path has no segments")

	// ErrEmptyName is returned when a name is blank after trimming.
	ErrEmptyName = errors.New("name is empty")

	// ErrPartialDelete is returned when deletion targets a non-root node.
	// Only whole trees can be deleted.
	ErrPartialDelete = errors.New("only whole trees can be deleted")

	// ErrSnapshotNotFound is returned by a Vault that holds no snapshot
	// under the requested name.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
