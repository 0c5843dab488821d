package catalog

import (
	"context"

	"channels-go/internal/database/sqlc"
)

// TreeStore is the tree storage engine. It keeps every tree of the forest
// encoded as a nested set and exposes only operations that preserve the
// encoding. Lookups that find nothing return an error wrapping ErrNotFound.
type TreeStore interface {
	// Tree mutations

	// CreateRoot creates a new tree whose root is named name.
	// Returns ErrDuplicateName if a root with that name exists, ignoring case.
	CreateRoot(ctx context.Context, name string) (*sqlc.Node, error)

	// GetOrCreateChild returns the child of parent named name, inserting it
	// at its sorted position among the siblings when absent. The boolean
	// reports whether the node was created.
	GetOrCreateChild(ctx context.Context, parent *sqlc.Node, name string) (*sqlc.Node, bool, error)

	// ResetRoot replaces the tree of the root named name, ignoring case,
	// with an empty root keeping the stored spelling. It runs as one
	// transaction. A missing root is created.
	ResetRoot(ctx context.Context, name string) (*sqlc.Node, error)

	// DeleteTree removes a root and all of its descendants.
	// Returns ErrPartialDelete if node is not a root.
	DeleteTree(ctx context.Context, node *sqlc.Node) error

	// Tree queries

	// GetDescendants returns the nodes nested inside node in pre-order.
	GetDescendants(ctx context.Context, node *sqlc.Node, includeSelf bool) ([]*sqlc.Node, error)

	// GetAncestors returns the nodes enclosing node, root first.
	GetAncestors(ctx context.Context, node *sqlc.Node, includeSelf bool) ([]*sqlc.Node, error)

	// GetChildren returns the direct children of node in name order.
	GetChildren(ctx context.Context, node *sqlc.Node) ([]*sqlc.Node, error)

	// CountDescendants returns the number of nodes nested inside node.
	CountDescendants(ctx context.Context, node *sqlc.Node) (int64, error)

	// Lookups

	// FindNodeByID returns the node with the given id.
	FindNodeByID(ctx context.Context, id int64) (*sqlc.Node, error)

	// FindRootByName returns the root with the given name, ignoring case.
	FindRootByName(ctx context.Context, name string) (*sqlc.Node, error)

	// FindRootByTreeID returns the root of the given tree.
	FindRootByTreeID(ctx context.Context, treeID string) (*sqlc.Node, error)

	// FindNodeInTree returns the first non-root node of the tree named name,
	// in pre-order.
	FindNodeInTree(ctx context.Context, treeID string, name string) (*sqlc.Node, error)

	// ListRoots returns every root ordered by name.
	ListRoots(ctx context.Context) ([]*sqlc.Node, error)

	// SearchRoots returns the roots whose name contains keyword, ignoring case.
	SearchRoots(ctx context.Context, keyword string) ([]*sqlc.Node, error)

	// SearchNodes returns the non-root nodes whose name contains keyword,
	// ignoring case, grouped by tree in root name order.
	SearchNodes(ctx context.Context, keyword string) ([]*sqlc.Node, error)

	// Operation log

	// CreateOperation records the start of a mutating operation.
	CreateOperation(ctx context.Context, operation string, parameters string) (*sqlc.Operation, error)

	// FinishOperation records the end of an operation with its status.
	FinishOperation(ctx context.Context, id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(ctx context.Context, limit int) ([]*sqlc.Operation, error)

	// MaxOperationID returns the highest operation id, or 0.
	MaxOperationID(ctx context.Context) (int64, error)

	// Close closes the underlying database.
	Close() error
}
