package catalog

import (
	"fmt"
	"strings"

	"channels-go/internal/database/sqlc"
)

// PathSeparator joins category names into a path.
const PathSeparator = "/"

// Role tells a channel (tree root) apart from a category (any other node).
type Role int

const (
	RoleChannel Role = iota
	RoleCategory
)

func (r Role) String() string {
	switch r {
	case RoleChannel:
		return "channel"
	case RoleCategory:
		return "category"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// RoleOf derives the role of a node from its parent reference.
func RoleOf(n *sqlc.Node) Role {
	if n.ParentID.Valid {
		return RoleCategory
	}
	return RoleChannel
}

// NormalizeName strips the surrounding whitespace from a node name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ChildPath returns the path of a node named name below parent.
// Direct children of a root have their own name as path.
func ChildPath(parent *sqlc.Node, name string) string {
	if RoleOf(parent) == RoleChannel {
		return name
	}
	return parent.Path + PathSeparator + name
}

// Channel is the root node of one category tree.
type Channel struct {
	node *sqlc.Node
}

// NewChannel wraps a root node. It fails if the node has a parent.
func NewChannel(n *sqlc.Node) (*Channel, error) {
	if n == nil {
		return nil, fmt.Errorf("channel: nil node")
	}
	if RoleOf(n) != RoleChannel {
		return nil, fmt.Errorf("node %d is a %s, not a channel", n.ID, RoleOf(n))
	}
	return &Channel{node: n}, nil
}

func (c *Channel) ID() int64        { return c.node.ID }
func (c *Channel) Name() string     { return c.node.Name }
func (c *Channel) TreeID() string   { return c.node.TreeID }
func (c *Channel) Node() *sqlc.Node { return c.node }
func (c *Channel) String() string   { return c.node.Name }

// Category is a non-root node of a category tree.
type Category struct {
	node *sqlc.Node
}

// NewCategory wraps a non-root node. It fails for tree roots.
func NewCategory(n *sqlc.Node) (*Category, error) {
	if n == nil {
		return nil, fmt.Errorf("category: nil node")
	}
	if RoleOf(n) != RoleCategory {
		return nil, fmt.Errorf("node %d is a %s, not a category", n.ID, RoleOf(n))
	}
	return &Category{node: n}, nil
}

func (c *Category) ID() int64        { return c.node.ID }
func (c *Category) Name() string     { return c.node.Name }
func (c *Category) Path() string     { return c.node.Path }
func (c *Category) Depth() int64     { return c.node.Depth }
func (c *Category) TreeID() string   { return c.node.TreeID }
func (c *Category) ParentID() int64  { return c.node.ParentID.Int64 }
func (c *Category) Node() *sqlc.Node { return c.node }
func (c *Category) String() string   { return c.node.Path }

// newCategories wraps category nodes in Category views.
func newCategories(nodes []*sqlc.Node) ([]*Category, error) {
	categories := make([]*Category, 0, len(nodes))
	for _, n := range nodes {
		c, err := NewCategory(n)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}
