package catalog

import (
	"context"
	"fmt"

	"channels-go/internal/database/sqlc"
)

// CatalogService is the domain layer over the tree store. It applies the
// channel and category rules and never touches node bounds itself.
type CatalogService struct {
	store  TreeStore
	logger Logger
}

// NewCatalogService creates a new CatalogService with the provided dependencies.
func NewCatalogService(store TreeStore, logger Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: logger,
	}
}

// CreateChannel creates an empty channel. Names are trimmed and must be
// unique across the forest, ignoring case.
func (s *CatalogService) CreateChannel(ctx context.Context, name string) (*Channel, error) {
	node, err := s.store.CreateRoot(ctx, NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("creating channel %q: %w", name, err)
	}

	s.logger.Info("channel created", "name", node.Name, "tree_id", node.TreeID)
	return NewChannel(node)
}

// FindChannel returns the channel with the given name, ignoring case.
func (s *CatalogService) FindChannel(ctx context.Context, name string) (*Channel, error) {
	node, err := s.store.FindRootByName(ctx, NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("finding channel %q: %w", name, err)
	}
	return NewChannel(node)
}

// ListChannels returns every channel ordered by name.
func (s *CatalogService) ListChannels(ctx context.Context) ([]*Channel, error) {
	nodes, err := s.store.ListRoots(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	return newChannels(nodes)
}

// SearchChannels returns the channels whose name contains keyword, ignoring case.
func (s *CatalogService) SearchChannels(ctx context.Context, keyword string) ([]*Channel, error) {
	nodes, err := s.store.SearchRoots(ctx, NormalizeName(keyword))
	if err != nil {
		return nil, fmt.Errorf("searching channels: %w", err)
	}
	return newChannels(nodes)
}

// ResetChannel drops every category of the named channel by replacing its
// tree with an empty root. The stored spelling of an existing channel is
// kept. A missing channel is created.
func (s *CatalogService) ResetChannel(ctx context.Context, name string) (*Channel, error) {
	node, err := s.store.ResetRoot(ctx, NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("resetting channel %q: %w", name, err)
	}

	s.logger.Info("channel reset", "name", node.Name, "tree_id", node.TreeID)
	return NewChannel(node)
}

// AddCategoryPath walks segments from the channel root downwards, reusing
// existing categories and creating missing ones. Each segment is trimmed
// first, so the same logical path always resolves to the same nodes.
// Returns the deepest category.
func (s *CatalogService) AddCategoryPath(ctx context.Context, channel *Channel, segments []string) (*Category, error) {
	if len(segments) == 0 {
		return nil, ErrEmptyPath
	}

	parent := channel.Node()
	created := 0
	for _, segment := range segments {
		child, isNew, err := s.store.GetOrCreateChild(ctx, parent, NormalizeName(segment))
		if err != nil {
			return nil, fmt.Errorf("adding %q to channel %q: %w", segment, channel.Name(), err)
		}
		if isNew {
			created++
		}
		parent = child
	}

	s.logger.Debug("category path added", "channel", channel.Name(), "path", parent.Path, "created", created)
	return NewCategory(parent)
}

// GetCategoryByName looks a category up by name anywhere in the channel's
// tree. When the name repeats at different depths the first node in
// pre-order wins.
func (s *CatalogService) GetCategoryByName(ctx context.Context, channel *Channel, name string) (*Category, error) {
	node, err := s.store.FindNodeInTree(ctx, channel.TreeID(), NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("finding category %q in channel %q: %w", name, channel.Name(), err)
	}
	return NewCategory(node)
}

// GetCategory returns the category with the given id. Channel roots are
// not categories and yield ErrNotFound.
func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*Category, error) {
	node, err := s.store.FindNodeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding category %d: %w", id, err)
	}
	if RoleOf(node) != RoleCategory {
		return nil, fmt.Errorf("finding category %d: %w", id, ErrNotFound)
	}
	return NewCategory(node)
}

// ListCategories returns every category of the channel in pre-order.
func (s *CatalogService) ListCategories(ctx context.Context, channel *Channel) ([]*Category, error) {
	nodes, err := s.store.GetDescendants(ctx, channel.Node(), false)
	if err != nil {
		return nil, fmt.Errorf("listing categories of %q: %w", channel.Name(), err)
	}
	return newCategories(nodes)
}

// ListCategoryPaths returns the path of every category of the channel in
// pre-order: siblings by name, parents before children.
func (s *CatalogService) ListCategoryPaths(ctx context.Context, channel *Channel) ([]string, error) {
	nodes, err := s.store.GetDescendants(ctx, channel.Node(), false)
	if err != nil {
		return nil, fmt.Errorf("listing categories of %q: %w", channel.Name(), err)
	}
	return nodePaths(nodes), nil
}

// CategoryCount returns the number of categories in the channel.
func (s *CatalogService) CategoryCount(ctx context.Context, channel *Channel) (int64, error) {
	count, err := s.store.CountDescendants(ctx, channel.Node())
	if err != nil {
		return 0, fmt.Errorf("counting categories of %q: %w", channel.Name(), err)
	}
	return count, nil
}

// ChannelOf returns the channel owning the category.
func (s *CatalogService) ChannelOf(ctx context.Context, category *Category) (*Channel, error) {
	node, err := s.store.FindRootByTreeID(ctx, category.TreeID())
	if err != nil {
		return nil, fmt.Errorf("finding channel of category %d: %w", category.ID(), err)
	}
	return NewChannel(node)
}

// CategoryDetail is a category together with its surroundings in the tree.
type CategoryDetail struct {
	Category      *Category
	Channel       *Channel
	Ancestors     []*Category // outermost first, channel root excluded
	Children      []*Category
	Subcategories []string // paths of every descendant in pre-order
}

// GetCategoryDetail loads a category and its surroundings.
func (s *CatalogService) GetCategoryDetail(ctx context.Context, id int64) (*CategoryDetail, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, category)
}

// FindCategoryDetail looks a category up by name inside channel and loads
// its surroundings.
func (s *CatalogService) FindCategoryDetail(ctx context.Context, channel *Channel, name string) (*CategoryDetail, error) {
	category, err := s.GetCategoryByName(ctx, channel, name)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, category)
}

func (s *CatalogService) describe(ctx context.Context, category *Category) (*CategoryDetail, error) {
	ancestors, err := s.store.GetAncestors(ctx, category.Node(), false)
	if err != nil {
		return nil, fmt.Errorf("loading ancestors of category %d: %w", category.ID(), err)
	}
	if len(ancestors) == 0 {
		return nil, fmt.Errorf("category %d has no channel root", category.ID())
	}

	channel, err := NewChannel(ancestors[0])
	if err != nil {
		return nil, err
	}
	parents, err := newCategories(ancestors[1:])
	if err != nil {
		return nil, err
	}

	childNodes, err := s.store.GetChildren(ctx, category.Node())
	if err != nil {
		return nil, fmt.Errorf("loading children of category %d: %w", category.ID(), err)
	}
	children, err := newCategories(childNodes)
	if err != nil {
		return nil, err
	}

	descendants, err := s.store.GetDescendants(ctx, category.Node(), false)
	if err != nil {
		return nil, fmt.Errorf("loading subcategories of category %d: %w", category.ID(), err)
	}

	return &CategoryDetail{
		Category:      category,
		Channel:       channel,
		Ancestors:     parents,
		Children:      children,
		Subcategories: nodePaths(descendants),
	}, nil
}

// SearchCategories returns the categories whose name contains keyword,
// ignoring case, across all channels.
func (s *CatalogService) SearchCategories(ctx context.Context, keyword string) ([]*Category, error) {
	nodes, err := s.store.SearchNodes(ctx, NormalizeName(keyword))
	if err != nil {
		return nil, fmt.Errorf("searching categories: %w", err)
	}
	return newCategories(nodes)
}

func newChannels(nodes []*sqlc.Node) ([]*Channel, error) {
	channels := make([]*Channel, 0, len(nodes))
	for _, n := range nodes {
		c, err := NewChannel(n)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, nil
}

func nodePaths(nodes []*sqlc.Node) []string {
	paths := make([]string, len(nodes))
	for i, n := range nodes {
		paths[i] = n.Path
	}
	return paths
}
