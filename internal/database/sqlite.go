package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"channels-go/internal/catalog"
	"channels-go/internal/database/migrations"
	"channels-go/internal/database/sqlc"
)

// Schema is the full schema produced by the migrations, used to set up
// throwaway databases without running golang-migrate.
//
//go:embed sqlc/schema.sql
var Schema string

const memoryPath = ":memory:"

// SQLiteDatabase implements catalog.TreeStore using SQLite.
// Every tree of the forest is stored as a nested set in the nodes table.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	clock   catalog.Clock
	idgen   catalog.IDGenerator

	// forest serializes root creation; trees serializes writes per tree.
	forest sync.Mutex
	trees  *treeLocks
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
// A nil clock or idgen falls back to the real implementation.
func NewSQLiteDatabase(path string, clock catalog.Clock, idgen catalog.IDGenerator) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	s := NewSQLiteDatabaseFromDB(db, clock, idgen)
	s.path = path
	return s, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock catalog.Clock, idgen catalog.IDGenerator) *SQLiteDatabase {
	if clock == nil {
		clock = catalog.RealClock{}
	}
	if idgen == nil {
		idgen = catalog.UUIDGenerator{}
	}
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		clock:   clock,
		idgen:   idgen,
		trees:   newTreeLocks(),
	}
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
//
// File databases begin every transaction with BEGIN IMMEDIATE and wait on
// locks held by other processes. An in-memory database lives inside a single
// connection, so the pool is pinned to one.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path + "?_foreign_keys=on"
	if path != memoryPath {
		dsn += "&_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// Tree mutations

func (s *SQLiteDatabase) CreateRoot(ctx context.Context, name string) (*sqlc.Node, error) {
	name = catalog.NormalizeName(name)
	if name == "" {
		return nil, catalog.ErrEmptyName
	}

	s.forest.Lock()
	defer s.forest.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	_, err = qtx.GetRootByName(ctx, name)
	if err == nil {
		return nil, fmt.Errorf("root %q: %w", name, catalog.ErrDuplicateName)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking root %q: %w", name, err)
	}

	root, err := s.insertRoot(ctx, qtx, name)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return root, nil
}

// ResetRoot deletes the tree of the root named name and inserts an empty
// root with the stored spelling in the same transaction, so a failure keeps
// the old tree. A missing root is created.
func (s *SQLiteDatabase) ResetRoot(ctx context.Context, name string) (*sqlc.Node, error) {
	name = catalog.NormalizeName(name)
	if name == "" {
		return nil, catalog.ErrEmptyName
	}

	s.forest.Lock()
	defer s.forest.Unlock()

	existing, err := s.queries.GetRootByName(ctx, name)
	switch {
	case err == nil:
		unlock := s.trees.lock(existing.TreeID)
		defer unlock()
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("checking root %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	// Another process may have replaced the root before the transaction began.
	current, err := qtx.GetRootByName(ctx, name)
	switch {
	case err == nil:
		name = current.Name
		if _, err := qtx.DeleteTree(ctx, current.TreeID); err != nil {
			return nil, fmt.Errorf("deleting tree %s: %w", current.TreeID, err)
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("checking root %q: %w", name, err)
	}

	root, err := s.insertRoot(ctx, qtx, name)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return root, nil
}

func (s *SQLiteDatabase) insertRoot(ctx context.Context, qtx *sqlc.Queries, name string) (*sqlc.Node, error) {
	id, err := qtx.InsertNode(ctx, sqlc.InsertNodeParams{
		Name:      name,
		TreeID:    s.idgen.New(),
		Lft:       1,
		Rgt:       2,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("inserting root %q: %w", name, translateError(err))
	}
	root, err := qtx.GetNodeByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading root %q: %w", name, err)
	}
	return &root, nil
}

// GetOrCreateChild opens a gap of two right after the preceding sibling
// (or right after the parent's lft) and places the new node in it.
func (s *SQLiteDatabase) GetOrCreateChild(ctx context.Context, parent *sqlc.Node, name string) (*sqlc.Node, bool, error) {
	name = catalog.NormalizeName(name)
	if name == "" {
		return nil, false, catalog.ErrEmptyName
	}

	unlock := s.trees.lock(parent.TreeID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	// The caller's copy of parent may predate inserts into the same tree.
	current, err := qtx.GetNodeByID(ctx, parent.ID)
	if err != nil {
		return nil, false, notFound(err, "parent node %d", parent.ID)
	}
	parentRef := sql.NullInt64{Int64: current.ID, Valid: true}

	existing, err := qtx.GetChildByName(ctx, sqlc.GetChildByNameParams{
		ParentID: parentRef,
		Name:     name,
	})
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("finding child %q: %w", name, err)
	}

	point := current.Lft
	preceding, err := qtx.GetPrecedingSibling(ctx, sqlc.GetPrecedingSiblingParams{
		ParentID: parentRef,
		Name:     name,
	})
	switch {
	case err == nil:
		point = preceding.Rgt
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, false, fmt.Errorf("finding preceding sibling of %q: %w", name, err)
	}

	// rgt first, so lft < rgt holds for every row after each statement.
	if err := qtx.ShiftRightBounds(ctx, sqlc.ShiftRightBoundsParams{TreeID: current.TreeID, Rgt: point}); err != nil {
		return nil, false, fmt.Errorf("shifting right bounds: %w", err)
	}
	if err := qtx.ShiftLeftBounds(ctx, sqlc.ShiftLeftBoundsParams{TreeID: current.TreeID, Lft: point}); err != nil {
		return nil, false, fmt.Errorf("shifting left bounds: %w", err)
	}

	id, err := qtx.InsertNode(ctx, sqlc.InsertNodeParams{
		Name:      name,
		ParentID:  parentRef,
		TreeID:    current.TreeID,
		Lft:       point + 1,
		Rgt:       point + 2,
		Depth:     current.Depth + 1,
		Path:      catalog.ChildPath(&current, name),
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("inserting %q: %w", name, translateError(err))
	}
	child, err := qtx.GetNodeByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("reading %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("committing transaction: %w", err)
	}

	return &child, true, nil
}

func (s *SQLiteDatabase) DeleteTree(ctx context.Context, node *sqlc.Node) error {
	unlock := s.trees.lock(node.TreeID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	current, err := qtx.GetNodeByID(ctx, node.ID)
	if err != nil {
		return notFound(err, "node %d", node.ID)
	}
	if catalog.RoleOf(&current) != catalog.RoleChannel {
		return fmt.Errorf("deleting node %d: %w", node.ID, catalog.ErrPartialDelete)
	}

	if _, err := qtx.DeleteTree(ctx, current.TreeID); err != nil {
		return fmt.Errorf("deleting tree %s: %w", current.TreeID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Tree queries

func (s *SQLiteDatabase) GetDescendants(ctx context.Context, node *sqlc.Node, includeSelf bool) ([]*sqlc.Node, error) {
	var nodes []sqlc.Node
	var err error
	if includeSelf {
		nodes, err = s.queries.GetDescendantsInclusive(ctx, node.ID)
	} else {
		nodes, err = s.queries.GetDescendants(ctx, node.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting descendants of node %d: %w", node.ID, err)
	}
	if len(nodes) == 0 {
		if err := s.ensureExists(ctx, node.ID); err != nil {
			return nil, err
		}
	}
	return nodePointers(nodes), nil
}

func (s *SQLiteDatabase) GetAncestors(ctx context.Context, node *sqlc.Node, includeSelf bool) ([]*sqlc.Node, error) {
	var nodes []sqlc.Node
	var err error
	if includeSelf {
		nodes, err = s.queries.GetAncestorsInclusive(ctx, node.ID)
	} else {
		nodes, err = s.queries.GetAncestors(ctx, node.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting ancestors of node %d: %w", node.ID, err)
	}
	if len(nodes) == 0 {
		if err := s.ensureExists(ctx, node.ID); err != nil {
			return nil, err
		}
	}
	return nodePointers(nodes), nil
}

func (s *SQLiteDatabase) GetChildren(ctx context.Context, node *sqlc.Node) ([]*sqlc.Node, error) {
	nodes, err := s.queries.GetChildren(ctx, sql.NullInt64{Int64: node.ID, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("getting children of node %d: %w", node.ID, err)
	}
	return nodePointers(nodes), nil
}

func (s *SQLiteDatabase) CountDescendants(ctx context.Context, node *sqlc.Node) (int64, error) {
	count, err := s.queries.CountDescendants(ctx, node.ID)
	if err != nil {
		return 0, notFound(err, "node %d", node.ID)
	}
	return count, nil
}

// Lookups

func (s *SQLiteDatabase) FindNodeByID(ctx context.Context, id int64) (*sqlc.Node, error) {
	node, err := s.queries.GetNodeByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "node %d", id)
	}
	return &node, nil
}

func (s *SQLiteDatabase) FindRootByName(ctx context.Context, name string) (*sqlc.Node, error) {
	node, err := s.queries.GetRootByName(ctx, catalog.NormalizeName(name))
	if err != nil {
		return nil, notFound(err, "root %q", name)
	}
	return &node, nil
}

func (s *SQLiteDatabase) FindRootByTreeID(ctx context.Context, treeID string) (*sqlc.Node, error) {
	node, err := s.queries.GetRootByTreeID(ctx, treeID)
	if err != nil {
		return nil, notFound(err, "root of tree %s", treeID)
	}
	return &node, nil
}

func (s *SQLiteDatabase) FindNodeInTree(ctx context.Context, treeID string, name string) (*sqlc.Node, error) {
	node, err := s.queries.GetNodeInTreeByName(ctx, sqlc.GetNodeInTreeByNameParams{
		TreeID: treeID,
		Name:   catalog.NormalizeName(name),
	})
	if err != nil {
		return nil, notFound(err, "node %q in tree %s", name, treeID)
	}
	return &node, nil
}

func (s *SQLiteDatabase) ListRoots(ctx context.Context) ([]*sqlc.Node, error) {
	nodes, err := s.queries.ListRoots(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing roots: %w", err)
	}
	return nodePointers(nodes), nil
}

func (s *SQLiteDatabase) SearchRoots(ctx context.Context, keyword string) ([]*sqlc.Node, error) {
	nodes, err := s.queries.SearchRoots(ctx, containsPattern(keyword))
	if err != nil {
		return nil, fmt.Errorf("searching roots: %w", err)
	}
	return nodePointers(nodes), nil
}

func (s *SQLiteDatabase) SearchNodes(ctx context.Context, keyword string) ([]*sqlc.Node, error) {
	nodes, err := s.queries.SearchNodes(ctx, containsPattern(keyword))
	if err != nil {
		return nil, fmt.Errorf("searching nodes: %w", err)
	}
	return nodePointers(nodes), nil
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(ctx context.Context, operation string, parameters string) (*sqlc.Operation, error) {
	id, err := s.queries.InsertOperation(ctx, sqlc.InsertOperationParams{
		StartedAt:  s.clock.Now(),
		Operation:  operation,
		Parameters: parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}

	op, err := s.queries.GetOperationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading operation %d: %w", id, err)
	}
	return &op, nil
}

func (s *SQLiteDatabase) FinishOperation(ctx context.Context, id int64, status string) error {
	err := s.queries.UpdateOperationFinished(ctx, sqlc.UpdateOperationFinishedParams{
		FinishedAt: sql.NullTime{Time: s.clock.Now(), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(ctx context.Context, limit int) ([]*sqlc.Operation, error) {
	ops, err := s.queries.GetOperations(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	result := make([]*sqlc.Operation, len(ops))
	for i := range ops {
		result[i] = &ops[i]
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxOperationID(ctx context.Context) (int64, error) {
	id, err := s.queries.GetMaxOperationID(ctx)
	if err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate applies all pending migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) ensureExists(ctx context.Context, id int64) error {
	if _, err := s.queries.GetNodeByID(ctx, id); err != nil {
		return notFound(err, "node %d", id)
	}
	return nil
}

// notFound maps sql.ErrNoRows to catalog.ErrNotFound and wraps anything else.
func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, catalog.ErrNotFound)
	}
	return fmt.Errorf("finding %s: %w", what, err)
}

// translateError maps unique constraint violations to catalog.ErrDuplicateName.
func translateError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", catalog.ErrDuplicateName, err)
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching names that contain keyword.
func containsPattern(keyword string) string {
	return "%" + likeEscaper.Replace(catalog.NormalizeName(keyword)) + "%"
}

func nodePointers(nodes []sqlc.Node) []*sqlc.Node {
	result := make([]*sqlc.Node, len(nodes))
	for i := range nodes {
		result[i] = &nodes[i]
	}
	return result
}

// Compile-time check that SQLiteDatabase implements catalog.TreeStore interface
var _ catalog.TreeStore = (*SQLiteDatabase)(nil)
