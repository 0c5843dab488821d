package catalog_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"channels-go/internal/catalog"
	"channels-go/internal/testutil"
)

func newService(t *testing.T) (*catalog.CatalogService, catalog.TreeStore) {
	t.Helper()
	db := testutil.NewTestDatabase(t)
	return catalog.NewCatalogService(db, catalog.NewNopLogger()), db
}

func mustChannel(t *testing.T, svc *catalog.CatalogService, name string) *catalog.Channel {
	t.Helper()
	ch, err := svc.CreateChannel(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateChannel(%q) error = %v", name, err)
	}
	return ch
}

func mustAdd(t *testing.T, svc *catalog.CatalogService, ch *catalog.Channel, segments ...string) *catalog.Category {
	t.Helper()
	c, err := svc.AddCategoryPath(context.Background(), ch, segments)
	if err != nil {
		t.Fatalf("AddCategoryPath(%v) error = %v", segments, err)
	}
	return c
}

func TestCatalogService_CreateChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns a tree id", func(t *testing.T) {
		t.Parallel()
		db := testutil.NewTestDatabaseWith(t, nil, testutil.NewStubIDGenerator())
		svc := catalog.NewCatalogService(db, catalog.NewNopLogger())

		foo := mustChannel(t, svc, "foo")
		bar := mustChannel(t, svc, "bar")
		if foo.TreeID() != "tree-1" || bar.TreeID() != "tree-2" {
			t.Errorf("TreeID() = %q, %q, want tree-1, tree-2", foo.TreeID(), bar.TreeID())
		}
	})

	t.Run("trims the name", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		ch, err := svc.CreateChannel(ctx, "  foo ")
		if err != nil {
			t.Fatalf("CreateChannel() error = %v", err)
		}
		if ch.Name() != "foo" {
			t.Errorf("Name() = %q, want foo", ch.Name())
		}
	})

	t.Run("duplicate leaves the first tree untouched", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		first := mustChannel(t, svc, "foo")
		mustAdd(t, svc, first, "Books", "Go")

		_, err := svc.CreateChannel(ctx, "Foo")
		if !errors.Is(err, catalog.ErrDuplicateName) {
			t.Fatalf("CreateChannel() error = %v, want ErrDuplicateName", err)
		}

		count, err := svc.CategoryCount(ctx, first)
		if err != nil {
			t.Fatalf("CategoryCount() error = %v", err)
		}
		if count != 2 {
			t.Errorf("CategoryCount() = %d, want 2", count)
		}
	})

	t.Run("blank name", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		if _, err := svc.CreateChannel(ctx, " "); !errors.Is(err, catalog.ErrEmptyName) {
			t.Errorf("CreateChannel() error = %v, want ErrEmptyName", err)
		}
	})
}

func TestCatalogService_FindAndListChannels(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	for _, name := range []string{"foo", "bar", "baz"} {
		mustChannel(t, svc, name)
	}

	t.Run("lists channels by name", func(t *testing.T) {
		channels, err := svc.ListChannels(ctx)
		if err != nil {
			t.Fatalf("ListChannels() error = %v", err)
		}
		var names []string
		for _, ch := range channels {
			names = append(names, ch.Name())
		}
		if got := strings.Join(names, ","); got != "bar,baz,foo" {
			t.Errorf("ListChannels() = %s, want bar,baz,foo", got)
		}
	})

	t.Run("finds a channel ignoring case", func(t *testing.T) {
		ch, err := svc.FindChannel(ctx, "FOO")
		if err != nil {
			t.Fatalf("FindChannel() error = %v", err)
		}
		if ch.Name() != "foo" {
			t.Errorf("FindChannel() = %q, want foo", ch.Name())
		}
	})

	t.Run("unknown channel", func(t *testing.T) {
		if _, err := svc.FindChannel(ctx, "qux"); !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("FindChannel() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("searches channels", func(t *testing.T) {
		channels, err := svc.SearchChannels(ctx, "ba")
		if err != nil {
			t.Fatalf("SearchChannels() error = %v", err)
		}
		if len(channels) != 2 {
			t.Errorf("SearchChannels(ba) returned %d, want 2", len(channels))
		}
	})
}

func TestCatalogService_AddCategoryPath(t *testing.T) {
	ctx := context.Background()

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		ch := mustChannel(t, svc, "foo")

		first := mustAdd(t, svc, ch, "Books", "Computers")
		second := mustAdd(t, svc, ch, "Books", "Computers")

		if first.ID() != second.ID() {
			t.Errorf("second AddCategoryPath() = %d, want %d", second.ID(), first.ID())
		}
		count, _ := svc.CategoryCount(ctx, ch)
		if count != 2 {
			t.Errorf("CategoryCount() = %d, want 2", count)
		}
	})

	t.Run("derives the path", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		ch := mustChannel(t, svc, "foo")

		c := mustAdd(t, svc, ch, "Home & Garden", "Household Appliances", "Laundry Appliances")
		if want := "Home & Garden/Household Appliances/Laundry Appliances"; c.Path() != want {
			t.Errorf("Path() = %q, want %q", c.Path(), want)
		}
		if c.Name() != "Laundry Appliances" {
			t.Errorf("Name() = %q, want Laundry Appliances", c.Name())
		}
		if c.Depth() != 3 {
			t.Errorf("Depth() = %d, want 3", c.Depth())
		}
	})

	t.Run("shared ancestors are merged", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		ch := mustChannel(t, svc, "foo")

		mustAdd(t, svc, ch, "Home & Garden", "Kitchen & Dining", "Kitchen Tools & Utensils", "Food Graters & Zesters")
		mustAdd(t, svc, ch, "Home & Garden", "Household Appliances", "Laundry Appliances", "Dryers")

		count, err := svc.CategoryCount(ctx, ch)
		if err != nil {
			t.Fatalf("CategoryCount() error = %v", err)
		}
		if count != 7 {
			t.Errorf("CategoryCount() = %d, want 7", count)
		}
	})

	t.Run("whitespace is normalized", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		ch := mustChannel(t, svc, "foo")

		a := mustAdd(t, svc, ch, "Books", "Computers")
		b := mustAdd(t, svc, ch, " Books ", "Computers  ")
		if a.ID() != b.ID() {
			t.Errorf("padded path resolved to %d, want %d", b.ID(), a.ID())
		}
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		ch := mustChannel(t, svc, "foo")

		if _, err := svc.AddCategoryPath(ctx, ch, nil); !errors.Is(err, catalog.ErrEmptyPath) {
			t.Errorf("AddCategoryPath(nil) error = %v, want ErrEmptyPath", err)
		}
	})

	t.Run("blank segment", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		ch := mustChannel(t, svc, "foo")

		if _, err := svc.AddCategoryPath(ctx, ch, []string{"Books", "  "}); !errors.Is(err, catalog.ErrEmptyName) {
			t.Errorf("AddCategoryPath() error = %v, want ErrEmptyName", err)
		}
	})
}

func TestCatalogService_ListCategoryPaths(t *testing.T) {
	ctx := context.Background()

	want := []string{
		"Books",
		"Books/Computers",
		"Books/Computers/Go",
		"Books/Fiction",
		"Games",
		"Games/XBOX 360",
		"Games/XBOX One",
	}
	inputs := [][]string{
		{"Games", "XBOX One"},
		{"Books", "Fiction"},
		{"Games", "XBOX 360"},
		{"Books", "Computers", "Go"},
	}

	t.Run("pre-order with siblings by name", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		ch := mustChannel(t, svc, "foo")
		for _, in := range inputs {
			mustAdd(t, svc, ch, in...)
		}

		got, err := svc.ListCategoryPaths(ctx, ch)
		if err != nil {
			t.Fatalf("ListCategoryPaths() error = %v", err)
		}
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("ListCategoryPaths() = %v, want %v", got, want)
		}
	})

	t.Run("independent of insertion order", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		ch := mustChannel(t, svc, "foo")
		for i := len(inputs) - 1; i >= 0; i-- {
			mustAdd(t, svc, ch, inputs[i]...)
		}

		got, err := svc.ListCategoryPaths(ctx, ch)
		if err != nil {
			t.Fatalf("ListCategoryPaths() error = %v", err)
		}
		if strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("ListCategoryPaths() = %v, want %v", got, want)
		}

		count, err := svc.CategoryCount(ctx, ch)
		if err != nil {
			t.Fatalf("CategoryCount() error = %v", err)
		}
		if count != int64(len(got)) {
			t.Errorf("CategoryCount() = %d, want %d", count, len(got))
		}
	})

	t.Run("empty channel", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		ch := mustChannel(t, svc, "foo")

		got, err := svc.ListCategoryPaths(ctx, ch)
		if err != nil {
			t.Fatalf("ListCategoryPaths() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("ListCategoryPaths() = %v, want empty", got)
		}
	})
}

func TestCatalogService_GetCategoryByName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	ch := mustChannel(t, svc, "foo")
	other := mustChannel(t, svc, "bar")

	mustAdd(t, svc, ch, "Computers", "Tablets")
	mustAdd(t, svc, ch, "Books", "Foreign Literature", "Computers")
	mustAdd(t, svc, other, "Cameras")

	t.Run("first match in document order", func(t *testing.T) {
		got, err := svc.GetCategoryByName(ctx, ch, "Computers")
		if err != nil {
			t.Fatalf("GetCategoryByName() error = %v", err)
		}
		if got.Path() != "Books/Foreign Literature/Computers" {
			t.Errorf("GetCategoryByName() = %q, want Books/Foreign Literature/Computers", got.Path())
		}
	})

	t.Run("searches below the first level", func(t *testing.T) {
		got, err := svc.GetCategoryByName(ctx, ch, " Tablets ")
		if err != nil {
			t.Fatalf("GetCategoryByName() error = %v", err)
		}
		if got.Path() != "Computers/Tablets" {
			t.Errorf("GetCategoryByName() = %q, want Computers/Tablets", got.Path())
		}
	})

	t.Run("scoped to the channel", func(t *testing.T) {
		if _, err := svc.GetCategoryByName(ctx, ch, "Cameras"); !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("GetCategoryByName() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("names are case-sensitive", func(t *testing.T) {
		if _, err := svc.GetCategoryByName(ctx, ch, "computers"); !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("GetCategoryByName() error = %v, want ErrNotFound", err)
		}
	})
}

func TestCatalogService_ResetChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("drops every category and keeps the stored name", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)
		ch := mustChannel(t, svc, "Foo")
		mustAdd(t, svc, ch, "Books", "Go")
		other := mustChannel(t, svc, "bar")
		mustAdd(t, svc, other, "Games")

		reset, err := svc.ResetChannel(ctx, "foo")
		if err != nil {
			t.Fatalf("ResetChannel() error = %v", err)
		}
		if reset.Name() != "Foo" {
			t.Errorf("Name() = %q, want Foo", reset.Name())
		}
		if reset.TreeID() == ch.TreeID() {
			t.Error("ResetChannel() kept the old tree id")
		}

		count, _ := svc.CategoryCount(ctx, reset)
		if count != 0 {
			t.Errorf("CategoryCount() = %d, want 0", count)
		}
		otherCount, _ := svc.CategoryCount(ctx, other)
		if otherCount != 1 {
			t.Errorf("CategoryCount(bar) = %d, want 1", otherCount)
		}
	})

	t.Run("failure keeps the channel", func(t *testing.T) {
		t.Parallel()
		db, conn := testutil.NewTestDatabaseConn(t)
		svc := catalog.NewCatalogService(db, catalog.NewNopLogger())
		ch := mustChannel(t, svc, "foo")
		mustAdd(t, svc, ch, "Books", "Go")

		_, err := conn.Exec(`CREATE TRIGGER reject_root BEFORE INSERT ON nodes
WHEN NEW.parent_id IS NULL
BEGIN
	SELECT RAISE(ABORT, 'insert rejected');
END`)
		if err != nil {
			t.Fatalf("creating trigger: %v", err)
		}

		if _, err := svc.ResetChannel(ctx, "foo"); err == nil {
			t.Fatal("ResetChannel() expected error")
		}

		got, err := svc.FindChannel(ctx, "foo")
		if err != nil {
			t.Fatalf("FindChannel() after failed reset error = %v", err)
		}
		paths, _ := svc.ListCategoryPaths(ctx, got)
		if strings.Join(paths, ",") != "Books,Books/Go" {
			t.Errorf("ListCategoryPaths() = %v, want [Books Books/Go]", paths)
		}
	})

	t.Run("creates a missing channel", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		ch, err := svc.ResetChannel(ctx, "new")
		if err != nil {
			t.Fatalf("ResetChannel() error = %v", err)
		}
		if ch.Name() != "new" {
			t.Errorf("Name() = %q, want new", ch.Name())
		}
	})
}

func TestCatalogService_GetCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	ch := mustChannel(t, svc, "foo")
	programming := mustAdd(t, svc, ch, "Books", "Computers", "Programming")
	mustAdd(t, svc, ch, "Books", "Computers", "Programming", "Python")
	mustAdd(t, svc, ch, "Books", "Computers", "Programming", "Go")
	mustAdd(t, svc, ch, "Books", "Computers", "Programming", "Go", "Concurrency")

	t.Run("by id", func(t *testing.T) {
		got, err := svc.GetCategory(ctx, programming.ID())
		if err != nil {
			t.Fatalf("GetCategory() error = %v", err)
		}
		if got.Path() != programming.Path() {
			t.Errorf("GetCategory() = %q, want %q", got.Path(), programming.Path())
		}
	})

	t.Run("channel roots are not categories", func(t *testing.T) {
		if _, err := svc.GetCategory(ctx, ch.ID()); !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("GetCategory(root) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := svc.GetCategory(ctx, 9999); !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("GetCategory() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("detail", func(t *testing.T) {
		detail, err := svc.GetCategoryDetail(ctx, programming.ID())
		if err != nil {
			t.Fatalf("GetCategoryDetail() error = %v", err)
		}

		if detail.Channel.ID() != ch.ID() {
			t.Errorf("Channel = %q, want foo", detail.Channel.Name())
		}

		var ancestors []string
		for _, a := range detail.Ancestors {
			ancestors = append(ancestors, a.Name())
		}
		if got := strings.Join(ancestors, ","); got != "Books,Computers" {
			t.Errorf("Ancestors = %s, want Books,Computers", got)
		}

		var children []string
		for _, c := range detail.Children {
			children = append(children, c.Name())
		}
		if got := strings.Join(children, ","); got != "Go,Python" {
			t.Errorf("Children = %s, want Go,Python", got)
		}

		want := []string{
			"Books/Computers/Programming/Go",
			"Books/Computers/Programming/Go/Concurrency",
			"Books/Computers/Programming/Python",
		}
		if strings.Join(detail.Subcategories, "|") != strings.Join(want, "|") {
			t.Errorf("Subcategories = %v, want %v", detail.Subcategories, want)
		}
	})

	t.Run("detail by name", func(t *testing.T) {
		detail, err := svc.FindCategoryDetail(ctx, ch, "Programming")
		if err != nil {
			t.Fatalf("FindCategoryDetail() error = %v", err)
		}
		if detail.Category.ID() != programming.ID() {
			t.Errorf("Category = %q, want %q", detail.Category.Path(), programming.Path())
		}
		if _, err := svc.FindCategoryDetail(ctx, ch, "Cobol"); !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("FindCategoryDetail(Cobol) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("owning channel", func(t *testing.T) {
		got, err := svc.ChannelOf(ctx, programming)
		if err != nil {
			t.Fatalf("ChannelOf() error = %v", err)
		}
		if got.Name() != "foo" {
			t.Errorf("ChannelOf() = %q, want foo", got.Name())
		}
	})
}

func TestCatalogService_SearchCategories(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	foo := mustChannel(t, svc, "foo")
	bar := mustChannel(t, svc, "bar")
	baz := mustChannel(t, svc, "baz")
	mustAdd(t, svc, foo, "Home & Garden", "Household Appliances", "Laundry Appliances")
	mustAdd(t, svc, baz, "Home & Garden", "Household Appliances", "Laundry Appliances")
	mustAdd(t, svc, bar, "Books")

	got, err := svc.SearchCategories(ctx, "appliances")
	if err != nil {
		t.Fatalf("SearchCategories() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("SearchCategories() returned %d, want 4", len(got))
	}
	// Grouped by channel name: baz before foo.
	if got[0].TreeID() != baz.TreeID() || got[3].TreeID() != foo.TreeID() {
		t.Errorf("SearchCategories() not ordered by channel name")
	}

	none, err := svc.SearchCategories(ctx, "nothing matches")
	if err != nil {
		t.Fatalf("SearchCategories() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("SearchCategories() returned %d, want 0", len(none))
	}
}

func TestCatalogService_GetHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("returns operations in newest-first order with limit", func(t *testing.T) {
		t.Parallel()
		svc, db := newService(t)

		db.CreateOperation(ctx, "channel create", "foo")
		db.CreateOperation(ctx, "import", "foo data.csv")
		db.CreateOperation(ctx, "channel reset", "foo")

		ops, err := svc.GetHistory(ctx, 2)
		if err != nil {
			t.Fatalf("GetHistory() error = %v", err)
		}
		if len(ops) != 2 {
			t.Fatalf("got %d ops, want 2", len(ops))
		}
		if ops[0].ID <= ops[1].ID {
			t.Errorf("expected newest first: got IDs %d, %d", ops[0].ID, ops[1].ID)
		}
	})

	t.Run("uses the store clock", func(t *testing.T) {
		t.Parallel()
		clock := testutil.FixedClock()
		db := testutil.NewTestDatabaseWith(t, clock, testutil.NewStubIDGenerator())
		svc := catalog.NewCatalogService(db, catalog.NewNopLogger())

		op, err := db.CreateOperation(ctx, "channel create", "foo")
		if err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}
		clock.Advance(time.Second)
		if err := db.FinishOperation(ctx, op.ID, "success"); err != nil {
			t.Fatalf("FinishOperation() error = %v", err)
		}

		ops, err := svc.GetHistory(ctx, 1)
		if err != nil {
			t.Fatalf("GetHistory() error = %v", err)
		}
		if len(ops) != 1 {
			t.Fatalf("got %d ops, want 1", len(ops))
		}
		if got := ops[0].FinishedAt.Time.Sub(ops[0].StartedAt); got != time.Second {
			t.Errorf("duration = %v, want 1s", got)
		}
	})

	t.Run("empty history returns empty slice", func(t *testing.T) {
		t.Parallel()
		svc, _ := newService(t)

		ops, err := svc.GetHistory(ctx, 50)
		if err != nil {
			t.Fatalf("GetHistory() error = %v", err)
		}
		if len(ops) != 0 {
			t.Fatalf("got %d ops, want 0", len(ops))
		}
	})
}
