package catalog

import (
	"database/sql"
	"testing"

	"channels-go/internal/database/sqlc"
)

func TestRoleOf(t *testing.T) {
	root := &sqlc.Node{ID: 1, Name: "foo"}
	child := &sqlc.Node{ID: 2, Name: "Books", ParentID: sql.NullInt64{Int64: 1, Valid: true}}

	if got := RoleOf(root); got != RoleChannel {
		t.Errorf("RoleOf(root) = %v, want channel", got)
	}
	if got := RoleOf(child); got != RoleCategory {
		t.Errorf("RoleOf(child) = %v, want category", got)
	}
}

func TestChildPath(t *testing.T) {
	root := &sqlc.Node{ID: 1, Name: "foo"}
	books := &sqlc.Node{ID: 2, Name: "Books", Path: "Books", ParentID: sql.NullInt64{Int64: 1, Valid: true}}

	tests := []struct {
		name   string
		parent *sqlc.Node
		child  string
		want   string
	}{
		{name: "below a root", parent: root, child: "Books", want: "Books"},
		{name: "below a category", parent: books, child: "Go", want: "Books/Go"},
		{name: "names keep inner spaces", parent: books, child: "Science Fiction", want: "Books/Science Fiction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChildPath(tt.parent, tt.child); got != tt.want {
				t.Errorf("ChildPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Books":           "Books",
		"  Books  ":       "Books",
		"\tHome & Garden": "Home & Garden",
		"   ":             "",
	}
	for in, want := range tests {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewChannelAndCategory(t *testing.T) {
	root := &sqlc.Node{ID: 1, Name: "foo", TreeID: "tree-1"}
	child := &sqlc.Node{ID: 2, Name: "Books", Path: "Books", TreeID: "tree-1", Depth: 1, ParentID: sql.NullInt64{Int64: 1, Valid: true}}

	t.Run("channel from root", func(t *testing.T) {
		ch, err := NewChannel(root)
		if err != nil {
			t.Fatalf("NewChannel() error = %v", err)
		}
		if ch.Name() != "foo" || ch.TreeID() != "tree-1" || ch.ID() != 1 {
			t.Errorf("NewChannel() = %+v", ch)
		}
	})

	t.Run("channel from category fails", func(t *testing.T) {
		if _, err := NewChannel(child); err == nil {
			t.Error("NewChannel(child) expected error, got nil")
		}
		if _, err := NewChannel(nil); err == nil {
			t.Error("NewChannel(nil) expected error, got nil")
		}
	})

	t.Run("category from child", func(t *testing.T) {
		c, err := NewCategory(child)
		if err != nil {
			t.Fatalf("NewCategory() error = %v", err)
		}
		if c.Path() != "Books" || c.ParentID() != 1 || c.Depth() != 1 {
			t.Errorf("NewCategory() = %+v", c)
		}
		if c.String() != "Books" {
			t.Errorf("String() = %q, want Books", c.String())
		}
	})

	t.Run("category from root fails", func(t *testing.T) {
		if _, err := NewCategory(root); err == nil {
			t.Error("NewCategory(root) expected error, got nil")
		}
	})
}
