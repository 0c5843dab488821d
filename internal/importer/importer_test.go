package importer_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"channels-go/internal/catalog"
	"channels-go/internal/importer"
	"channels-go/internal/testutil"
)

var wantCategories = []string{
	"Books",
	"Books/Foreign Literature",
	"Books/Foreign Literature/Computers",
	"Books/Foreign Literature/Computers/Applications",
	"Books/Foreign Literature/Computers/Database",
	"Books/Foreign Literature/Computers/Programming",
	"Books/Foreign Literature/Computers/Programming/Go",
	"Books/Foreign Literature/Computers/Programming/Python",
	"Books/National Literature",
	"Books/National Literature/Fiction Fantastic",
	"Books/National Literature/Science Fiction",
	"Computers",
	"Computers/Desktop",
	"Computers/Notebooks",
	"Computers/Tablets",
	"Games",
	"Games/Playstation 4",
	"Games/XBOX 360",
	"Games/XBOX 360/Accessories",
	"Games/XBOX 360/Console",
	"Games/XBOX 360/Games",
	"Games/XBOX One",
	"Games/XBOX One/Accessories",
	"Games/XBOX One/Console",
	"Games/XBOX One/Games",
	"Home & Garden",
	"Home & Garden/Household Appliances",
	"Home & Garden/Household Appliances/Laundry Appliances",
	"Home & Garden/Household Appliances/Laundry Appliances/Dryers",
	"Home & Garden/Household Appliances/Laundry Appliances/Washing Machines",
	"Home & Garden/Kitchen & Dining",
	"Home & Garden/Kitchen & Dining/Kitchen Tools & Utensils",
	"Home & Garden/Kitchen & Dining/Kitchen Tools & Utensils/Food Graters & Zesters",
	"Sporting Goods",
	"Sporting Goods/Outdoor Recreation",
	"Sporting Goods/Outdoor Recreation/Camping & Hiking",
	"Sporting Goods/Outdoor Recreation/Camping & Hiking/Tents",
	"Sporting Goods/Outdoor Recreation/Cycling",
}

func newImporter(t *testing.T) (*importer.Importer, *catalog.CatalogService) {
	t.Helper()
	db := testutil.NewTestDatabase(t)
	svc := catalog.NewCatalogService(db, catalog.NewNopLogger())
	return importer.New(svc, catalog.NewNopLogger()), svc
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		sep   string
		want  [][]string
	}{
		{
			name:  "default separator",
			input: "Books\nBooks;Computers\n",
			want:  [][]string{{"Books"}, {"Books", "Computers"}},
		},
		{
			name:  "custom separator",
			input: "Books,Computers,Go",
			sep:   ",",
			want:  [][]string{{"Books", "Computers", "Go"}},
		},
		{
			name:  "blank lines skipped",
			input: "\nBooks\n   \n\r\nGames\n\n",
			want:  [][]string{{"Books"}, {"Games"}},
		},
		{
			name:  "segments trimmed",
			input: "  Home & Garden ; Kitchen & Dining  \r\n",
			want:  [][]string{{"Home & Garden", "Kitchen & Dining"}},
		},
		{
			name:  "empty segments kept",
			input: "Books;;Go",
			want:  [][]string{{"Books", "", "Go"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := importer.Parse(strings.NewReader(tt.input), tt.sep)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Parse() returned %d paths, want %d: %q", len(got), len(tt.want), got)
			}
			for i := range got {
				if strings.Join(got[i], "|") != strings.Join(tt.want[i], "|") {
					t.Errorf("Parse()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bar")

	_, err := importer.ParseFile(path, "")

	var accessErr *importer.FileAccessError
	if !errors.As(err, &accessErr) {
		t.Fatalf("ParseFile() error = %v, want *FileAccessError", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ParseFile() error does not wrap fs.ErrNotExist")
	}
	if want := "File " + path + " not found."; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("imports the full file", func(t *testing.T) {
		t.Parallel()
		imp, svc := newImporter(t)
		file := filepath.Join("testdata", "categories.csv")

		result, err := imp.Import(ctx, "foo", file, "")
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if len(result.Failed) != 0 {
			t.Errorf("Import() failed lines = %v", result.Failed)
		}
		if want := "Channel foo updated with 38 categories from file: " + file; result.Message() != want {
			t.Errorf("Message() = %q, want %q", result.Message(), want)
		}

		ch, err := svc.FindChannel(ctx, "foo")
		if err != nil {
			t.Fatalf("FindChannel() error = %v", err)
		}
		count, err := svc.CategoryCount(ctx, ch)
		if err != nil {
			t.Fatalf("CategoryCount() error = %v", err)
		}
		if count != 38 {
			t.Errorf("CategoryCount() = %d, want 38", count)
		}

		paths, err := svc.ListCategoryPaths(ctx, ch)
		if err != nil {
			t.Fatalf("ListCategoryPaths() error = %v", err)
		}
		if len(paths) != len(wantCategories) {
			t.Fatalf("ListCategoryPaths() returned %d paths, want %d", len(paths), len(wantCategories))
		}
		for i := range paths {
			if paths[i] != wantCategories[i] {
				t.Errorf("ListCategoryPaths()[%d] = %q, want %q", i, paths[i], wantCategories[i])
			}
		}
	})

	t.Run("custom separator", func(t *testing.T) {
		t.Parallel()
		imp, svc := newImporter(t)
		file := filepath.Join("testdata", "categories_commas.csv")

		result, err := imp.Import(ctx, "FooChannel", file, ",")
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if want := "Channel FooChannel updated with 10 categories from file: " + file; result.Message() != want {
			t.Errorf("Message() = %q, want %q", result.Message(), want)
		}
		count, _ := svc.CategoryCount(ctx, result.Channel)
		if count != 10 {
			t.Errorf("CategoryCount() = %d, want 10", count)
		}
	})

	t.Run("skips empty lines", func(t *testing.T) {
		t.Parallel()
		imp, svc := newImporter(t)

		result, err := imp.Import(ctx, "FooChannel", filepath.Join("testdata", "categories_empty_lines.csv"), "")
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		count, _ := svc.CategoryCount(ctx, result.Channel)
		if count != 11 {
			t.Errorf("CategoryCount() = %d, want 11", count)
		}
	})

	t.Run("replaces existing categories", func(t *testing.T) {
		t.Parallel()
		imp, svc := newImporter(t)

		ch, err := svc.CreateChannel(ctx, "foo")
		if err != nil {
			t.Fatalf("CreateChannel() error = %v", err)
		}
		if _, err := svc.AddCategoryPath(ctx, ch, []string{"Old", "Stuff"}); err != nil {
			t.Fatalf("AddCategoryPath() error = %v", err)
		}

		file := filepath.Join("testdata", "categories.csv")
		if _, err := imp.Import(ctx, "foo", file, ""); err != nil {
			t.Fatalf("first Import() error = %v", err)
		}
		result, err := imp.Import(ctx, "FOO", file, "")
		if err != nil {
			t.Fatalf("second Import() error = %v", err)
		}

		if result.Channel.Name() != "foo" {
			t.Errorf("Channel name = %q, want foo", result.Channel.Name())
		}
		count, _ := svc.CategoryCount(ctx, result.Channel)
		if count != 38 {
			t.Errorf("CategoryCount() = %d, want 38", count)
		}
		if _, err := svc.GetCategoryByName(ctx, result.Channel, "Old"); !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("GetCategoryByName(Old) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("missing file leaves the channel alone", func(t *testing.T) {
		t.Parallel()
		imp, svc := newImporter(t)

		ch, _ := svc.CreateChannel(ctx, "FooChannel")
		svc.AddCategoryPath(ctx, ch, []string{"Books"})

		_, err := imp.Import(ctx, "FooChannel", "bar", "")
		var accessErr *importer.FileAccessError
		if !errors.As(err, &accessErr) {
			t.Fatalf("Import() error = %v, want *FileAccessError", err)
		}
		if err.Error() != "File bar not found." {
			t.Errorf("Error() = %q, want %q", err.Error(), "File bar not found.")
		}

		count, _ := svc.CategoryCount(ctx, ch)
		if count != 1 {
			t.Errorf("CategoryCount() = %d, want 1", count)
		}
	})

	t.Run("bad lines are reported and skipped", func(t *testing.T) {
		t.Parallel()
		imp, svc := newImporter(t)

		file := filepath.Join(t.TempDir(), "broken.csv")
		writeFile(t, file, "Books\nBooks;;Go\nGames\n")

		result, err := imp.Import(ctx, "foo", file, "")
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if result.Lines != 3 {
			t.Errorf("Lines = %d, want 3", result.Lines)
		}
		if len(result.Failed) != 1 || !errors.Is(result.Failed[0].Err, catalog.ErrEmptyName) {
			t.Errorf("Failed = %v, want one ErrEmptyName", result.Failed)
		}

		paths, _ := svc.ListCategoryPaths(ctx, result.Channel)
		if strings.Join(paths, ",") != "Books,Games" {
			t.Errorf("ListCategoryPaths() = %v, want [Books Games]", paths)
		}
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
