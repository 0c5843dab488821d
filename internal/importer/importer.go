// Package importer loads category paths from separator-delimited text files
// into a channel, replacing whatever the channel held before.
package importer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"channels-go/internal/catalog"
)

// DefaultSeparator splits the segments of one category path.
const DefaultSeparator = ";"

const maxLineSize = 1 << 20

// FileAccessError reports an import file that could not be opened or read.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	if errors.Is(e.Err, fs.ErrNotExist) {
		return fmt.Sprintf("File %s not found.", e.Path)
	}
	return fmt.Sprintf("File %s could not be read: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// Parse reads one category path per line. Blank lines are skipped and every
// segment is trimmed.
func Parse(r io.Reader, sep string) ([][]string, error) {
	if sep == "" {
		sep = DefaultSeparator
	}

	var paths [][]string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		segments := strings.Split(line, sep)
		for i := range segments {
			segments[i] = catalog.NormalizeName(segments[i])
		}
		paths = append(paths, segments)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// ParseFile is Parse on the file at path. Open and read failures are
// returned as *FileAccessError.
func ParseFile(path string, sep string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	defer f.Close()

	paths, err := Parse(f, sep)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	return paths, nil
}

// LineError records a path that could not be added.
type LineError struct {
	Segments []string
	Err      error
}

func (e LineError) Error() string {
	return fmt.Sprintf("%s: %v", strings.Join(e.Segments, catalog.PathSeparator), e.Err)
}

// Result summarizes one import.
type Result struct {
	Channel *catalog.Channel
	File    string
	Lines   int // non-empty lines read from the file
	Failed  []LineError
}

// Message is the one-line summary printed after a successful import.
func (r *Result) Message() string {
	return fmt.Sprintf("Channel %s updated with %d categories from file: %s", r.Channel.Name(), r.Lines, r.File)
}

// Importer resets a channel and fills it from a file.
type Importer struct {
	catalog *catalog.CatalogService
	logger  catalog.Logger
}

// New creates an Importer on top of the catalog service.
func New(svc *catalog.CatalogService, logger catalog.Logger) *Importer {
	return &Importer{catalog: svc, logger: logger}
}

// Import parses file, resets the named channel and adds every parsed path.
// The file is parsed before anything is touched, so an unreadable file
// leaves the channel as it was. Paths are added independently: a path that
// fails is recorded in Result.Failed and the import carries on.
func (im *Importer) Import(ctx context.Context, channelName string, file string, sep string) (*Result, error) {
	paths, err := ParseFile(file, sep)
	if err != nil {
		return nil, err
	}

	channel, err := im.catalog.ResetChannel(ctx, channelName)
	if err != nil {
		return nil, err
	}
	im.logger.Info("import started", "channel", channel.Name(), "file", file, "lines", len(paths))

	result := &Result{Channel: channel, File: file, Lines: len(paths)}
	for _, segments := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := im.catalog.AddCategoryPath(ctx, channel, segments); err != nil {
			im.logger.Warn("category path skipped", "path", strings.Join(segments, catalog.PathSeparator), "error", err)
			result.Failed = append(result.Failed, LineError{Segments: segments, Err: err})
		}
	}

	im.logger.Info("import finished", "channel", channel.Name(), "failed", len(result.Failed))
	return result, nil
}
