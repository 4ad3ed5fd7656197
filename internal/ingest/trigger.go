package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/bizboard/internal/domain/model"
)

// Trigger sources.
const (
	SourceHTTP    = "http"
	SourceWatcher = "watcher"
	SourceCLI     = "cli"
)

// acceptedExtensions is the whole set of files the pipeline will read.
var acceptedExtensions = map[string]struct{}{
	".xls":  {},
	".xlsx": {},
}

// Trigger hands a file to the pipeline.
type Trigger struct {
	Dataset model.Dataset
	// Name is the object or file name; only its extension matters to the pipeline.
	Name string
	// Size is informational; -1 when unknown.
	Size   int64
	Source string
	Open   func(ctx context.Context) (io.ReadCloser, error)
}

// Accepts reports whether name has a spreadsheet extension. Matching ignores case.
func Accepts(name string) bool {
	_, ok := acceptedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FileTrigger builds a trigger for a local file.
func FileTrigger(d model.Dataset, path, source string) (Trigger, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Trigger{}, err
	}
	return Trigger{
		Dataset: d,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		Source:  source,
		Open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path) //nolint:gosec // path comes from the watched bucket or the operator
		},
	}, nil
}
