package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/rmachado/go-book-harvest/models"
)

// Checkpointer persists in-progress harvest snapshots so a crashed run
// leaves recoverable partial output. Checkpoints are write-only artifacts;
// nothing reads them back automatically.
type Checkpointer struct {
	dir string
}

// NewCheckpointer writes checkpoint files into dir.
func NewCheckpointer(dir string) *Checkpointer {
	return &Checkpointer{dir: dir}
}

// Write persists the full in-progress record set, named with the running
// successful-record count. It matches crawler.CheckpointSink.
func (c *Checkpointer) Write(records []*models.RawBook, count int) error {
	path := filepath.Join(c.dir, fmt.Sprintf("checkpoint_%d.csv", count))
	return WriteRawCSV(path, records)
}
