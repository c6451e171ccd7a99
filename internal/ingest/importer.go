package ingest

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Curisan/anthropic-econ-index/internal/database"
	"github.com/Curisan/anthropic-econ-index/internal/logger"
	"github.com/Curisan/anthropic-econ-index/internal/telemetry"
)

// Options controls a single import run
type Options struct {
	Encoding Encoding
	// Replace drops the existing dataset inside the same transaction
	Replace bool
}

// Result summarises a completed import
type Result struct {
	Rows     int
	Encoding Encoding
}

// Importer parses an export file and loads it into the record store
type Importer struct {
	records database.TaskRecordRepositoryInterface
	logger  *zap.Logger
}

// NewImporter creates a new importer
func NewImporter(records database.TaskRecordRepositoryInterface, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{records: records, logger: log}
}

// Import parses r and inserts every row in one transaction. A malformed row aborts the
// run before anything is written.
func (i *Importer) Import(ctx context.Context, r io.Reader, opts Options) (result Result, err error) {
	defer logger.Track(i.logger, "import_task_records")()
	ctx, span := telemetry.StartSpan(ctx, "ingest.import", attribute.Bool("replace", opts.Replace))
	defer func() {
		span.SetAttributes(attribute.Int("rows", result.Rows))
		telemetry.EndSpan(span, err)
	}()

	if opts.Encoding == "" {
		opts.Encoding = EncodingAuto
	}

	records, used, err := Parse(r, opts.Encoding)
	if err != nil {
		i.logger.Error("import_parse_failed", zap.Error(err))
		return Result{}, err
	}

	i.logger.Info("import_parsed",
		zap.Int("rows", len(records)),
		zap.String("encoding", string(used)),
		zap.Bool("replace", opts.Replace),
	)

	n, err := i.records.BulkInsert(ctx, records, opts.Replace)
	if err != nil {
		i.logger.Error("import_insert_failed", zap.Error(err))
		return Result{}, fmt.Errorf("failed to store task records: %w", err)
	}

	i.logger.Info("import_completed", zap.Int("rows", n))
	return Result{Rows: n, Encoding: used}, nil
}
