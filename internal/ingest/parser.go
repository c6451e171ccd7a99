// Package ingest loads the occupation-task dataset from its CSV export.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

// Columns is the exact header the importer accepts, in order
var Columns = []string{
	"O*NET-SOC Code",
	"Title",
	"Task ID",
	"Task",
	"Task Type",
	"Incumbents Responding",
	"Date",
	"Domain Source",
	"pct",
	"Task_CN",
	"Title_CN",
	"Automated_Score",
	"Automated_Score_Reason",
}

const (
	colCode = iota
	colTitle
	colTaskID
	colTask
	colTaskType
	colIncumbents
	colDate
	colDomainSource
	colPct
	colTaskCN
	colTitleCN
	colScore
	colScoreReason
)

// ErrHeaderMismatch is returned when the header row differs from Columns
var ErrHeaderMismatch = errors.New("csv header does not match the expected columns")

var (
	errMissingValue = errors.New("value is required")
	errOutOfRange   = errors.New("value out of range")
)

// RowError reports the first malformed data row. Row is 1-based and excludes the header.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Parse reads the whole file, decodes it and returns every record. It stops at the
// first malformed row; nothing partial is returned.
func Parse(r io.Reader, enc Encoding) ([]*models.TaskRecord, Encoding, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read import file: %w", err)
	}

	text, used, err := decode(raw, enc)
	if err != nil {
		return nil, "", err
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.FieldsPerRecord = len(Columns)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, used, fmt.Errorf("%w: file is empty", ErrHeaderMismatch)
		}
		return nil, used, fmt.Errorf("%w: %v", ErrHeaderMismatch, err)
	}
	if err := checkHeader(header); err != nil {
		return nil, used, err
	}

	var records []*models.TaskRecord
	for row := 1; ; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, used, &RowError{Row: row, Err: err}
		}
		rec, err := parseRow(row, fields)
		if err != nil {
			return nil, used, err
		}
		records = append(records, rec)
	}

	return records, used, nil
}

func checkHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("%w: got %d columns, want %d", ErrHeaderMismatch, len(header), len(Columns))
	}
	for i, want := range Columns {
		if got := strings.TrimSpace(header[i]); got != want {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrHeaderMismatch, i+1, got, want)
		}
	}
	return nil
}

func parseRow(row int, fields []string) (*models.TaskRecord, error) {
	p := rowParser{row: row, fields: fields}

	rec := &models.TaskRecord{
		OccupationCode:       p.required(colCode),
		Title:                p.required(colTitle),
		TaskID:               p.integer(colTaskID),
		Task:                 truncateRunes(p.required(colTask), models.MaxTaskTextLength),
		TaskType:             p.optional(colTaskType, models.DefaultTaskType),
		IncumbentsResponding: int(p.optionalInteger(colIncumbents, 0)),
		Date:                 p.required(colDate),
		DomainSource:         p.required(colDomainSource),
		Percentage:           p.percentage(colPct),
		TaskCN:               truncateRunes(p.required(colTaskCN), models.MaxTaskTextLength),
		TitleCN:              p.required(colTitleCN),
		AutomatedScore:       p.score(colScore),
		AutomatedScoreReason: truncateRunes(p.required(colScoreReason), models.MaxScoreReasonLength),
	}
	if p.err != nil {
		return nil, p.err
	}
	return rec, nil
}

// rowParser keeps the first field error so parseRow reads as a flat list
type rowParser struct {
	row    int
	fields []string
	err    error
}

func (p *rowParser) fail(col int, err error) {
	if p.err == nil {
		p.err = &RowError{Row: p.row, Column: Columns[col], Err: err}
	}
}

func (p *rowParser) value(col int) string {
	return norm.NFC.String(strings.TrimSpace(p.fields[col]))
}

func (p *rowParser) required(col int) string {
	v := p.value(col)
	if v == "" {
		p.fail(col, errMissingValue)
	}
	return v
}

func (p *rowParser) optional(col int, fallback string) string {
	if v := p.value(col); v != "" {
		return v
	}
	return fallback
}

func (p *rowParser) integer(col int) int64 {
	v := p.required(col)
	if v == "" {
		return 0
	}
	n, err := parseWholeNumber(v)
	if err != nil {
		p.fail(col, err)
	}
	return n
}

func (p *rowParser) optionalInteger(col int, fallback int64) int64 {
	v := p.value(col)
	if v == "" || strings.EqualFold(v, "nan") {
		return fallback
	}
	n, err := parseWholeNumber(v)
	if err != nil {
		p.fail(col, err)
	}
	return n
}

func (p *rowParser) percentage(col int) float64 {
	v := p.required(col)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) {
		p.fail(col, fmt.Errorf("invalid number %q", v))
		return 0
	}
	if f < 0 || f > 100 {
		p.fail(col, fmt.Errorf("%w: %v not in [0, 100]", errOutOfRange, f))
	}
	return f
}

func (p *rowParser) score(col int) int {
	n := p.integer(col)
	if n < 0 || n > 100 {
		p.fail(col, fmt.Errorf("%w: %d not in [0, 100]", errOutOfRange, n))
	}
	return int(n)
}

// parseWholeNumber accepts "12" and spreadsheet-style "12.0"
func parseWholeNumber(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	if f >= 1<<63 || f < -(1<<63) {
		return 0, fmt.Errorf("%w: %q exceeds int64", errOutOfRange, v)
	}
	return int64(f), nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
