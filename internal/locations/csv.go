// Package locations imports and exports the locations dataset as CSV.
package locations

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"automation-console/backend/internal/logging"
	"automation-console/backend/internal/records"
	"automation-console/backend/internal/repository"
	"automation-console/backend/pkg/models"
)

// Header is the column set of the CSV format, in order.
var Header = []string{"name", "latitude", "longitude", "address", "type"}

// RowError describes a rejected CSV row. Line counts the header as line 1.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors"`
}

// Service moves locations between CSV and the record store.
type Service struct {
	store  repository.Records[models.Location]
	logger *logging.Logger
}

// NewService creates a new Service.
func NewService(store repository.Records[models.Location], logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Parse reads CSV rows into locations. Rows with an empty type get
// models.DefaultLocationType. Bad rows are collected, not fatal.
func Parse(r io.Reader) ([]models.Location, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	index, err := headerIndex(head)
	if err != nil {
		return nil, nil, err
	}

	var out []models.Location
	var rowErrs []RowError
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: err.Error()})
			continue
		}
		if blank(row) {
			continue
		}
		loc, err := parseRow(row, index)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: err.Error()})
			continue
		}
		out = append(out, loc)
	}
	return out, rowErrs, nil
}

// Import parses r and inserts every valid row.
func (s *Service) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	locs, rowErrs, err := Parse(r)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Errors: rowErrs}
	for _, loc := range locs {
		loc.ID = uuid.New().String()
		if err := records.Validate(loc); err != nil {
			res.Errors = append(res.Errors, RowError{Message: fmt.Sprintf("%s: %v", loc.Name, err)})
			continue
		}
		if err := s.store.Insert(ctx, &loc); err != nil {
			return res, fmt.Errorf("insert location %q: %w", loc.Name, err)
		}
		res.Imported++
	}
	if res.Errors == nil {
		res.Errors = []RowError{}
	}
	s.logger.Info("locations imported", "imported", res.Imported, "rejected", len(res.Errors))
	return res, nil
}

// Export writes every stored location as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	locs, err := s.store.Select(ctx, nil)
	if err != nil {
		return fmt.Errorf("list locations: %w", err)
	}
	return Write(w, locs)
}

// Write encodes locations as CSV with Header.
func Write(w io.Writer, locs []models.Location) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, l := range locs {
		if err := writer.Write([]string{
			l.Name,
			strconv.FormatFloat(l.Latitude, 'f', -1, 64),
			strconv.FormatFloat(l.Longitude, 'f', -1, 64),
			l.Address,
			l.Type,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func headerIndex(head []string) (map[string]int, error) {
	index := map[string]int{}
	for i, h := range head {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range []string{"name", "latitude", "longitude"} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", col)
		}
	}
	return index, nil
}

func parseRow(row []string, index map[string]int) (models.Location, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	loc := models.Location{
		Name:    cell("name"),
		Address: cell("address"),
		Type:    cell("type"),
	}
	if loc.Name == "" {
		return loc, errors.New("name is required")
	}
	var err error
	if loc.Latitude, err = strconv.ParseFloat(cell("latitude"), 64); err != nil {
		return loc, fmt.Errorf("invalid latitude %q", cell("latitude"))
	}
	if loc.Longitude, err = strconv.ParseFloat(cell("longitude"), 64); err != nil {
		return loc, fmt.Errorf("invalid longitude %q", cell("longitude"))
	}
	if loc.Type == "" {
		loc.Type = models.DefaultLocationType
	}
	return loc, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
