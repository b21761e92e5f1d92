package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// RowError locates a parse failure in an input table. Line numbers count the header as line 1.
type RowError struct {
	Table string
	Line  int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Table, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

type sheet struct {
	name    string
	columns map[string]int
	records [][]string
}

func readSheet(name string, r io.Reader) (*sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty table", name)
	}

	columns := make(map[string]int, len(records[0]))
	for i, header := range records[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
		if _, dup := columns[key]; !dup {
			columns[key] = i
		}
	}
	return &sheet{name: name, columns: columns, records: records[1:]}, nil
}

// column resolves the first header present among names.
func (s *sheet) column(names ...string) (int, error) {
	for _, name := range names {
		if idx, ok := s.columns[strings.ToLower(name)]; ok {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("%s: %w %q", s.name, ErrMissingColumn, names[0])
}

func (s *sheet) optionalColumn(names ...string) int {
	idx, err := s.column(names...)
	if err != nil {
		return -1
	}
	return idx
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (s *sheet) paperID(record []string, idx, line int) (int, error) {
	raw := cell(record, idx)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, &RowError{Table: s.name, Line: line, Err: fmt.Errorf("invalid paper id %q", raw)}
	}
	return id, nil
}

// ReadAvailability parses the availability poll. emailColumn names the reviewer
// key column; "email" is accepted when it is absent. Slots are the columns "1".."slotCount".
func ReadAvailability(r io.Reader, emailColumn string, slotCount int) ([]AvailabilityRow, error) {
	s, err := readSheet("availability", r)
	if err != nil {
		return nil, err
	}
	emailIdx, err := s.column(emailColumn, "email")
	if err != nil {
		return nil, err
	}
	slotIdx := make([]int, slotCount)
	for slot := 1; slot <= slotCount; slot++ {
		idx, err := s.column(strconv.Itoa(slot))
		if err != nil {
			return nil, err
		}
		slotIdx[slot-1] = idx
	}

	rows := make([]AvailabilityRow, 0, len(s.records))
	for i, record := range s.records {
		if blank(record) {
			continue
		}
		email := cell(record, emailIdx)
		if email == "" {
			return nil, &RowError{Table: s.name, Line: i + 2, Err: errors.New("reviewer email is empty")}
		}
		cells := make([]string, slotCount)
		for j, idx := range slotIdx {
			cells[j] = cell(record, idx)
		}
		rows = append(rows, AvailabilityRow{Email: email, Cells: cells})
	}
	return rows, nil
}

// ReadAssignments parses the paper/reviewer assignment export.
func ReadAssignments(r io.Reader) ([]AssignmentRow, error) {
	s, err := readSheet("assignments", r)
	if err != nil {
		return nil, err
	}
	paperIdx, err := s.column("paper", "id")
	if err != nil {
		return nil, err
	}
	emailIdx, err := s.column("email")
	if err != nil {
		return nil, err
	}
	actionIdx := s.optionalColumn("action")

	rows := make([]AssignmentRow, 0, len(s.records))
	for i, record := range s.records {
		if blank(record) {
			continue
		}
		id, err := s.paperID(record, paperIdx, i+2)
		if err != nil {
			return nil, err
		}
		rows = append(rows, AssignmentRow{PaperID: id, Email: cell(record, emailIdx), Action: cell(record, actionIdx)})
	}
	return rows, nil
}

// ReadConflicts parses declared conflicts. Name columns are ignored.
func ReadConflicts(r io.Reader) ([]ConflictRow, error) {
	s, err := readSheet("conflicts", r)
	if err != nil {
		return nil, err
	}
	paperIdx, err := s.column("paper", "id")
	if err != nil {
		return nil, err
	}
	emailIdx, err := s.column("email")
	if err != nil {
		return nil, err
	}

	rows := make([]ConflictRow, 0, len(s.records))
	for i, record := range s.records {
		if blank(record) {
			continue
		}
		id, err := s.paperID(record, paperIdx, i+2)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ConflictRow{PaperID: id, Email: cell(record, emailIdx)})
	}
	return rows, nil
}

// ReadPapers parses paper metadata. Columns other than ID and Title are ignored.
func ReadPapers(r io.Reader) ([]PaperRow, error) {
	s, err := readSheet("papers", r)
	if err != nil {
		return nil, err
	}
	idIdx, err := s.column("id", "paper")
	if err != nil {
		return nil, err
	}
	titleIdx := s.optionalColumn("title")

	rows := make([]PaperRow, 0, len(s.records))
	for i, record := range s.records {
		if blank(record) {
			continue
		}
		id, err := s.paperID(record, idIdx, i+2)
		if err != nil {
			return nil, err
		}
		rows = append(rows, PaperRow{ID: id, Title: cell(record, titleIdx)})
	}
	return rows, nil
}
