package hierarchy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var csvColumns = []string{"username", "email", "name", "title", "department", "manager_id", "role"}

// ParseCSV reads import rows from a CSV file with a header line. Column order
// is free; username, email and name are required columns, the rest optional.
// A malformed cell does not fail the file; the row carries a ParseError.
func ParseCSV(r io.Reader) ([]ImportRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := map[string]int{}
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range csvColumns[:3] {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csv header is missing %q", required)
		}
	}

	var rows []ImportRow
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := ImportRow{
			Username: field("username"),
			Email:    field("email"),
			Name:     field("name"),
			Role:     field("role"),
		}
		if v := field("title"); v != "" {
			row.Title = &v
		}
		if v := field("department"); v != "" {
			row.Department = &v
		}
		if v := field("manager_id"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				row.ManagerID = &id
			} else {
				row.ParseError = "invalid manager_id"
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
