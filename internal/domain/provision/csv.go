package provision

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row is one technician to provision, parsed from the import sheet.
type Row struct {
	IDSap            string `json:"idSap"`
	ParentResourceID string `json:"parentResourceId"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	UserType         string `json:"userType"`
	Password         string `json:"-"`
	Deposit          string `json:"deposit"`
}

var requiredColumns = []string{"id_sap", "parent_resource_id", "name", "email", "user_type", "password"}

// ParseCSV reads the provisioning sheet. The header row names the columns;
// order does not matter. "deposit" is optional, everything else is required
// on every row.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("provision: read header: %w", err)
	}

	index := map[string]int{}
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("provision: missing column %q", col)
		}
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("provision: line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := Row{
			IDSap:            field("id_sap"),
			ParentResourceID: field("parent_resource_id"),
			Name:             field("name"),
			Email:            field("email"),
			UserType:         field("user_type"),
			Password:         field("password"),
			Deposit:          field("deposit"),
		}
		if row.IDSap == "" || row.ParentResourceID == "" || row.Name == "" || row.Email == "" || row.UserType == "" || row.Password == "" {
			return nil, fmt.Errorf("provision: line %d: incomplete row for id_sap %q", line, row.IDSap)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
