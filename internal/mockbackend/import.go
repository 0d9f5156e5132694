package mockbackend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"edu-task-portal/internal/model"
)

const maxImportSize = 10 << 20

// sheet is an uploaded CSV. first is the spreadsheet row number of rows[0].
type sheet struct {
	rows  [][]string
	first int
}

// readSheet reads the uploaded "file" part as CSV. A first row whose first
// cell is a header word is skipped.
func readSheet(r *http.Request) (sheet, error) {
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		return sheet{}, fmt.Errorf("parse upload: %w", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return sheet{}, fmt.Errorf("missing file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sheet{}, fmt.Errorf("read sheet: %w", err)
		}
		rows = append(rows, record)
	}

	out := sheet{rows: rows, first: 1}
	if len(rows) > 0 {
		switch strings.ToLower(cell(rows[0], 0)) {
		case "username", "name":
			out.rows, out.first = rows[1:], 2
		}
	}
	return out, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

// importRows runs each row through apply and gathers the per-row report.
func importRows(sh sheet, apply func(row []string) error) model.ImportReport {
	report := model.ImportReport{Total: len(sh.rows)}
	for i, row := range sh.rows {
		if err := apply(row); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("Row %d: %s", sh.first+i, err.Error()))
			continue
		}
		report.Success++
	}
	return report
}

func (s *Server) importAccounts(w http.ResponseWriter, r *http.Request, build func(row []string) model.User) {
	sh, err := readSheet(r)
	if err != nil {
		failure(w, "Import failed: "+err.Error())
		return
	}

	success(w, importRows(sh, func(row []string) error {
		user := build(row)
		password := cell(row, 1)
		if user.Username == "" || password == "" {
			return errors.New("Username and password are required")
		}

		if _, err := s.dir.create(user, password); err != nil {
			if errors.Is(err, model.ErrUserAlreadyExists) {
				return fmt.Errorf("Username '%s' already exists", user.Username)
			}
			return err
		}
		return nil
	}))
}

// importStudents expects columns: username, password, name, studentNo, email, phone.
func (s *Server) importStudents(w http.ResponseWriter, r *http.Request) {
	s.importAccounts(w, r, func(row []string) model.User {
		return model.User{
			Username:  cell(row, 0),
			Name:      cell(row, 2),
			StudentNo: cell(row, 3),
			Email:     cell(row, 4),
			Phone:     cell(row, 5),
			Role:      "STUDENT",
			Status:    StatusActive,
		}
	})
}

// importTeachers expects columns: username, password, name, email, phone.
// Imported teachers skip the approval step.
func (s *Server) importTeachers(w http.ResponseWriter, r *http.Request) {
	s.importAccounts(w, r, func(row []string) model.User {
		return model.User{
			Username: cell(row, 0),
			Name:     cell(row, 2),
			Email:    cell(row, 3),
			Phone:    cell(row, 4),
			Role:     "TEACHER",
			Status:   StatusActive,
		}
	})
}

// importGroups expects columns: name, description. Groups belong to the
// importing teacher.
func (s *Server) importGroups(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	sh, err := readSheet(r)
	if err != nil {
		failure(w, "Import failed: "+err.Error())
		return
	}

	success(w, importRows(sh, func(row []string) error {
		name := cell(row, 0)
		if name == "" {
			return errors.New("Group name is required")
		}
		s.dir.createGroup(model.Group{Name: name, Description: cell(row, 1), TeacherID: claims.UserID})
		return nil
	}))
}
