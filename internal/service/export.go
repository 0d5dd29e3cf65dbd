package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"

	"github.com/stemsi/compass-backend/internal/model"
)

const (
	exportSheet   = "Results"
	exportPerPage = 100
	exportMaxRows = 5000
)

// ExportXLSX writes completed results matching q as a spreadsheet, one row
// per session and one percentage column per competency.
func (s *ResultService) ExportXLSX(ctx context.Context, w io.Writer, q model.ResultListQuery) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}

	defs := s.bank.Competencies()
	header := []any{"Session ID", "Name", "Email", "Role", "Completed At"}
	for _, d := range defs {
		header = append(header, d.DisplayName+" (%)")
	}
	header = append(header, "Answer Changes", "Back Navigations", "Avg Response (s)")

	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(exportSheet, "A1", last, style)
	}

	q.Status = model.SessionStatusCompleted
	q.PerPage = exportPerPage
	q.Page = 1

	written := 0
	for written < exportMaxRows {
		items, total, err := s.results.ListPaginated(ctx, q)
		if err != nil {
			return written, fmt.Errorf("list results: %w", err)
		}

		for _, it := range items {
			stored, err := s.results.GetBySession(ctx, it.SessionID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					continue
				}
				return written, fmt.Errorf("get result: %w", err)
			}

			row := exportRow(it, stored, defs)
			cell, _ := excelize.CoordinatesToCellName(1, written+2)
			if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
				return written, fmt.Errorf("write row: %w", err)
			}
			written++
		}

		if len(items) == 0 || q.Page*q.PerPage >= total {
			break
		}
		q.Page++
	}

	if err := f.Write(w); err != nil {
		return written, fmt.Errorf("write workbook: %w", err)
	}
	return written, nil
}

func exportRow(it model.ResultSummary, stored *model.StoredResult, defs []model.CompetencyDefinition) []any {
	byCode := make(map[model.Competency]int, len(stored.Scores))
	for _, sc := range stored.Scores {
		byCode[sc.Dimension] = sc.Percentage
	}

	row := []any{it.SessionID.String(), it.Candidate.Name, it.Candidate.Email, it.Candidate.Role, stored.CompletedAt.UTC().Format("2006-01-02 15:04:05")}
	for _, d := range defs {
		row = append(row, byCode[d.Code])
	}
	if a := stored.Analytics; a != nil {
		row = append(row, a.TotalAnswerChanges, a.TotalBackNavigations, a.AverageResponseTime/1000)
	} else {
		row = append(row, "", "", "")
	}
	return row
}
