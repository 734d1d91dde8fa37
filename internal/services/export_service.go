package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/formlab/form-service/internal/models"
	"github.com/formlab/form-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// ExportService flattens a form's responses into tabular files. One row per
// response, one column per question, answers rendered as plain text.
type ExportService interface {
	ExportResponses(ctx context.Context, formID uint, format string) ([]byte, string, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportResponses returns the file bytes and a suggested content type.
func (s *exportService) ExportResponses(ctx context.Context, formID uint, format string) ([]byte, string, error) {
	form, err := s.repo.Form().GetByID(ctx, formID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrFormNotFound
		}
		return nil, "", fmt.Errorf("failed to get form: %w", err)
	}
	questions, err := form.QuestionList()
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode questions: %w", err)
	}

	responses, _, err := s.repo.Response().ListByForm(ctx, formID, repositories.ResponseFilters{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list responses: %w", err)
	}

	headers, rows := s.buildTable(questions, responses)

	switch format {
	case ExportFormatCSV, "":
		data, err := writeCSV(headers, rows)
		return data, "text/csv", err
	case ExportFormatXLSX:
		data, err := writeExcel(headers, rows)
		return data, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", err
	default:
		return nil, "", ErrUnsupportedFormat
	}
}

func (s *exportService) buildTable(questions []models.Question, responses []*models.Response) ([]string, [][]string) {
	headers := []string{"Response ID", "Submitted At"}
	for _, q := range questions {
		label := q.QuestionText
		if label == "" {
			label = q.ID
		}
		headers = append(headers, label)
	}

	rows := make([][]string, 0, len(responses))
	for _, r := range responses {
		answers, err := r.AnswerList()
		if err != nil {
			s.logger.Warn("Skipping response with undecodable answers", "response_id", r.ID, "error", err)
			continue
		}
		byQuestion := make(map[string]*models.AnswerState, len(answers))
		for _, a := range answers {
			byQuestion[a.QuestionID] = a.Value
		}

		row := []string{
			fmt.Sprintf("%d", r.ID),
			r.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		for _, q := range questions {
			row = append(row, renderAnswer(byQuestion[q.ID]))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// renderAnswer flattens one answer state to a cell value.
func renderAnswer(state *models.AnswerState) string {
	if state == nil {
		return ""
	}
	switch state.Type {
	case models.QuestionCategorize:
		if state.Categorize == nil {
			return ""
		}
		parts := make([]string, 0, len(state.Categorize.Items))
		for _, it := range state.Categorize.Items {
			if it.Assigned() {
				parts = append(parts, fmt.Sprintf("%s=%s", it.Label, *it.CategoryID))
			}
		}
		return strings.Join(parts, "; ")
	case models.QuestionCloze:
		if state.Cloze == nil {
			return ""
		}
		parts := make([]string, 0, len(state.Cloze.Blanks))
		for _, b := range state.Cloze.Blanks {
			parts = append(parts, state.Cloze.UserAnswers[b.ID])
		}
		return strings.Join(parts, "; ")
	case models.QuestionComprehension:
		if state.Comprehension == nil {
			return ""
		}
		keys := make([]string, 0, len(state.Comprehension.Answers))
		for k := range state.Comprehension.Answers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, state.Comprehension.Answers[k]))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return []byte(buf.String()), nil
}

func writeExcel(headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	sheetName := "Responses"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to map Excel cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			if err != nil {
				return nil, fmt.Errorf("failed to map Excel cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}
