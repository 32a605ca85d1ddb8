package excel

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"reachlab/domain/core"
	"reachlab/domain/trial"
	apperrors "reachlab/internal/errors"
)

// DataReader handles reading trial exports in Excel and CSV format.
// Column resolution is by header name, so column order in the export does
// not matter.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadTrials reads the trial table from the backing file.
func (r *DataReader) ReadTrials(ctx context.Context) (trial.Batch, error) {
	rows, err := r.readRows()
	if err != nil {
		return nil, err
	}
	return parseTrialRows(rows)
}

// ReadParticipants derives the demographic table from the trial rows. The
// exports denormalize demographics onto every trial, so the first row per
// participant wins.
func (r *DataReader) ReadParticipants(ctx context.Context) ([]trial.Participant, error) {
	batch, err := r.ReadTrials(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[core.ParticipantID]bool)
	var participants []trial.Participant
	for _, t := range batch {
		if seen[t.ParticipantID] {
			continue
		}
		seen[t.ParticipantID] = true
		participants = append(participants, trial.Participant{
			ID:                  t.ParticipantID,
			Age:                 t.Age,
			Gender:              t.Gender,
			HasGlasses:          t.HasGlasses,
			HasAttentionDeficit: t.HasAttentionDeficit,
		})
	}
	return participants, nil
}

func (r *DataReader) readRows() ([][]string, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, apperrors.NewImportError(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath), err)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVRows()
	case "xlsx":
		return r.readExcelRows()
	default:
		return nil, apperrors.NewImportError(fmt.Sprintf("unsupported file type: %s", r.fileType), nil)
	}
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, apperrors.NewImportError("failed to open Excel file", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewImportError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, apperrors.NewImportError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewImportError("failed to read CSV file", err)
	}
	return rows, nil
}

// Expected header names, matching the collection software's export.
const (
	colTrialID       = "trialId"
	colParticipantID = "participantId"
	colTrialType     = "trialType"
	colTargetIndex   = "targetIndex"
	colReactionTime  = "reactionTime"
	colMovementTime  = "movementTime"
	colPathLength    = "pathLength"
	colMovementPath  = "movementPath"
	colAge           = "age"
	colGender        = "gender"
	colGlasses       = "hasGlasses"
	colADHD          = "hasAttentionDeficit"
)

func parseTrialRows(rows [][]string) (trial.Batch, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("trial file must have a header row and at least one data row: %w", core.ErrSchemaViolation)
	}

	index := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		index[strings.TrimSpace(header)] = i
	}
	for _, required := range []string{colTrialID, colParticipantID, colTrialType} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required column %q: %w", required, core.ErrSchemaViolation)
		}
	}

	batch := make(trial.Batch, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		t, err := parseTrialRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum+2, err)
		}
		batch = append(batch, t)
	}
	return batch, nil
}

func parseTrialRow(row []string, index map[string]int) (trial.Trial, error) {
	trialID, err := core.ParseTrialID(cell(row, index, colTrialID))
	if err != nil {
		return trial.Trial{}, fmt.Errorf("%v: %w", err, core.ErrSchemaViolation)
	}
	participantID, err := core.ParseParticipantID(cell(row, index, colParticipantID))
	if err != nil {
		return trial.Trial{}, fmt.Errorf("%v: %w", err, core.ErrSchemaViolation)
	}
	t := trial.Trial{
		ID:            trialID,
		ParticipantID: participantID,
		Type:          trial.TrialType(cell(row, index, colTrialType)),
	}

	t.TargetIndex = parseIntCell(cell(row, index, colTargetIndex))
	t.ReactionTime = parseFloatCell(cell(row, index, colReactionTime))
	t.MovementTime = parseFloatCell(cell(row, index, colMovementTime))
	t.PathLength = parseFloatCell(cell(row, index, colPathLength))
	t.Age = parseIntCell(cell(row, index, colAge))
	t.HasGlasses = parseBoolCell(cell(row, index, colGlasses))
	t.HasAttentionDeficit = parseBoolCell(cell(row, index, colADHD))

	if gender := strings.TrimSpace(cell(row, index, colGender)); gender != "" {
		t.Gender = &gender
	}

	if raw := strings.TrimSpace(cell(row, index, colMovementPath)); raw != "" {
		// A corrupt path cell degrades to a missing path; the row and its
		// non-path columns survive the import.
		var path []trial.TrajectoryPoint
		if err := json.Unmarshal([]byte(raw), &path); err == nil {
			t.MovementPath = path
		}
	}

	return t, nil
}

func cell(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseFloatCell(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntCell(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Excel sometimes hands back integers as "3.0".
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return nil
		}
		v = int(f)
	}
	return &v
}

func parseBoolCell(raw string) *bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1":
		v := true
		return &v
	case "false", "no", "0":
		v := false
		return &v
	default:
		return nil
	}
}
