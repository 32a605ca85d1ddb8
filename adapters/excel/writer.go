package excel

import (
	"bytes"
	"context"
	"strconv"

	"github.com/xuri/excelize/v2"

	"reachlab/domain/trial"
	apperrors "reachlab/internal/errors"
)

// Writer exports the enriched trial table plus the analysis report as a
// two-sheet workbook. It satisfies ports.TrialExporter.
type Writer struct{}

// NewWriter creates a workbook exporter.
func NewWriter() *Writer {
	return &Writer{}
}

var exportHeaders = []string{
	"trialId", "participantId", "trialType", "targetIndex",
	"reactionTime", "movementTime", "pathLength",
	"age", "ageGroup", "gender", "hasGlasses", "hasAttentionDeficit",
	"averageSpeed", "speedVariance", "velocityPeaks", "jerkMetric",
	"pathEfficiency", "numCorrections", "conditionMeanRT",
}

// Export renders the batch into an xlsx workbook and returns the bytes.
func (w *Writer) Export(ctx context.Context, batch trial.Batch, reportText string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Trials"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, apperrors.NewExportError("failed to create trials sheet", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, apperrors.NewExportError("failed to write header row", err)
		}
	}

	for r, t := range batch {
		values := trialRowValues(t)
		rowIdx := r + 2
		for c, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, apperrors.NewExportError("failed to write trial row "+strconv.Itoa(rowIdx), err)
			}
		}
	}

	if reportText != "" {
		if err := writeReportSheet(f, reportText); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperrors.NewExportError("failed to serialize workbook", err)
	}
	return buf.Bytes(), nil
}

func writeReportSheet(f *excelize.File, reportText string) error {
	sheet := "Report"
	if _, err := f.NewSheet(sheet); err != nil {
		return apperrors.NewExportError("failed to create report sheet", err)
	}

	row := 1
	start := 0
	for i := 0; i <= len(reportText); i++ {
		if i == len(reportText) || reportText[i] == '\n' {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetCellValue(sheet, cell, reportText[start:i]); err != nil {
				return apperrors.NewExportError("failed to write report line", err)
			}
			row++
			start = i + 1
		}
	}
	return nil
}

// trialRowValues flattens a trial into export column order. Missing values
// stay nil so the cell comes out empty instead of a zero.
func trialRowValues(t trial.Trial) []interface{} {
	return []interface{}{
		string(t.ID), string(t.ParticipantID), string(t.Type), intOrNil(t.TargetIndex),
		floatOrNil(t.ReactionTime), floatOrNil(t.MovementTime), floatOrNil(t.PathLength),
		intOrNil(t.Age), strOrNil(t.AgeGroup), strOrNil(t.Gender), boolOrNil(t.HasGlasses), boolOrNil(t.HasAttentionDeficit),
		floatOrNil(t.Derived.AverageSpeed), floatOrNil(t.Derived.SpeedVariance), intOrNil(t.Derived.VelocityPeaks), floatOrNil(t.Derived.Jerk),
		floatOrNil(t.Derived.PathEfficiency), intOrNil(t.Derived.Corrections), floatOrNil(t.Derived.ConditionMeanRT),
	}
}

func floatOrNil(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func intOrNil(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func strOrNil(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func boolOrNil(v *bool) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
