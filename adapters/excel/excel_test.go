package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"reachlab/domain/trial"
)

const sampleCSV = `trialId,participantId,trialType,targetIndex,reactionTime,movementTime,pathLength,movementPath,age,gender,hasGlasses,hasAttentionDeficit
t001,p01,PRE_SUPRA,0,312.5,450,845.2,"[{""x"":0,""y"":0,""t"":0},{""x"":100,""y"":50,""t"":120}]",22,Female,true,false
t002,p01,PRE_JND,1,358.1,,910.0,,22,Female,true,false
t003,p02,CONCURRENT_SUPRA,2,401.9,505,,"[]",30,Male,false,
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trials.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func TestDataReader_ReadTrialsCSV(t *testing.T) {
	reader := NewDataReader(writeSample(t))
	batch, err := reader.ReadTrials(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 3)

	first := batch[0]
	assert.Equal(t, "t001", string(first.ID))
	assert.Equal(t, "p01", string(first.ParticipantID))
	assert.Equal(t, trial.PreSupra, first.Type)
	require.NotNil(t, first.TargetIndex)
	assert.Equal(t, 0, *first.TargetIndex)
	require.NotNil(t, first.ReactionTime)
	assert.InDelta(t, 312.5, *first.ReactionTime, 1e-9)
	require.Len(t, first.MovementPath, 2)
	assert.InDelta(t, 120, first.MovementPath[1].T, 1e-9)
	require.NotNil(t, first.HasGlasses)
	assert.True(t, *first.HasGlasses)

	// Empty cells stay missing, never zero-filled.
	second := batch[1]
	assert.Nil(t, second.MovementTime)
	assert.Empty(t, second.MovementPath)

	third := batch[2]
	assert.Nil(t, third.PathLength)
	assert.Nil(t, third.HasAttentionDeficit)
}

func TestDataReader_CorruptPathCellKeepsRow(t *testing.T) {
	corrupt := `trialId,participantId,trialType,reactionTime,movementPath
t001,p01,PRE_SUPRA,312.5,"[{""x"":0,""y"":0,""t"":0},{""x"":100,""y"":50,""t"":120}]"
t002,p01,PRE_JND,358.1,not-json
t003,p02,CONCURRENT_SUPRA,401.9,"[]"
`
	path := filepath.Join(t.TempDir(), "corrupt.csv")
	require.NoError(t, os.WriteFile(path, []byte(corrupt), 0o644))

	batch, err := NewDataReader(path).ReadTrials(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 3)

	assert.Len(t, batch[0].MovementPath, 2)

	// The corrupt cell degrades to a missing path; its other columns load.
	assert.Nil(t, batch[1].MovementPath)
	require.NotNil(t, batch[1].ReactionTime)
	assert.InDelta(t, 358.1, *batch[1].ReactionTime, 1e-9)
}

func TestDataReader_ReadParticipants(t *testing.T) {
	reader := NewDataReader(writeSample(t))
	participants, err := reader.ReadParticipants(context.Background())
	require.NoError(t, err)
	require.Len(t, participants, 2, "demographics collapse to one row per participant")

	assert.Equal(t, "p01", string(participants[0].ID))
	require.NotNil(t, participants[0].Age)
	assert.Equal(t, 22, *participants[0].Age)
}

func TestDataReader_MissingRequiredColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("foo,bar\n1,2\n"), 0o644))

	_, err := NewDataReader(path).ReadTrials(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trialId")
}

func TestDataReader_FileNotFound(t *testing.T) {
	_, err := NewDataReader("/nonexistent/trials.csv").ReadTrials(context.Background())
	require.Error(t, err)
}

func TestWriter_ExportRoundTrip(t *testing.T) {
	eff := 0.82
	peaks := 2
	batch := trial.Batch{{
		ID:            "t001",
		ParticipantID: "p01",
		Type:          trial.PreSupra,
		ReactionTime:  floatPtr(312.5),
		Derived: trial.Derived{
			PathEfficiency: &eff,
			VelocityPeaks:  &peaks,
		},
	}}

	data, err := NewWriter().Export(context.Background(), batch, "REPORT LINE 1\nREPORT LINE 2")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Trials")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportHeaders, rows[0][:len(exportHeaders)])
	assert.Equal(t, "t001", rows[1][0])
	assert.Equal(t, "PRE_SUPRA", rows[1][2])

	report, err := f.GetRows("Report")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(report), 2)
	assert.Equal(t, "REPORT LINE 1", report[0][0])
}

func floatPtr(v float64) *float64 { return &v }
