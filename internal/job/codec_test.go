package job

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCodec_RoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	data := json.RawMessage(`{"output_path":"/banks/Kasane","samples":128,"manifest":{"encoding":"shift-jis"}}`)

	j := &Job{
		ID:     "0b5e3c8e-1d36-4a4e-9f0f-7b1f0f2a6c11",
		Type:   TypeVoicebankGeneration,
		Status: StatusCompleted,
		Params: Params{
			Generation: &GenerationParams{
				SessionID:      "session-001",
				OutputName:     "Kasane",
				IncludeSamples: true,
				Encoding:       EncodingShiftJIS,
				NotifyEmail:    "singer@example.com",
			},
		},
		Progress:  &Progress{Percent: 100, Message: "packaging voicebank", UpdatedAt: created.Add(time.Minute)},
		Result:    &Result{Success: true, Data: data},
		Attempts:  2,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
	}

	encoded, err := encodeJob(j)
	require.NoError(t, err)

	decoded, err := decodeJob(encoded)
	require.NoError(t, err)
	assert.Equal(t, j, decoded)

	// Result data must survive byte-for-byte as submitted, not reshaped.
	assert.JSONEq(t, string(data), string(decoded.Result.Data))
}

func TestJobCodec_DecodeMalformed(t *testing.T) {
	_, err := decodeJob([]byte(`{"id": "truncated`))
	assert.Error(t, err)
}

func TestProgressCodec_RoundTrip(t *testing.T) {
	p := &Progress{
		Percent:   37.5,
		Message:   "aligning samples",
		UpdatedAt: time.Date(2026, 3, 14, 9, 28, 0, 0, time.UTC),
	}

	encoded, err := encodeProgress(p)
	require.NoError(t, err)

	decoded, err := decodeProgress(encoded)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}
