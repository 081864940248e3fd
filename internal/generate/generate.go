// Package generate defines the port to the voicebank generation algorithm.
// The algorithm itself (alignment, audio synthesis) is an external
// collaborator; it consumes this subsystem only through the progress callback
// and hands back a result blob.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"voicegen/internal/job"
)

// ProgressFunc is the synchronous (percent, message) callback contract the
// generation algorithm reports through.
type ProgressFunc func(percent float64, message string)

// Generator runs a voicebank generation task to completion.
type Generator interface {
	Generate(ctx context.Context, params *job.GenerationParams, progress ProgressFunc) (json.RawMessage, error)
}

// SimulatedGenerator is a stand-in implementation that walks through the
// generation stages on a timer. It keeps the worker wiring runnable without
// the real synthesis engine.
type SimulatedGenerator struct {
	StepDelay time.Duration
}

var _ Generator = (*SimulatedGenerator)(nil)

var simulatedStages = []struct {
	percent float64
	message string
}{
	{5, "loading session"},
	{25, "aligning samples"},
	{60, "rendering audio"},
	{85, "writing metadata"},
	{100, "packaging voicebank"},
}

// Generate steps through the simulated stages, reporting progress at each one.
func (g *SimulatedGenerator) Generate(ctx context.Context, params *job.GenerationParams, progress ProgressFunc) (json.RawMessage, error) {
	delay := g.StepDelay
	if delay <= 0 {
		delay = time.Second
	}

	for _, stage := range simulatedStages {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("generation canceled: %w", ctx.Err())
		case <-time.After(delay):
		}
		progress(stage.percent, stage.message)
	}

	outputPath := params.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join("output", params.OutputName)
	}

	data, err := json.Marshal(map[string]any{
		"output_name": params.OutputName,
		"output_path": outputPath,
		"encoding":    params.Encoding,
		"samples":     params.IncludeSamples,
		"metadata":    params.IncludeMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation result: %w", err)
	}
	return data, nil
}
