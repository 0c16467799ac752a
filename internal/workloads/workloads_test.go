package workloads

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/jobs"
)

func TestRegisterAll(t *testing.T) {
	registry := jobs.NewHandlerRegistry()
	require.NoError(t, RegisterAll(registry))

	for _, jobType := range []string{TypeVideoComposition, TypeEffectApplication, TypeAudioSync, TypeAIGeneration} {
		_, ok := registry.Get(jobType)
		assert.True(t, ok, "missing handler for %s", jobType)
	}

	// Double registration is rejected.
	assert.Error(t, RegisterAll(registry))
}

func TestComposeVideo(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		wantErr bool
	}{
		{
			name:    "missing clips",
			input:   map[string]any{},
			wantErr: true,
		},
		{
			name:    "empty clips",
			input:   map[string]any{"clips": []any{}},
			wantErr: true,
		},
		{
			name:  "two clips",
			input: map[string]any{"clips": []any{"a.mp4", "b.mp4"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ComposeVideo(context.Background(), tt.input, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "composed.mp4", result["output_path"])
			assert.Equal(t, 2, result["clip_count"])
		})
	}
}

func TestComposeVideoUsesConfiguredOutputPath(t *testing.T) {
	result, err := ComposeVideo(context.Background(),
		map[string]any{"clips": []any{"a.mp4"}},
		map[string]any{"path": "/renders/final.mp4"},
	)
	require.NoError(t, err)
	assert.Equal(t, "/renders/final.mp4", result["output_path"])
}

func TestApplyEffects(t *testing.T) {
	_, err := ApplyEffects(context.Background(), map[string]any{}, nil)
	assert.Error(t, err)

	result, err := ApplyEffects(context.Background(),
		map[string]any{"effects": []any{"blur", "fade"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result["applied_effects"])
	assert.Equal(t, "effects.mp4", result["output_path"])
}

func TestSyncAudio(t *testing.T) {
	_, err := SyncAudio(context.Background(), map[string]any{}, nil)
	assert.Error(t, err)

	result, err := SyncAudio(context.Background(),
		map[string]any{"audio_path": "voice.wav"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "synced.mp4", result["output_path"])
}

func TestGenerateScenes(t *testing.T) {
	_, err := GenerateScenes(context.Background(), map[string]any{"prompt": ""}, nil)
	assert.Error(t, err)

	result, err := GenerateScenes(context.Background(),
		map[string]any{"prompt": "a city at dawn"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a city at dawn", result["prompt"])
	assert.Len(t, result["scenes"], 3)
}

func TestWorkloadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ComposeVideo(ctx, map[string]any{"clips": []any{"a.mp4"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkloadReportsProgress(t *testing.T) {
	var reports []float64
	ctx := jobs.WithProgress(context.Background(), func(p float64) {
		reports = append(reports, p)
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := ApplyEffects(ctx, map[string]any{"effects": []any{"blur", "fade"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1}, reports)
}
