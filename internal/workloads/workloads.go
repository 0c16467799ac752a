package workloads

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/jobs"
)

// Job types handled by the rendering pipeline.
const (
	TypeVideoComposition  = "video_composition"
	TypeEffectApplication = "effect_application"
	TypeAudioSync         = "audio_sync"
	TypeAIGeneration      = "ai_generation"
)

// RegisterAll wires every rendering workload into the handler registry.
func RegisterAll(registry *jobs.HandlerRegistry) error {
	handlers := map[string]jobs.Handler{
		TypeVideoComposition:  ComposeVideo,
		TypeEffectApplication: ApplyEffects,
		TypeAudioSync:         SyncAudio,
		TypeAIGeneration:      GenerateScenes,
	}
	for jobType, h := range handlers {
		if err := registry.Register(jobType, h); err != nil {
			return err
		}
	}
	return nil
}

// runStages executes a fixed number of pipeline stages, checking
// cancellation between stages and reporting progress after each one.
// Handlers must stay cooperative: the scheduler only ever signals through
// ctx and relies on the handler to unwind.
func runStages(ctx context.Context, stages int, stageDuration time.Duration) error {
	for i := 0; i < stages; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(stageDuration):
		}
		jobs.ReportProgress(ctx, float64(i+1)/float64(stages))
	}
	return nil
}

// ComposeVideo assembles scene clips into a single video track.
func ComposeVideo(ctx context.Context, input, output map[string]any) (map[string]any, error) {
	clips, ok := input["clips"].([]any)
	if !ok || len(clips) == 0 {
		return nil, fmt.Errorf("video composition requires a non-empty clips list")
	}

	zap.S().Named("workloads").Debugw("composing video", "clips", len(clips))
	if err := runStages(ctx, len(clips), 50*time.Millisecond); err != nil {
		return nil, err
	}

	return map[string]any{
		"output_path": outputPath(output, "composed.mp4"),
		"clip_count":  len(clips),
	}, nil
}

// ApplyEffects applies a chain of visual effects to a rendered track.
func ApplyEffects(ctx context.Context, input, output map[string]any) (map[string]any, error) {
	effects, ok := input["effects"].([]any)
	if !ok || len(effects) == 0 {
		return nil, fmt.Errorf("effect application requires a non-empty effects list")
	}

	if err := runStages(ctx, len(effects), 30*time.Millisecond); err != nil {
		return nil, err
	}

	return map[string]any{
		"output_path":     outputPath(output, "effects.mp4"),
		"applied_effects": len(effects),
	}, nil
}

// SyncAudio aligns an audio track with the video timeline.
func SyncAudio(ctx context.Context, input, output map[string]any) (map[string]any, error) {
	if _, ok := input["audio_path"].(string); !ok {
		return nil, fmt.Errorf("audio sync requires an audio_path")
	}

	if err := runStages(ctx, 4, 40*time.Millisecond); err != nil {
		return nil, err
	}

	return map[string]any{
		"output_path": outputPath(output, "synced.mp4"),
	}, nil
}

// GenerateScenes produces scene descriptions through the upstream AI
// service. The call is simulated here; the real client is injected at the
// service boundary.
func GenerateScenes(ctx context.Context, input, output map[string]any) (map[string]any, error) {
	prompt, ok := input["prompt"].(string)
	if !ok || prompt == "" {
		return nil, fmt.Errorf("scene generation requires a prompt")
	}

	if err := runStages(ctx, 3, 100*time.Millisecond); err != nil {
		return nil, err
	}

	return map[string]any{
		"scenes": []string{"intro", "body", "outro"},
		"prompt": prompt,
	}, nil
}

func outputPath(output map[string]any, fallback string) string {
	if p, ok := output["path"].(string); ok && p != "" {
		return p
	}
	return fallback
}
