package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/framecut/framecut-agent/internal/config"
	"github.com/framecut/framecut-agent/internal/logging"
	"github.com/framecut/framecut-agent/internal/media"
	"github.com/framecut/framecut-agent/internal/pipelines"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check media tooling and pipeline dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger := logging.NewLogger("error")

		fmt.Println("Checking media tooling...")
		fmt.Println()

		if _, err := media.NewExecFFmpeg(logger); err != nil {
			fmt.Println("✗ ffmpeg/ffprobe: NOT FOUND")
			fmt.Println("  media import and audio extraction will be unavailable")
		} else {
			fmt.Println("✓ ffmpeg/ffprobe: found")
		}
		fmt.Println()

		pipeCfg := pipelines.DefaultConfig(cfg.DataDir(), logger)
		pipeCfg.PythonPath = cfg.PipelinesPython()
		pipeCfg.ModuleName = cfg.PipelinesModule()

		runner, err := pipelines.NewRunner(pipeCfg)
		if err != nil {
			fmt.Println("✗ python pipelines: NOT AVAILABLE")
			fmt.Printf("  %v\n", err)
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.PipelinesTimeoutDoctor())
		defer cancel()

		caps, err := runner.RunDoctor(ctx)
		if err != nil {
			fmt.Println("✗ pipeline doctor probe failed")
			fmt.Printf("  %v\n", err)
			return nil
		}

		fmt.Printf("Pipeline package %s (python %s)\n", caps.PackageVersion, caps.Python.Version)
		fmt.Printf("  waveform:    %s\n", checkmark(caps.HasWaveform))
		fmt.Printf("  transcribe:  %s\n", checkmark(caps.HasTranscribe))
		fmt.Printf("  cuda:        %s\n", checkmark(caps.GPU.CUDAAvailable))
		fmt.Printf("  deps:        %d/%d available\n", caps.Summary.Available, caps.Summary.Total)
		fmt.Println()

		names := make([]string, 0, len(caps.Dependencies))
		for name := range caps.Dependencies {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			dep := caps.Dependencies[name]
			if dep.Available {
				fmt.Printf("  ✓ %s %s\n", name, dep.Version)
			} else {
				fmt.Printf("  ✗ %s\n", name)
			}
		}
		return nil
	},
}

func checkmark(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}
