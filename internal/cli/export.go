package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/framecut/framecut-agent/internal/config"
	"github.com/framecut/framecut-agent/internal/db"
	"github.com/framecut/framecut-agent/internal/export"
	"github.com/framecut/framecut-agent/internal/logging"
	"github.com/framecut/framecut-agent/internal/project"
	"github.com/framecut/framecut-agent/internal/timeline"
)

var (
	exportProjectID string
	exportFormat    string
	exportOutDir    string
	exportKind      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a project timeline as an EDL or JSON cutlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger := logging.NewLogger("error")

		format := strings.ToLower(exportFormat)
		if format != "edl" && format != "cutlist" {
			return fmt.Errorf("format must be edl or cutlist")
		}
		if err := export.ValidateOutputDir(exportOutDir); err != nil {
			return err
		}

		database, err := db.New(cfg.DBPath(), logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		repo := project.NewRepository(database.Conn())
		projects := project.NewService(repo, project.EditorOptions{
			UndoDepth:        cfg.UndoDepth(),
			SnapThreshold:    cfg.SnapThreshold(),
			SnapEnabled:      true,
			DefaultFrameRate: cfg.FrameRate(),
		}, logger)

		ctx := cmd.Context()
		id := exportProjectID
		if id == "" {
			id, err = mostRecentProjectID(ctx, projects)
			if err != nil {
				return err
			}
		}

		p, err := projects.Open(ctx, id)
		if err != nil {
			return fmt.Errorf("cannot open project: %w", err)
		}
		_, editor := projects.Current()

		title := export.SanitizeName(p.Name, 120)
		if title == "" {
			title = "framecut_export"
		}

		tracks := editor.Tracks()
		fps := editor.FPS()

		var content string
		var unresolved []string
		var ext string

		switch format {
		case "edl":
			kind := timeline.Kind(exportKind)
			if !kind.Valid() {
				return fmt.Errorf("unknown clip kind %q", exportKind)
			}
			cuts, missing := export.BuildCuts(tracks, kind, fps)
			if len(cuts) == 0 {
				return fmt.Errorf("timeline has no exportable cuts")
			}
			content = export.GenerateEDL(cuts, title, fps)
			unresolved = missing
			ext = ".edl"
		case "cutlist":
			content, unresolved, err = export.GenerateCutlist(tracks, title, fps)
			if err != nil {
				return err
			}
			ext = ".json"
		}

		outputPath := filepath.Join(exportOutDir, title+ext)
		if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("cannot write export file: %w", err)
		}

		fmt.Printf("Exported %s to %s\n", p.Name, outputPath)
		if len(unresolved) > 0 {
			fmt.Printf("Warning: %d clips have missing source media\n", len(unresolved))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportProjectID, "project", "", "project ID (defaults to the most recently updated project)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "edl", "export format: edl or cutlist")
	exportCmd.Flags().StringVar(&exportOutDir, "out", ".", "output directory")
	exportCmd.Flags().StringVar(&exportKind, "kind", "video", "clip kind to export in EDL mode")
}

func mostRecentProjectID(ctx context.Context, projects *project.Service) (string, error) {
	list, err := projects.List(ctx)
	if err != nil {
		return "", fmt.Errorf("cannot list projects: %w", err)
	}
	if len(list) == 0 {
		return "", fmt.Errorf("no projects found")
	}
	return list[0].ID, nil
}
