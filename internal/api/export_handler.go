package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/framecut/framecut-agent/internal/export"
	"github.com/framecut/framecut-agent/internal/timeline"
)

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		format := strings.ToLower(req.Format)
		if format != "edl" && format != "cutlist" {
			WriteError(w, http.StatusBadRequest, "format must be edl or cutlist", "BAD_REQUEST")
			return
		}

		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		p, editor := cfg.Projects.Current()
		if p == nil {
			WriteError(w, http.StatusConflict, "no project open", "NO_PROJECT")
			return
		}

		title := export.SanitizeName(p.Name, 120)
		if title == "" {
			title = "framecut_export"
		}

		tracks := editor.Tracks()
		fps := editor.FPS()

		var content string
		var unresolved []string
		var ext string
		var cutCount int

		switch format {
		case "edl":
			kind := timeline.KindVideo
			if req.Kind != "" {
				kind = timeline.Kind(req.Kind)
				if !kind.Valid() {
					WriteError(w, http.StatusBadRequest, "unknown clip kind", "BAD_REQUEST")
					return
				}
			}
			cuts, missing := export.BuildCuts(tracks, kind, fps)
			if len(cuts) == 0 {
				WriteError(w, http.StatusUnprocessableEntity, "no exportable cuts", "UNRESOLVABLE_CLIPS")
				return
			}
			content = export.GenerateEDL(cuts, title, fps)
			unresolved = missing
			cutCount = len(cuts)
			ext = ".edl"

		case "cutlist":
			var err error
			content, unresolved, err = export.GenerateCutlist(tracks, title, fps)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
				return
			}
			cuts, _ := export.BuildCuts(tracks, timeline.KindVideo, fps)
			cutCount = len(cuts)
			ext = ".json"
		}

		outputPath := filepath.Join(req.OutputDir, title+ext)
		if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		if unresolved == nil {
			unresolved = []string{}
		}
		WriteJSON(w, http.StatusOK, export.Response{
			Status:          "ok",
			Format:          format,
			OutputPath:      outputPath,
			CutCount:        cutCount,
			UnresolvedClips: unresolved,
		})
	}
}
