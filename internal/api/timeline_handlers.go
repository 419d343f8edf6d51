package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/framecut/framecut-agent/internal/timeline"
)

// Timeline handlers translate frontend edit intents into editor operations.
// The editor resolves collisions and bounds itself, so a request that cannot
// apply cleanly comes back as applied=false rather than an error.

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		st := editor.State()
		WriteJSON(w, http.StatusOK, TimelineResponse{
			FPS:           st.FPS,
			Tracks:        editor.Tracks(),
			SelectedIDs:   st.SelectedIDs,
			PlayheadFrame: st.PlayheadFrame,
			CanUndo:       editor.CanUndo(),
			CanRedo:       editor.CanRedo(),
		})
	}
}

func insertClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req InsertClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		clip, placed := editor.InsertClip(timeline.Clip{
			Kind:           timeline.Kind(req.Kind),
			Row:            req.Row,
			StartFrame:     req.StartFrame,
			EndFrame:       req.EndFrame,
			Source:         req.Source,
			SourceDuration: req.EndFrame - req.StartFrame,
			Name:           req.Name,
			Text:           req.Text,
			SourcePresent:  true,
		})
		if !placed {
			WriteError(w, http.StatusBadRequest, "malformed clip", "BAD_REQUEST")
			return
		}
		WriteJSON(w, http.StatusCreated, clip)
	}
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req MoveClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		applied := editor.MoveClip(chi.URLParam(r, "id"), req.StartFrame)
		WriteJSON(w, http.StatusOK, OpResponse{Applied: applied})
	}
}

func moveClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req MoveClipsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		applied := editor.MoveClips(req.IDs, req.Delta)
		WriteJSON(w, http.StatusOK, OpResponse{Applied: applied})
	}
}

func resizeClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req ResizeClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		applied := editor.ResizeClip(chi.URLParam(r, "id"), timeline.ResizeRequest{
			NewStart: req.NewStart,
			NewEnd:   req.NewEnd,
		})
		WriteJSON(w, http.StatusOK, OpResponse{Applied: applied})
	}
}

func splitClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req SplitClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		clips, split := editor.SplitClipAt(chi.URLParam(r, "id"), req.Frame)
		if !split {
			WriteJSON(w, http.StatusOK, ClipsResponse{})
			return
		}
		WriteJSON(w, http.StatusOK, ClipsResponse{Clips: clips})
	}
}

func splitAtHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req SplitAtRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		count := editor.SplitAt(req.Frame, req.SelectionOnly)
		WriteJSON(w, http.StatusOK, CountResponse{Count: count})
	}
}

func duplicateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		clips, duplicated := editor.DuplicateClip(chi.URLParam(r, "id"))
		if !duplicated {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusCreated, ClipsResponse{Clips: clips})
	}
}

func linkClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req LinkClipsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		applied := editor.LinkClips(req.A, req.B)
		WriteJSON(w, http.StatusOK, OpResponse{Applied: applied})
	}
}

func unlinkClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		applied := editor.UnlinkClip(chi.URLParam(r, "id"))
		WriteJSON(w, http.StatusOK, OpResponse{Applied: applied})
	}
}

func updateClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req UpdateClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		id := chi.URLParam(r, "id")
		applied := false
		if req.Muted != nil {
			applied = editor.SetMuted(id, *req.Muted) || applied
		}
		if req.Hidden != nil {
			applied = editor.SetHidden(id, *req.Hidden) || applied
		}
		if req.Color != nil {
			applied = editor.SetColor(id, *req.Color) || applied
		}
		if req.Text != nil {
			applied = editor.SetText(id, *req.Text) || applied
		}
		if req.Name != nil {
			applied = editor.SetName(id, *req.Name) || applied
		}
		for k, v := range req.Props {
			applied = editor.SetProp(id, k, v) || applied
		}
		WriteJSON(w, http.StatusOK, OpResponse{Applied: applied})
	}
}

func deleteClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req ClipIDsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		count := editor.DeleteClips(req.IDs)
		WriteJSON(w, http.StatusOK, CountResponse{Count: count})
	}
}

func copyClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req ClipIDsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		count := editor.CopyClips(req.IDs)
		WriteJSON(w, http.StatusOK, CountResponse{Count: count})
	}
}

func cutClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req ClipIDsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		count := editor.CutClips(req.IDs)
		WriteJSON(w, http.StatusOK, CountResponse{Count: count})
	}
}

func pasteHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		clips := editor.Paste()
		WriteJSON(w, http.StatusOK, ClipsResponse{Clips: clips})
	}
}

func selectionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req ClipIDsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		editor.Select(req.IDs)
		w.WriteHeader(http.StatusNoContent)
	}
}

func playheadHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req PlayheadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		editor.SetPlayhead(req.Frame)
		w.WriteHeader(http.StatusNoContent)
	}
}

func snappingHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req SnappingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		editor.SetSnapping(req.Enabled)
		w.WriteHeader(http.StatusNoContent)
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, OpResponse{Applied: editor.Undo()})
	}
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, OpResponse{Applied: editor.Redo()})
	}
}

func beginGroupHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		var req GroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Name == "" {
			req.Name = "edit"
		}
		editor.BeginGroup(req.Name)
		w.WriteHeader(http.StatusNoContent)
	}
}

func endGroupHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		editor, ok := openEditor(cfg, w)
		if !ok {
			return
		}
		WriteJSON(w, http.StatusOK, OpResponse{Applied: editor.EndGroup()})
	}
}
