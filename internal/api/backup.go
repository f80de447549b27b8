package api

import (
	"net/http"

	"github.com/ernie/courtside/internal/domain"
	"github.com/ernie/courtside/internal/export"
)

// handleExport streams a versioned backup of both persisted documents.
// ?gzip=true compresses the payload.
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) {
	matches, err := r.store.GetCompletedMatches(req.Context(), domain.HistoryCap)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	doc, _ := r.controller.Snapshot()
	env := export.Build(doc, matches)

	compress := req.URL.Query().Get("gzip") == "true"
	filename := "courtside-backup.json"
	if compress {
		filename += ".gz"
		w.Header().Set("Content-Type", "application/gzip")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := export.Write(w, env, compress); err != nil {
		// Headers are gone at this point, just log-and-drop territory;
		// writeError would corrupt the stream anyway
		return
	}
}

// handleImport applies a backup envelope. The payload is validated in full
// before anything is written: a malformed backup changes nothing.
func (r *Router) handleImport(w http.ResponseWriter, req *http.Request) {
	env, err := export.Read(req.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summaries := make([]domain.CompletedMatchSummary, 0, len(env.CompletedMatches))
	for _, s := range env.CompletedMatches {
		if s.ID == "" || (s.WinnerID != domain.SlotA && s.WinnerID != domain.SlotB) {
			continue
		}
		summaries = append(summaries, s)
	}

	if err := r.store.ReplaceCompletedMatches(req.Context(), summaries); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	r.controller.Restore(env.MatchState)

	r.writeState(w)
}
