package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"draftstore/pkg/media"
	"draftstore/pkg/store"
	"draftstore/pkg/transfer"
	"draftstore/pkg/utils"
	"draftstore/pkg/validation"
)

// Deps carries the non-global collaborators handlers need.
type Deps struct {
	Media    *media.Store
	Transfer *transfer.Transfer
}

// RegisterDrafts registers all draft-related HTTP routes on the provided
// router.
func RegisterDrafts(r *mux.Router, deps Deps) {
	r.HandleFunc("/drafts", listDrafts).Methods(http.MethodGet)
	r.HandleFunc("/drafts/{id}", getDraft).Methods(http.MethodGet)
	r.HandleFunc("/drafts/{id}", deleteDraft(deps)).Methods(http.MethodDelete)
	r.HandleFunc("/drafts/{id}/name", updateDraftName).Methods(http.MethodPut)
	r.HandleFunc("/stats", stats).Methods(http.MethodGet)
}

// listDrafts handles GET /drafts to retrieve every saved draft. The
// optional "mode" query parameter filters by origin mode.
func listDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := store.ListDrafts()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if mode := r.URL.Query().Get("mode"); mode != "" {
		filtered := drafts[:0]
		for _, d := range drafts {
			if d.Mode == mode {
				filtered = append(filtered, d)
			}
		}
		drafts = filtered
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"drafts": drafts})
}

// getDraft handles GET /drafts/{id}. The optional "mode" query parameter
// scopes the lookup the same way the session controller does.
func getDraft(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, err := store.GetDraftByID(id, r.URL.Query().Get("mode"))
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if d == nil {
		utils.JSONError(w, http.StatusNotFound, "draft not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, d)
}

// deleteDraft handles DELETE /drafts/{id}. With ?keep_files=true only the
// metadata record is removed and media files stay on disk.
func deleteDraft(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		keep, _ := strconv.ParseBool(r.URL.Query().Get("keep_files"))
		if err := store.DeleteDraft(id, keep); err != nil {
			utils.JSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !keep {
			deps.Media.DeleteDraftTree(id)
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"deleted": id})
	}
}

// updateDraftName handles PUT /drafts/{id}/name.
func updateDraftName(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Name string `json:"name"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateDraftName(body.Name); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := store.UpdateDraftName(id, body.Name); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"id": id, "name": body.Name})
}

// stats handles GET /stats with store-level counters for diagnostics.
func stats(w http.ResponseWriter, r *http.Request) {
	drafts, err := store.ListDrafts()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	segs := 0
	for _, d := range drafts {
		segs += len(d.Segments)
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"drafts":        len(drafts),
		"segments":      segs,
		"db_size_bytes": store.DiskUsageBytes(),
	})
}
