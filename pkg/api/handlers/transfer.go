package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"draftstore/pkg/utils"
)

// RegisterTransfer registers the bundle export/import and backup routes.
func RegisterTransfer(r *mux.Router, deps Deps) {
	r.HandleFunc("/transfer/export", exportDrafts(deps)).Methods(http.MethodPost)
	r.HandleFunc("/transfer/import", importBundle(deps)).Methods(http.MethodPost)
	r.HandleFunc("/transfer/backup", fullBackup(deps)).Methods(http.MethodPost)
}

// exportDrafts handles POST /transfer/export. Body:
// {"draft_ids": [...], "out_path": "..."}.
func exportDrafts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			DraftIDs []string `json:"draft_ids"`
			OutPath  string   `json:"out_path"`
		}
		if err := utils.DecodeJSON(r, &body); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(body.DraftIDs) == 0 || body.OutPath == "" {
			utils.JSONError(w, http.StatusBadRequest, "draft_ids and out_path are required")
			return
		}
		p, err := deps.Transfer.ExportDrafts(body.DraftIDs, body.OutPath)
		if err != nil {
			utils.JSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"bundle": p})
	}
}

// importBundle handles POST /transfer/import. Body: {"bundle_path": "..."}.
func importBundle(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			BundlePath string `json:"bundle_path"`
		}
		if err := utils.DecodeJSON(r, &body); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.BundlePath == "" {
			utils.JSONError(w, http.StatusBadRequest, "bundle_path is required")
			return
		}
		ids, err := deps.Transfer.ImportBundle(body.BundlePath)
		if err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"imported": ids})
	}
}

// fullBackup handles POST /transfer/backup. Body: {"out_path": "..."}.
func fullBackup(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			OutPath string `json:"out_path"`
		}
		if err := utils.DecodeJSON(r, &body); err != nil {
			utils.JSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.OutPath == "" {
			utils.JSONError(w, http.StatusBadRequest, "out_path is required")
			return
		}
		p, err := deps.Transfer.ExportFullBackup(body.OutPath)
		if err != nil {
			utils.JSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"archive": p})
	}
}
