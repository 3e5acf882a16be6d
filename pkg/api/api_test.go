package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"draftstore/pkg/api/handlers"
	"draftstore/pkg/media"
	"draftstore/pkg/models"
	"draftstore/pkg/store"
	"draftstore/pkg/transfer"
)

func newServer(t *testing.T) (*httptest.Server, *media.Store) {
	t.Helper()
	dir := t.TempDir()
	m, err := media.NewStore(filepath.Join(dir, "media"))
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	if err := store.Open(filepath.Join(dir, "db")); err != nil {
		t.Fatalf("store open: %v", err)
	}
	store.Bind(m.Resolver(), m)
	h := Handler(Options{
		Deps: handlers.Deps{Media: m, Transfer: transfer.New(m)},
	})
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		_ = store.Close()
	})
	return srv, m
}

func seed(t *testing.T, mode, name string) string {
	t.Helper()
	id, err := store.SaveDraft(nil, 60, mode, store.SaveOpts{Name: name})
	if err != nil {
		t.Fatalf("seed draft: %v", err)
	}
	return id
}

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestListDraftsModeFilter(t *testing.T) {
	srv, _ := newServer(t)
	seed(t, models.ModeCapture, "a")
	seed(t, models.ModeUpload, "b")

	resp, err := http.Get(srv.URL + "/v1/drafts?mode=capture")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Drafts []models.Draft `json:"drafts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Drafts) != 1 || body.Drafts[0].Mode != models.ModeCapture {
		t.Fatalf("filter failed: %+v", body.Drafts)
	}
}

func TestGetDraft(t *testing.T) {
	srv, _ := newServer(t)
	id := seed(t, models.ModeCapture, "mine")

	resp, err := http.Get(srv.URL + "/v1/drafts/" + id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var d models.Draft
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.ID != id || d.Name != "mine" {
		t.Fatalf("wrong draft: %+v", d)
	}

	resp2, err := http.Get(srv.URL + "/v1/drafts/draft-nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("missing draft status %d", resp2.StatusCode)
	}
}

func TestDeleteDraft(t *testing.T) {
	srv, _ := newServer(t)
	id := seed(t, models.ModeCapture, "gone")

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/drafts/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if d, _ := store.GetDraftByID(id, ""); d != nil {
		t.Fatalf("draft survived delete")
	}
}

func TestUpdateDraftName(t *testing.T) {
	srv, _ := newServer(t)
	id := seed(t, models.ModeCapture, "old")

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/drafts/"+id+"/name",
		strings.NewReader(`{"name":"new"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	d, _ := store.GetDraftByID(id, "")
	if d.Name != "new" {
		t.Fatalf("name not updated: %q", d.Name)
	}

	// unknown fields are rejected
	req2, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/drafts/"+id+"/name",
		strings.NewReader(`{"name":"x","bogus":1}`))
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status %d", resp2.StatusCode)
	}
}

func TestStats(t *testing.T) {
	srv, _ := newServer(t)
	seed(t, models.ModeCapture, "one")

	resp, err := http.Get(srv.URL + "/v1/stats")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["drafts"].(float64) != 1 {
		t.Fatalf("stats: %+v", body)
	}
}
