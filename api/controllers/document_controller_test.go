package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/reasonableperson/etrial-manager/api/models"
)

type recordingReloader struct {
	mu      sync.Mutex
	reasons []string
}

func (r *recordingReloader) Reload(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func (r *recordingReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

// setupDocumentRouter creates a test router with the document endpoints
func setupDocumentRouter(t *testing.T) (*gin.Engine, *models.DocumentStore, *recordingReloader) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	store, err := models.NewDocumentStore(filepath.Join(dir, "docs"), filepath.Join(dir, "metadata.toml"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	reloader := &recordingReloader{}
	ctrl := NewDocumentController(store, reloader)

	router := gin.New()
	router.POST("/upload", ctrl.HandleUpload)
	router.POST("/documents/add", ctrl.HandleUpload)
	router.POST("/documents/:action/:row/:col", ctrl.HandleDocumentMatrix)
	router.POST("/users/:action/:row/:col", ctrl.HandleUserMatrix)
	router.POST("/publish/:hash/:group", ctrl.HandlePublish)
	router.POST("/delete/:hash", ctrl.HandleDelete)
	router.GET("/api/documents", ctrl.HandleList)
	return router, store, reloader
}

func post(router *gin.Engine, target, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/octet-stream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHandleUpload tests that raw bodies are stored under the decoded filename
func TestHandleUpload(t *testing.T) {
	router, store, reloader := setupDocumentRouter(t)

	w := post(router, "/upload?filename=witness%20statement.pdf", "statement body")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	w = post(router, "/documents/add?filename=exhibit.png", "png bytes")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	docs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[1].Title != "witness statement.pdf" {
		t.Errorf("Expected decoded title, got %q", docs[1].Title)
	}
	if reloader.count() != 0 {
		t.Errorf("Uploads should not trigger a reload on their own")
	}
}

func TestHandleUploadMissingFilename(t *testing.T) {
	router, _, _ := setupDocumentRouter(t)

	w := post(router, "/upload", "data")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

// TestDocumentActions tests the action endpoints and the reload they trigger
func TestDocumentActions(t *testing.T) {
	router, store, reloader := setupDocumentRouter(t)
	post(router, "/upload?filename=a.pdf", "a")
	docs, _ := store.List()
	hash := docs[0].Hash

	if w := post(router, "/publish/"+hash+"/jury", ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := post(router, "/documents/identify/"+hash+"/EX-7", ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	doc, _ := store.Get(hash)
	if len(doc.Published) != 1 || doc.Published[0] != "jury" || doc.Identifier != "EX-7" {
		t.Errorf("Unexpected document state: %+v", doc)
	}
	if w := post(router, "/documents/recall/"+hash+"/jury", ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := post(router, "/users/grant/alice/sftp", ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if reloader.count() != 4 {
		t.Errorf("Expected one reload per action, got %d", reloader.count())
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/documents", nil)
	router.ServeHTTP(w, req)
	var response struct {
		Data struct {
			Documents []struct {
				Hash      string   `json:"hash"`
				Published []string `json:"published"`
			} `json:"documents"`
			SFTPGrants []string `json:"sftpGrants"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(response.Data.Documents) != 1 || response.Data.Documents[0].Hash != hash {
		t.Errorf("Unexpected documents: %s", w.Body.String())
	}
	if len(response.Data.SFTPGrants) != 1 || response.Data.SFTPGrants[0] != "alice" {
		t.Errorf("Unexpected grants: %v", response.Data.SFTPGrants)
	}

	if w := post(router, "/delete/"+hash, ""); w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if w := post(router, "/delete/"+hash, ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for a deleted document, got %d", w.Code)
	}
}

func TestUnknownMatrixAction(t *testing.T) {
	router, _, reloader := setupDocumentRouter(t)

	if w := post(router, "/documents/shred/abc/x", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if w := post(router, "/users/promote/bob/x", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if reloader.count() != 0 {
		t.Errorf("Rejected actions must not reload")
	}
}
