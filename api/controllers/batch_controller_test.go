package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reasonableperson/etrial-manager/api/models"
	"github.com/reasonableperson/etrial-manager/batch"
	"github.com/reasonableperson/etrial-manager/types"
)

type batchResponse struct {
	Data types.BatchInfo `json:"data"`
}

// setupBatchRouter creates a test router whose uploads block until release is
// closed or the task is cancelled.
func setupBatchRouter(t *testing.T) (*gin.Engine, chan struct{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	models.InitBatchRegistry(time.Minute)

	release := make(chan struct{})
	coordinator := batch.NewCoordinator(batch.UploaderFunc(func(ctx context.Context, file types.DroppedFile, progress batch.ProgressFunc) error {
		select {
		case <-release:
			progress(file.Size, file.Size)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}), batch.Config{})
	ctrl := NewBatchController(func(files []types.DroppedFile) *batch.Batch {
		b := coordinator.StartBatch(context.Background(), files)
		models.RegisterBatch(b)
		return b
	})

	router := gin.New()
	self := router.Group("/api/self/v1")
	{
		self.POST("/upload-batch", ctrl.UserUploadBatch)
		self.GET("/batch/:id", ctrl.UserGetBatch)
		self.POST("/batch/:id/cancel/:task", ctrl.UserCancelTask)
	}
	return router, release
}

func writeTempFiles(t *testing.T, names ...string) []types.FileInput {
	t.Helper()
	dir := t.TempDir()
	inputs := make([]types.FileInput, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, bytes.Repeat([]byte("x"), 2048), 0o644); err != nil {
			t.Fatal(err)
		}
		inputs = append(inputs, types.FileInput{Path: p})
	}
	return inputs
}

func getBatch(t *testing.T, router *gin.Engine, id string) types.BatchInfo {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/self/v1/batch/"+id, nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var response batchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return response.Data
}

// TestUserUploadBatch tests starting a batch, cancelling one task and
// completing the rest
func TestUserUploadBatch(t *testing.T) {
	router, release := setupBatchRouter(t)

	body, _ := json.Marshal(types.UploadBatchRequest{Files: writeTempFiles(t, "a.txt", "b.txt", "c.txt")})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/self/v1/upload-batch", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var started batchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &started); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	info := started.Data
	if info.Total != 3 || len(info.Tasks) != 3 {
		t.Fatalf("Expected 3 tasks, got %+v", info)
	}
	if info.Tasks[0].SizeLabel != "2 KiB" {
		t.Errorf("Expected size label 2 KiB, got %q", info.Tasks[0].SizeLabel)
	}

	cancelPath := "/api/self/v1/batch/" + info.ID + "/cancel/" + info.Tasks[0].ID
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, cancelPath, nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := getBatch(t, router, info.ID).Outstanding; got != 2 {
		t.Errorf("Expected 2 outstanding after cancel, got %d", got)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, cancelPath, nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 on second cancel, got %d", w.Code)
	}

	close(release)
	b, ok := models.LookupBatch(info.ID)
	if !ok {
		t.Fatal("Batch not registered")
	}
	select {
	case <-b.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Batch did not complete")
	}

	final := getBatch(t, router, info.ID)
	if !final.Complete || final.Outstanding != 0 {
		t.Errorf("Expected complete batch, got %+v", final)
	}
	if final.Tasks[0].State != "cancelled" || final.Tasks[1].State != "succeeded" {
		t.Errorf("Unexpected task states: %+v", final.Tasks)
	}
}

func TestUserUploadBatchMissingFile(t *testing.T) {
	router, _ := setupBatchRouter(t)

	body := []byte(`{"files":[{"path":"/definitely/not/here.txt"}]}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/self/v1/upload-batch", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestUserGetBatchUnknown(t *testing.T) {
	router, _ := setupBatchRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/self/v1/batch/nope", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
