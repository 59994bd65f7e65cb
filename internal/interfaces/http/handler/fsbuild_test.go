package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	appfsbuild "github.com/cocursor/backend/internal/application/fsbuild"
	"github.com/cocursor/backend/internal/infrastructure/config"
	"github.com/cocursor/backend/internal/infrastructure/fsrt"
	"github.com/cocursor/backend/internal/infrastructure/websocket"
)

func newTestFSBuildHandler(t *testing.T) (*FSBuildHandler, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpDir := t.TempDir()
	db, err := sql.Open("sqlite", filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stamps, err := fsrt.NewStampStore(db)
	require.NoError(t, err)

	moduleDir := filepath.Join(tmpDir, "mod-a")
	require.NoError(t, os.MkdirAll(moduleDir, 0755))

	service := appfsbuild.NewService(
		appfsbuild.ProvideFSState(&config.FSBuildConfig{}),
		fsrt.NewTargetRegistry(nil),
		fsrt.NewRootIndex(),
		stamps,
		&fsrt.OSFileSystem{},
		fsrt.NewPersistence(tmpDir),
		websocket.NewHub(),
	)
	service.RegisterModule("mod-a", moduleDir)

	return NewFSBuildHandler(service), moduleDir
}

func TestFSBuildHandler_DirtySources_RequiresModule(t *testing.T) {
	h, _ := newTestFSBuildHandler(t)
	router := gin.New()
	router.GET("/fsbuild/dirty", h.DirtySources)

	req := httptest.NewRequest(http.MethodGet, "/fsbuild/dirty", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFSBuildHandler_HasWorkToDo(t *testing.T) {
	h, _ := newTestFSBuildHandler(t)
	router := gin.New()
	router.GET("/fsbuild/has-work", h.HasWorkToDo)

	req := httptest.NewRequest(http.MethodGet, "/fsbuild/has-work?module=mod-a", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			HasWorkToDo bool `json:"hasWorkToDo"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.HasWorkToDo, "a freshly registered module should still need its initial scan")
}

func TestFSBuildHandler_MarkAllUpToDate_InvalidBody(t *testing.T) {
	h, _ := newTestFSBuildHandler(t)
	router := gin.New()
	router.POST("/fsbuild/mark-up-to-date", h.MarkAllUpToDate)

	req := httptest.NewRequest(http.MethodPost, "/fsbuild/mark-up-to-date", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFSBuildHandler_HasUnprocessedChanges_RequiresParams(t *testing.T) {
	h, _ := newTestFSBuildHandler(t)
	router := gin.New()
	router.GET("/fsbuild/unprocessed-changes", h.HasUnprocessedChanges)

	req := httptest.NewRequest(http.MethodGet, "/fsbuild/unprocessed-changes?module=mod-a", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFSBuildHandler_HasUnprocessedChanges_OK(t *testing.T) {
	h, _ := newTestFSBuildHandler(t)
	router := gin.New()
	router.GET("/fsbuild/unprocessed-changes", h.HasUnprocessedChanges)

	buildStart := time.Now().UnixMilli()
	req := httptest.NewRequest(http.MethodGet,
		"/fsbuild/unprocessed-changes?module=mod-a&buildStartMillis="+strconv.FormatInt(buildStart, 10), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
