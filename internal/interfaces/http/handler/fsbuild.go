package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appfsbuild "github.com/cocursor/backend/internal/application/fsbuild"
	"github.com/cocursor/backend/internal/interfaces/http/response"
)

// FSBuildHandler exposes the file-system build state over HTTP.
type FSBuildHandler struct {
	service *appfsbuild.Service
}

// NewFSBuildHandler creates the handler.
func NewFSBuildHandler(service *appfsbuild.Service) *FSBuildHandler {
	return &FSBuildHandler{service: service}
}

// DirtySources returns moduleName's pending recompile entries.
// @Summary List dirty sources
// @Tags fsbuild
// @Produce json
// @Param module query string true "module name"
// @Success 200 {object} response.Response
// @Router /fsbuild/dirty [get]
func (h *FSBuildHandler) DirtySources(c *gin.Context) {
	module := c.Query("module")
	if module == "" {
		response.Error(c, http.StatusBadRequest, 110001, "module is required")
		return
	}
	response.Success(c, h.service.ListDirtySources(module))
}

// HasWorkToDo reports whether moduleName still needs scanning or has
// pending changes.
// @Summary Check for pending work
// @Tags fsbuild
// @Produce json
// @Param module query string true "module name"
// @Success 200 {object} response.Response
// @Router /fsbuild/has-work [get]
func (h *FSBuildHandler) HasWorkToDo(c *gin.Context) {
	module := c.Query("module")
	if module == "" {
		response.Error(c, http.StatusBadRequest, 110001, "module is required")
		return
	}
	response.Success(c, gin.H{"hasWorkToDo": h.service.HasWorkToDo(module)})
}

type markUpToDateRequest struct {
	Module     string `json:"module" binding:"required"`
	BuildStart int64  `json:"buildStartMillis" binding:"required"`
}

// MarkAllUpToDate reconciles a module's recompile entries after a build.
// @Summary Mark a module up to date
// @Tags fsbuild
// @Accept json
// @Produce json
// @Param body body markUpToDateRequest true "build window"
// @Success 200 {object} response.Response
// @Router /fsbuild/mark-up-to-date [post]
func (h *FSBuildHandler) MarkAllUpToDate(c *gin.Context) {
	var req markUpToDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 110001, "invalid request body")
		return
	}

	committed, err := h.service.MarkAllUpToDate(req.Module, time.UnixMilli(req.BuildStart))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 110002, "failed to reconcile module state")
		return
	}
	response.Success(c, gin.H{"committed": committed})
}

// HasUnprocessedChanges reports whether a module received changes after a
// given build started that build wouldn't have seen.
// @Summary Check for changes arriving after a build started
// @Tags fsbuild
// @Produce json
// @Param module query string true "module name"
// @Param buildStartMillis query int true "build start, epoch millis"
// @Success 200 {object} response.Response
// @Router /fsbuild/unprocessed-changes [get]
func (h *FSBuildHandler) HasUnprocessedChanges(c *gin.Context) {
	module := c.Query("module")
	buildStartMillis := c.Query("buildStartMillis")
	if module == "" || buildStartMillis == "" {
		response.Error(c, http.StatusBadRequest, 110001, "module and buildStartMillis are required")
		return
	}

	var buildStart int64
	if _, err := fmt.Sscan(buildStartMillis, &buildStart); err != nil {
		response.Error(c, http.StatusBadRequest, 110001, "buildStartMillis must be an integer")
		return
	}

	has, err := h.service.HasUnprocessedChanges(module, time.UnixMilli(buildStart))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 110002, "failed to check for unprocessed changes")
		return
	}
	response.Success(c, gin.H{"hasUnprocessedChanges": has})
}

type runBuildRequest struct {
	Module string `json:"module" binding:"required"`
}

// RunBuild drives a full multi-round compilation pass over a module's
// production and test targets and reconciles every root as up to date.
// @Summary Run a multi-round build for a module
// @Tags fsbuild
// @Accept json
// @Produce json
// @Param body body runBuildRequest true "module to build"
// @Success 200 {object} response.Response
// @Router /fsbuild/run-build [post]
func (h *FSBuildHandler) RunBuild(c *gin.Context) {
	var req runBuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, 110001, "invalid request body")
		return
	}

	result, err := h.service.RunBuild(req.Module, nil)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 110002, "failed to run build")
		return
	}
	response.Success(c, result)
}
