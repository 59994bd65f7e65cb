package mcp

import (
	"context"
	"time"

	appfsbuild "github.com/cocursor/backend/internal/application/fsbuild"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListDirtySourcesInput is the input for list_dirty_sources.
type ListDirtySourcesInput struct {
	Module string `json:"module" jsonschema:"module name to query"`
}

// ListDirtySourcesOutput is the output for list_dirty_sources.
type ListDirtySourcesOutput struct {
	Sources []appfsbuild.DirtySource `json:"sources"`
	Count   int                      `json:"count"`
}

func (s *MCPServer) listDirtySourcesTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListDirtySourcesInput,
) (*mcp.CallToolResult, ListDirtySourcesOutput, error) {
	sources := s.fsbuildService.ListDirtySources(input.Module)
	return nil, ListDirtySourcesOutput{Sources: sources, Count: len(sources)}, nil
}

// HasWorkToDoInput is the input for has_work_to_do.
type HasWorkToDoInput struct {
	Module string `json:"module" jsonschema:"module name to query"`
}

// HasWorkToDoOutput is the output for has_work_to_do.
type HasWorkToDoOutput struct {
	HasWorkToDo bool `json:"has_work_to_do"`
}

func (s *MCPServer) hasWorkToDoTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input HasWorkToDoInput,
) (*mcp.CallToolResult, HasWorkToDoOutput, error) {
	return nil, HasWorkToDoOutput{HasWorkToDo: s.fsbuildService.HasWorkToDo(input.Module)}, nil
}

// MarkAllUpToDateInput is the input for mark_all_up_to_date.
type MarkAllUpToDateInput struct {
	Module            string `json:"module" jsonschema:"module name"`
	BuildStartMillis  int64  `json:"build_start_millis" jsonschema:"build start time, epoch milliseconds"`
}

// MarkAllUpToDateOutput is the output for mark_all_up_to_date.
type MarkAllUpToDateOutput struct {
	Committed bool `json:"committed"`
}

func (s *MCPServer) markAllUpToDateTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input MarkAllUpToDateInput,
) (*mcp.CallToolResult, MarkAllUpToDateOutput, error) {
	committed, err := s.fsbuildService.MarkAllUpToDate(input.Module, time.UnixMilli(input.BuildStartMillis))
	if err != nil {
		return nil, MarkAllUpToDateOutput{}, err
	}
	return nil, MarkAllUpToDateOutput{Committed: committed}, nil
}

// HasUnprocessedChangesInput is the input for has_unprocessed_changes.
type HasUnprocessedChangesInput struct {
	Module           string `json:"module" jsonschema:"module name"`
	BuildStartMillis int64  `json:"build_start_millis" jsonschema:"build start time, epoch milliseconds"`
}

// HasUnprocessedChangesOutput is the output for has_unprocessed_changes.
type HasUnprocessedChangesOutput struct {
	HasUnprocessedChanges bool `json:"has_unprocessed_changes"`
}

func (s *MCPServer) hasUnprocessedChangesTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input HasUnprocessedChangesInput,
) (*mcp.CallToolResult, HasUnprocessedChangesOutput, error) {
	has, err := s.fsbuildService.HasUnprocessedChanges(input.Module, time.UnixMilli(input.BuildStartMillis))
	if err != nil {
		return nil, HasUnprocessedChangesOutput{}, err
	}
	return nil, HasUnprocessedChangesOutput{HasUnprocessedChanges: has}, nil
}

// RunBuildInput is the input for run_build.
type RunBuildInput struct {
	Module string `json:"module" jsonschema:"module name to build"`
}

// RunBuildOutput is the output for run_build.
type RunBuildOutput struct {
	Rounds       int  `json:"rounds"`
	FilesVisited int  `json:"files_visited"`
	Committed    bool `json:"committed"`
}

func (s *MCPServer) runBuildTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RunBuildInput,
) (*mcp.CallToolResult, RunBuildOutput, error) {
	result, err := s.fsbuildService.RunBuild(input.Module, nil)
	if err != nil {
		return nil, RunBuildOutput{}, err
	}
	return nil, RunBuildOutput{
		Rounds:       result.Rounds,
		FilesVisited: result.FilesVisited,
		Committed:    result.Committed,
	}, nil
}
