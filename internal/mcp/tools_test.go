package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/keifu/internal/ledger"
	"github.com/ashita-ai/keifu/internal/model"
)

func newTestMCP(t *testing.T) *Server {
	t.Helper()
	store := ledger.New("DEC", nil)
	return New(store, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// toolRequest builds a CallToolRequest for the given tool and arguments.
func toolRequest(name string, args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// parseToolText extracts the first TextContent text from a CallToolResult.
func parseToolText(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no TextContent found in tool result")
	return ""
}

// mustRecord records a decision via the tool handler and returns its id.
func mustRecord(t *testing.T, s *Server, title string, args map[string]any) string {
	t.Helper()
	base := map[string]any{
		"title":          title,
		"decision":       "decision for " + title,
		"rationale":      "rationale for " + title,
		"decision_maker": "alice",
	}
	for k, v := range args {
		base[k] = v
	}
	result, err := s.handleRecord(context.Background(), toolRequest("keifu_record", base))
	require.NoError(t, err)
	require.False(t, result.IsError, parseToolText(t, result))

	var payload struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &payload))
	return payload.ID
}

func TestRecordTool(t *testing.T) {
	s := newTestMCP(t)

	id := mustRecord(t, s, "Adopt Postgres", map[string]any{
		"tags":    "storage, urgent",
		"context": "storage selection",
	})
	assert.Equal(t, "DEC-001", id)

	rec, err := s.store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"storage", "urgent"}, rec.Tags)
	assert.Equal(t, "storage selection", rec.Context)
}

func TestRecordTool_MissingRequired(t *testing.T) {
	s := newTestMCP(t)

	result, err := s.handleRecord(context.Background(), toolRequest("keifu_record", map[string]any{
		"title": "incomplete",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, parseToolText(t, result), "required")
}

func TestGetTool(t *testing.T) {
	s := newTestMCP(t)
	id := mustRecord(t, s, "Adopt Postgres", nil)

	result, err := s.handleGet(context.Background(), toolRequest("keifu_get", map[string]any{"id": id}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var rec model.Record
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &rec))
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "Adopt Postgres", rec.Title)
}

func TestGetTool_NotFound(t *testing.T) {
	s := newTestMCP(t)

	result, err := s.handleGet(context.Background(), toolRequest("keifu_get", map[string]any{"id": "DEC-999"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, parseToolText(t, result), "not found")
}

func TestOutcomeTool(t *testing.T) {
	s := newTestMCP(t)
	id := mustRecord(t, s, "Adopt Postgres", nil)

	result, err := s.handleOutcome(context.Background(), toolRequest("keifu_outcome", map[string]any{
		"id":      id,
		"outcome": "migration went smoothly",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	rec, err := s.store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "migration went smoothly", rec.Outcome)
}

func TestReverseTool(t *testing.T) {
	s := newTestMCP(t)
	id := mustRecord(t, s, "Adopt SQLite", map[string]any{"tags": "storage"})

	result, err := s.handleReverse(context.Background(), toolRequest("keifu_reverse", map[string]any{
		"id":             id,
		"reason":         "did not scale",
		"decision_maker": "bob",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, parseToolText(t, result))

	var payload struct {
		Reversed   string `json:"reversed"`
		ReversalID string `json:"reversal_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &payload))
	assert.Equal(t, id, payload.Reversed)
	assert.Equal(t, "DEC-002", payload.ReversalID)

	orig, err := s.store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReversed, orig.Status)
}

func TestQueryTool(t *testing.T) {
	s := newTestMCP(t)
	mustRecord(t, s, "Adopt Postgres", map[string]any{"tags": "storage,urgent"})
	mustRecord(t, s, "Pick gRPC", map[string]any{"tags": "transport"})

	result, err := s.handleQuery(context.Background(), toolRequest("keifu_query", map[string]any{
		"tags": "urgent",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload struct {
		Records []model.Record `json:"records"`
		Total   int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &payload))
	assert.Equal(t, 1, payload.Total)
	assert.Equal(t, "DEC-001", payload.Records[0].ID)
}

func TestQueryTool_InvalidStatus(t *testing.T) {
	s := newTestMCP(t)

	result, err := s.handleQuery(context.Background(), toolRequest("keifu_query", map[string]any{
		"status": "bogus",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, parseToolText(t, result), "invalid status")
}

func TestQueryTool_Limit(t *testing.T) {
	s := newTestMCP(t)
	for _, title := range []string{"a", "b", "c"} {
		mustRecord(t, s, title, nil)
	}

	result, err := s.handleQuery(context.Background(), toolRequest("keifu_query", map[string]any{
		"limit": 2,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &payload))
	assert.Equal(t, 2, payload.Total)
}

func TestLineageTool(t *testing.T) {
	s := newTestMCP(t)
	id := mustRecord(t, s, "Adopt SQLite", nil)
	_, err := s.handleReverse(context.Background(), toolRequest("keifu_reverse", map[string]any{
		"id":             id,
		"reason":         "changed course",
		"decision_maker": "bob",
	}))
	require.NoError(t, err)

	result, err := s.handleLineage(context.Background(), toolRequest("keifu_lineage", map[string]any{"id": id}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var payload struct {
		Chain []model.Record `json:"chain"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &payload))
	require.Len(t, payload.Chain, 2)
	assert.Equal(t, "DEC-001", payload.Chain[0].ID)
	assert.Equal(t, "DEC-002", payload.Chain[1].ID)
}

func TestReportTool(t *testing.T) {
	s := newTestMCP(t)
	mustRecord(t, s, "Adopt Postgres", nil)

	result, err := s.handleReport(context.Background(), toolRequest("keifu_report", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var report model.Report
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &report))
	assert.Equal(t, 1, report.Total)
	require.Len(t, report.Active, 1)
	assert.Equal(t, "DEC-001", report.Active[0].ID)
}

func TestSplitTags(t *testing.T) {
	assert.Nil(t, splitTags(""))
	assert.Equal(t, []string{"a"}, splitTags("a"))
	assert.Equal(t, []string{"a", "b"}, splitTags("a, b"))
	assert.Equal(t, []string{"a", "b"}, splitTags("a,,b,"))
}
