package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/keifu/internal/ledger"
	"github.com/ashita-ai/keifu/internal/model"
)

func (s *Server) registerTools() {
	// keifu_record: record a new decision.
	s.mcpServer.AddTool(
		mcplib.NewTool("keifu_record",
			mcplib.WithDescription("Record a decision with its rationale. Returns the assigned identifier."),
			mcplib.WithString("title", mcplib.Description("Short decision title"), mcplib.Required()),
			mcplib.WithString("decision", mcplib.Description("What was decided"), mcplib.Required()),
			mcplib.WithString("rationale", mcplib.Description("Why it was decided"), mcplib.Required()),
			mcplib.WithString("decision_maker", mcplib.Description("Who made the decision"), mcplib.Required()),
			mcplib.WithString("context", mcplib.Description("Surrounding context")),
			mcplib.WithString("tags", mcplib.Description("Comma-separated tags")),
		),
		s.handleRecord,
	)

	// keifu_get: fetch a single decision by id.
	s.mcpServer.AddTool(
		mcplib.NewTool("keifu_get",
			mcplib.WithDescription("Get a decision record by its identifier"),
			mcplib.WithString("id", mcplib.Description("Decision identifier, e.g. DEC-001"), mcplib.Required()),
		),
		s.handleGet,
	)

	// keifu_outcome: record what actually happened.
	s.mcpServer.AddTool(
		mcplib.NewTool("keifu_outcome",
			mcplib.WithDescription("Record the observed outcome of a decision. Overwrites any previous outcome."),
			mcplib.WithString("id", mcplib.Description("Decision identifier"), mcplib.Required()),
			mcplib.WithString("outcome", mcplib.Description("What actually happened"), mcplib.Required()),
		),
		s.handleOutcome,
	)

	// keifu_reverse: reverse an earlier decision.
	s.mcpServer.AddTool(
		mcplib.NewTool("keifu_reverse",
			mcplib.WithDescription("Reverse a decision. Creates a linked reversal record and marks the original as reversed."),
			mcplib.WithString("id", mcplib.Description("Decision identifier to reverse"), mcplib.Required()),
			mcplib.WithString("reason", mcplib.Description("Why the decision is being reversed"), mcplib.Required()),
			mcplib.WithString("decision_maker", mcplib.Description("Who is reversing it"), mcplib.Required()),
		),
		s.handleReverse,
	)

	// keifu_query: filtered search over the ledger.
	s.mcpServer.AddTool(
		mcplib.NewTool("keifu_query",
			mcplib.WithDescription("Query decisions with filters. All supplied filters must match; results are newest first."),
			mcplib.WithString("tags", mcplib.Description("Comma-separated tags; a record matches if it carries any of them")),
			mcplib.WithString("decision_maker", mcplib.Description("Exact decision maker")),
			mcplib.WithString("stakeholder", mcplib.Description("Stakeholder that must be listed on the record")),
			mcplib.WithString("status", mcplib.Description("Filter by status: active, superseded, or reversed")),
			mcplib.WithString("search", mcplib.Description("Case-insensitive substring over title, decision, and rationale")),
			mcplib.WithNumber("limit", mcplib.Description("Maximum results to return")),
		),
		s.handleQuery,
	)

	// keifu_lineage: full supersession chain for a decision.
	s.mcpServer.AddTool(
		mcplib.NewTool("keifu_lineage",
			mcplib.WithDescription("Get the full lineage of a decision: every predecessor and successor in its supersession chain, oldest first"),
			mcplib.WithString("id", mcplib.Description("Decision identifier"), mcplib.Required()),
		),
		s.handleLineage,
	)

	// keifu_report: ledger summary.
	s.mcpServer.AddTool(
		mcplib.NewTool("keifu_report",
			mcplib.WithDescription("Generate a summary report of the ledger: totals, status breakdown, active decisions, recent activity"),
		),
		s.handleReport,
	)
}

func (s *Server) handleRecord(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	title := request.GetString("title", "")
	decision := request.GetString("decision", "")
	rationale := request.GetString("rationale", "")
	maker := request.GetString("decision_maker", "")

	if title == "" || decision == "" || rationale == "" || maker == "" {
		return errorResult("title, decision, rationale, and decision_maker are required"), nil
	}

	rec, err := s.store.Record(title, decision, rationale, maker, ledger.RecordInput{
		Context: request.GetString("context", ""),
		Tags:    splitTags(request.GetString("tags", "")),
	})
	if err != nil {
		return errorResult(fmt.Sprintf("failed to record decision: %v", err)), nil
	}

	s.logger.Info("mcp: decision recorded", "id", rec.ID, "decision_maker", maker)

	resultData, _ := json.Marshal(map[string]any{
		"id":     rec.ID,
		"status": rec.Status,
	})
	return textResult(string(resultData)), nil
}

func (s *Server) handleGet(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return errorResult("id is required"), nil
	}

	rec, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return errorResult(fmt.Sprintf("decision %s not found", id)), nil
		}
		return errorResult(fmt.Sprintf("failed to get decision: %v", err)), nil
	}

	resultData, _ := json.MarshalIndent(rec, "", "  ")
	return textResult(string(resultData)), nil
}

func (s *Server) handleOutcome(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id := request.GetString("id", "")
	outcome := request.GetString("outcome", "")
	if id == "" || outcome == "" {
		return errorResult("id and outcome are required"), nil
	}

	if err := s.store.SetOutcome(id, outcome); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return errorResult(fmt.Sprintf("decision %s not found", id)), nil
		}
		return errorResult(fmt.Sprintf("failed to set outcome: %v", err)), nil
	}

	resultData, _ := json.Marshal(map[string]any{
		"id":     id,
		"status": "outcome recorded",
	})
	return textResult(string(resultData)), nil
}

func (s *Server) handleReverse(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id := request.GetString("id", "")
	reason := request.GetString("reason", "")
	maker := request.GetString("decision_maker", "")
	if id == "" || reason == "" || maker == "" {
		return errorResult("id, reason, and decision_maker are required"), nil
	}

	reversal, err := s.store.Reverse(id, reason, maker)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return errorResult(fmt.Sprintf("decision %s not found", id)), nil
		}
		return errorResult(fmt.Sprintf("failed to reverse decision: %v", err)), nil
	}

	s.logger.Info("mcp: decision reversed", "id", id, "reversal_id", reversal.ID)

	resultData, _ := json.Marshal(map[string]any{
		"reversed":    id,
		"reversal_id": reversal.ID,
	})
	return textResult(string(resultData)), nil
}

func (s *Server) handleQuery(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	filters := model.QueryFilters{
		Tags: splitTags(request.GetString("tags", "")),
	}

	if maker := request.GetString("decision_maker", ""); maker != "" {
		filters.DecisionMaker = &maker
	}
	if stakeholder := request.GetString("stakeholder", ""); stakeholder != "" {
		filters.Stakeholder = &stakeholder
	}
	if status := request.GetString("status", ""); status != "" {
		st := model.Status(status)
		if !st.Valid() {
			return errorResult(fmt.Sprintf("invalid status %q (expected active, superseded, or reversed)", status)), nil
		}
		filters.Status = &st
	}
	if search := request.GetString("search", ""); search != "" {
		filters.Search = &search
	}

	records := s.store.Query(filters)
	if limit := request.GetInt("limit", 0); limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	resultData, _ := json.MarshalIndent(map[string]any{
		"records": records,
		"total":   len(records),
	}, "", "  ")
	return textResult(string(resultData)), nil
}

func (s *Server) handleLineage(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return errorResult("id is required"), nil
	}

	chain := s.store.Lineage(id)
	if len(chain) == 0 {
		return errorResult(fmt.Sprintf("decision %s not found", id)), nil
	}

	resultData, _ := json.MarshalIndent(map[string]any{
		"id":    id,
		"chain": chain,
	}, "", "  ")
	return textResult(string(resultData)), nil
}

func (s *Server) handleReport(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	report := s.store.Report()
	resultData, _ := json.MarshalIndent(report, "", "  ")
	return textResult(string(resultData)), nil
}

// splitTags parses a comma-separated tag list, dropping empty entries.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
