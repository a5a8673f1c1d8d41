// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes cradle tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/tracker"
)

const recordFormatURI = "cradle://record-format"

// Server wraps the MCP server with cradle tools.
type Server struct {
	mcp *server.MCPServer
	svc *tracker.Service
}

// New creates a new MCP server with all cradle tools registered.
func New(svc *tracker.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Cradle",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("records_on_day",
		mcp.WithDescription("List the care records that started on a day, most recent first."),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
	), s.recordsOnDay)

	s.mcp.AddTool(mcp.NewTool("quick_add",
		mcp.WithDescription("Log a care event starting now. SLEEP and BATH stay open until edited. "+
			"Read the cradle://record-format resource for kinds and subtypes."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("SLEEP, FEED, ELIMINATION or BATH")),
		mcp.WithString("subtype", mcp.Description("BREAST, FORMULA or SOLID for FEED; URINE or STOOL for ELIMINATION")),
	), s.quickAdd)

	s.mcp.AddTool(mcp.NewTool("weekly_pattern",
		mcp.WithDescription("24-hour pattern for the Monday-Sunday week containing a day. "+
			"Positions are fractions of the day in [0,1]."),
		mcp.WithString("date", mcp.Description("Any day of the week as YYYY-MM-DD (default today)")),
	), s.weeklyPattern)

	s.mcp.AddTool(mcp.NewTool("daily_stats",
		mcp.WithDescription("Sleep hours and feed, elimination and bath counts for one day."),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD (default today)")),
	), s.dailyStats)

	s.mcp.AddTool(mcp.NewTool("growth_percentile",
		mcp.WithDescription("Percentile band of the latest measurement of a growth metric."),
		mcp.WithString("metric", mcp.Required(), mcp.Description("height, weight or head")),
	), s.growthPercentile)

	s.mcp.AddTool(mcp.NewTool("growth_series",
		mcp.WithDescription("Reference percentile curves by month with the child's own values."),
		mcp.WithString("metric", mcp.Required(), mcp.Description("height, weight or head")),
		mcp.WithNumber("max_month", mcp.Description("Last month to include (default: whole table)")),
	), s.growthSeries)

	s.mcp.AddTool(mcp.NewTool("scan_stool_photo",
		mcp.WithDescription("Analyze a stool photo and log an ELIMINATION/STOOL record with the result."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Base64 data: URI or http(s) URL of the image")),
	), s.scanStoolPhoto)

	s.mcp.AddTool(mcp.NewTool("get_record_format",
		mcp.WithDescription("Returns the cradle record format. Call this before adding records."),
	), s.getRecordFormat)

	s.mcp.AddResource(
		mcp.NewResource(recordFormatURI, "Record Format",
			mcp.WithResourceDescription("Care record, growth and band conventions."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) dateArg(req mcp.CallToolRequest) (models.Date, error) {
	raw := req.GetString("date", "")
	if raw == "" {
		return s.svc.Today(), nil
	}
	return models.ParseDate(raw)
}

func (s *Server) recordsOnDay(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.dateArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.RecordsOn(d))
}

func (s *Server) quickAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.QuickAdd(ctx, models.Kind(kind), req.GetString("subtype", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rec)
}

func (s *Server) weeklyPattern(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.dateArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.WeekPattern(d))
}

func (s *Server) dailyStats(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.dateArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.DailyStats(d))
}

func metricArg(req mcp.CallToolRequest) (models.Metric, *mcp.CallToolResult) {
	raw, err := req.RequireString("metric")
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	m, ok := models.ParseMetric(raw)
	if !ok {
		return "", mcp.NewToolResultError("unknown metric: " + raw + " (use height, weight or head)")
	}
	return m, nil
}

func (s *Server) growthPercentile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, bad := metricArg(req)
	if bad != nil {
		return bad, nil
	}
	res, err := s.svc.LatestPercentile(m)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) growthSeries(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, bad := metricArg(req)
	if bad != nil {
		return bad, nil
	}
	pts, err := s.svc.GrowthSeries(m, req.GetInt("max_month", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(pts)
}

func (s *Server) getRecordFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormatContract), nil
}

func (s *Server) readRecordFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      recordFormatURI,
			MIMEType: "text/markdown",
			Text:     RecordFormatContract,
		},
	}, nil
}
