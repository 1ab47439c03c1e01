package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ggoodman/open-meteo-mcp/internal/logctx"
	"github.com/ggoodman/open-meteo-mcp/internal/metrics"
	"github.com/ggoodman/open-meteo-mcp/mcp"
	"github.com/ggoodman/open-meteo-mcp/openmeteo"
)

// Provider fetches upstream data for validated parameters.
type Provider interface {
	Fetch(ctx context.Context, ep openmeteo.Endpoint, p openmeteo.Params) (json.RawMessage, error)
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used for tool call events.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithMetrics records one observation per tool call.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithValidator replaces the validator compiled from Catalog.
func WithValidator(v *Validator) Option {
	return func(h *Handler) {
		if v != nil {
			h.validator = v
		}
	}
}

var defaultValidator = sync.OnceValues(func() (*Validator, error) {
	return NewValidator(Catalog())
})

// Handler executes tool calls against a Provider. Every outcome, including
// unknown tools and upstream failures, is reported as a CallToolResult.
type Handler struct {
	provider  Provider
	validator *Validator
	defs      map[string]Definition
	tools     []mcp.Tool
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// NewHandler builds a Handler serving Catalog. It panics if the catalogue
// schemas fail to compile.
func NewHandler(provider Provider, opts ...Option) *Handler {
	h := &Handler{
		provider: provider,
		log:      slog.Default(),
		defs:     make(map[string]Definition),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.validator == nil {
		v, err := defaultValidator()
		if err != nil {
			panic(fmt.Sprintf("tools: %v", err))
		}
		h.validator = v
	}

	for _, def := range Catalog() {
		input, ok := h.validator.InputSchema(def.Name)
		if !ok {
			continue
		}
		h.defs[def.Name] = def
		h.tools = append(h.tools, mcp.Tool{
			Name:        def.Name,
			Title:       def.Title,
			Description: def.Description,
			InputSchema: input,
			Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, OpenWorldHint: true},
		})
	}
	return h
}

// Tools returns the tool descriptors in catalogue order.
func (h *Handler) Tools() []mcp.Tool {
	return append([]mcp.Tool(nil), h.tools...)
}

// Invoke runs one tool call.
func (h *Handler) Invoke(ctx context.Context, name string, args json.RawMessage) (res *mcp.CallToolResult) {
	start := time.Now()
	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: name})
	log := h.log.With(slog.String("tool", name))

	fail := func(outcome string, reason string) *mcp.CallToolResult {
		dur := time.Since(start)
		label := name
		if outcome == metrics.OutcomeUnknownTool {
			label = "unknown"
		}
		h.metrics.ToolCall(label, outcome, dur)
		log.WarnContext(ctx, "tool.call.fail",
			slog.String("outcome", outcome),
			slog.String("reason", reason),
			slog.Int64("dur_ms", dur.Milliseconds()))
		return errorResult(reason)
	}

	defer func() {
		if p := recover(); p != nil {
			res = fail(metrics.OutcomeUpstreamError, fmt.Sprintf("internal error: %v", p))
		}
	}()

	def, ok := h.defs[name]
	if !ok {
		return fail(metrics.OutcomeUnknownTool, fmt.Sprintf("unknown tool %q", name))
	}

	if isForecastTool(name) {
		if err := checkSingleModel(args); err != nil {
			return fail(metrics.OutcomeModelsArray, err.Error())
		}
	}

	params, err := h.validator.Validate(name, args)
	if err != nil {
		return fail(metrics.OutcomeInvalidParams, err.Error())
	}

	body, err := h.provider.Fetch(ctx, def.Endpoint, params)
	if err != nil {
		return fail(metrics.OutcomeUpstreamError, reason(err))
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return fail(metrics.OutcomeUpstreamError, fmt.Sprintf("malformed upstream response: %v", err))
	}

	dur := time.Since(start)
	h.metrics.ToolCall(name, metrics.OutcomeOK, dur)
	log.InfoContext(ctx, "tool.call.ok",
		slog.Int("size", out.Len()),
		slog.Int64("dur_ms", dur.Milliseconds()))

	return &mcp.CallToolResult{
		Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: out.String()}},
	}
}

// reason prefers the explanation sent by the upstream API.
func reason(err error) string {
	var apiErr *openmeteo.APIError
	if errors.As(err, &apiErr) && apiErr.Reason != "" {
		return apiErr.Reason
	}
	return err.Error()
}

func errorResult(reason string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "Error: " + reason}},
	}
}
