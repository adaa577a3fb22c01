// Package mcp exposes the character host as a Model Context Protocol
// server, so an LLM agent can drive a character's motions, expressions
// and emotions as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/motion"
)

// Registry is the slice of the character host the MCP server needs.
type Registry interface {
	Engine(name string) *avatar.Engine
	Names() []string
}

// MotionResponse reports an arbitration outcome.
type MotionResponse struct {
	Admitted bool           `json:"admitted" jsonschema_description:"Whether the arbiter admitted the motion"`
	Layers   []domain.Layer `json:"layers" jsonschema_description:"Layers occupying body regions after the request"`
}

// EmotionResponse reports a smart switch outcome.
type EmotionResponse struct {
	Committed bool                `json:"committed" jsonschema_description:"Whether the inertia policy committed the change"`
	Emotion   domain.EmotionState `json:"emotion" jsonschema_description:"The emotional record after the attempt"`
}

// ReactionResponse reports a text reaction outcome.
type ReactionResponse struct {
	Matched  bool   `json:"matched" jsonschema_description:"Whether a reaction rule matched"`
	Sequence string `json:"sequence,omitempty" jsonschema_description:"The sequence started by the match"`
}

// Server wraps a character host and exposes it as an MCP server.
type Server struct {
	hosts     Registry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP server over the host.
func NewServer(hosts Registry, opts ...Option) *Server {
	s := &Server{
		hosts:     hosts,
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer("avatar-mcp", strings.TrimSpace(avatar.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// engine resolves the addressed character, creating it on first use.
func (s *Server) engine(args map[string]any) *avatar.Engine {
	name, _ := args["character"].(string)
	if strings.TrimSpace(name) == "" {
		name = "default"
	}
	return s.hosts.Engine(name)
}

func (s *Server) registerTools() {
	// TOOL: avatar_status
	statusTool := mcp.NewTool("avatar_status",
		mcp.WithDescription("Get one consistent view of a character: clock, emotion, selection, blend and motion layers."),
		mcp.WithString("character", mcp.Description("Character name (defaults to 'default')")),
		mcp.WithOutputSchema[avatar.Status](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleStatus))

	// TOOL: play_motion
	motionTool := mcp.NewTool("play_motion",
		mcp.WithDescription("Request a motion. It enters per-region arbitration; a lower-ranked request on a busy region is rejected. Omitted fields inherit the catalog definition."),
		mcp.WithString("group", mcp.Required(), mcp.Description("Motion group name, e.g. 'wave'")),
		mcp.WithString("character", mcp.Description("Character name (defaults to 'default')")),
		mcp.WithString("region", mcp.Description("Body region: full, head, face, arms, torso or legs")),
		mcp.WithString("rank", mcp.Description("Priority rank: idle, gesture, reaction, emotion or override")),
		mcp.WithNumber("weight", mcp.Description("Blend weight in [0,1]")),
		mcp.WithString("fade_in", mcp.Description("Fade-in duration, e.g. '200ms'")),
		mcp.WithString("fade_out", mcp.Description("Fade-out duration, e.g. '300ms'")),
		mcp.WithString("duration", mcp.Description("Playing duration, e.g. '2s'; empty means unbounded")),
		mcp.WithOutputSchema[MotionResponse](),
	)
	s.mcpServer.AddTool(motionTool, mcp.NewStructuredToolHandler(s.handlePlayMotion))

	// TOOL: stop_motion
	s.mcpServer.AddTool(mcp.NewTool("stop_motion",
		mcp.WithDescription("Stop motions, gracefully by default. Without a region every region is freed."),
		mcp.WithString("character", mcp.Description("Character name (defaults to 'default')")),
		mcp.WithString("region", mcp.Description("Body region to free; empty stops everything")),
		mcp.WithBoolean("immediate", mcp.Description("Skip the fade-out")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		eng := s.engine(args)
		region, _ := args["region"].(string)
		immediate, _ := args["immediate"].(bool)
		if strings.TrimSpace(region) == "" {
			eng.StopAllMotions(immediate)
			return mcp.NewToolResultText("all motions stopped"), nil
		}
		eng.StopMotion(domain.ParseRegion(region), immediate)
		return mcp.NewToolResultText(fmt.Sprintf("motions stopped on %s", domain.ParseRegion(region))), nil
	})

	// TOOL: set_idle_motion
	s.mcpServer.AddTool(mcp.NewTool("set_idle_motion",
		mcp.WithDescription("Set the looping idle motion by catalog group. An empty group clears it."),
		mcp.WithString("character", mcp.Description("Character name (defaults to 'default')")),
		mcp.WithString("group", mcp.Description("Idle motion group, e.g. 'breath'")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		group, _ := args["group"].(string)
		s.engine(args).SetIdleMotion(group)
		if group == "" {
			return mcp.NewToolResultText("idle motion cleared"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("idle motion set to %s", group)), nil
	})

	// TOOL: set_expressions
	expressionsTool := mcp.NewTool("set_expressions",
		mcp.WithDescription("Replace the expression target set. Conflicting targets are resolved by priority, then weight."),
		mcp.WithString("expressions", mcp.Required(), mcp.Description(`JSON array of targets, e.g. [{"name":"happy","weight":0.8}]`)),
		mcp.WithString("character", mcp.Description("Character name (defaults to 'default')")),
		mcp.WithOutputSchema[domain.Selection](),
	)
	s.mcpServer.AddTool(expressionsTool, mcp.NewStructuredToolHandler(s.handleSetExpressions))

	// TOOL: set_emotion
	emotionTool := mcp.NewTool("set_emotion",
		mcp.WithDescription("Attempt an emotion change under the inertia policy. Rapid flip-flopping is refused until momentum decays."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Target emotion expression, e.g. 'happy'")),
		mcp.WithString("character", mcp.Description("Character name (defaults to 'default')")),
		mcp.WithOutputSchema[EmotionResponse](),
	)
	s.mcpServer.AddTool(emotionTool, mcp.NewStructuredToolHandler(s.handleSetEmotion))

	// TOOL: react
	reactTool := mcp.NewTool("react",
		mcp.WithDescription("Match free text against the reaction rules and play the bound expression sequence."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Free text, e.g. a chat message")),
		mcp.WithString("character", mcp.Description("Character name (defaults to 'default')")),
		mcp.WithOutputSchema[ReactionResponse](),
	)
	s.mcpServer.AddTool(reactTool, mcp.NewStructuredToolHandler(s.handleReact))

	// TOOL: play_sequence
	s.mcpServer.AddTool(mcp.NewTool("play_sequence",
		mcp.WithDescription("Play a named expression sequence from the catalog."),
		mcp.WithString("sequence", mcp.Required(), mcp.Description("Sequence name, e.g. 'greeting'")),
		mcp.WithString("character", mcp.Description("Character name (defaults to 'default')")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		name, _ := args["sequence"].(string)
		if err := s.engine(args).PlaySequence(name); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("play sequence failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("sequence %s started", name)), nil
	})

	// TOOL: cancel_sequence
	s.mcpServer.AddTool(mcp.NewTool("cancel_sequence",
		mcp.WithDescription("Cancel the running expression sequence, if any."),
		mcp.WithString("character", mcp.Description("Character name (defaults to 'default')")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.engine(request.GetArguments()).CancelSequence()
		return mcp.NewToolResultText("sequence cancelled"), nil
	})

	// TOOL: look_at
	s.mcpServer.AddTool(mcp.NewTool("look_at",
		mcp.WithDescription("Point the character's gaze. Coordinates are normalized; 0,0 is straight ahead."),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Horizontal gaze target, negative is left")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Vertical gaze target, negative is down")),
		mcp.WithString("character", mcp.Description("Character name (defaults to 'default')")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		x, _ := args["x"].(float64)
		y, _ := args["y"].(float64)
		s.engine(args).LookAt(x, y)
		return mcp.NewToolResultText(fmt.Sprintf("gaze set to %.2f, %.2f", x, y)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (avatar.Status, error) {
	return s.engine(args).Status(), nil
}

func (s *Server) handlePlayMotion(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (MotionResponse, error) {
	group, _ := args["group"].(string)
	if strings.TrimSpace(group) == "" {
		return MotionResponse{}, fmt.Errorf("group is required")
	}

	req, err := motionRequestFromArgs(group, args)
	if err != nil {
		return MotionResponse{}, err
	}

	eng := s.engine(args)
	admitted := eng.RequestMotion(req)
	s.logger.Debug("MCP motion requested", "group", group, "admitted", admitted)
	return MotionResponse{
		Admitted: admitted,
		Layers:   eng.MotionLayers(),
	}, nil
}

func (s *Server) handleSetExpressions(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Selection, error) {
	raw, _ := args["expressions"].(string)

	var list []domain.ExpressionWeight
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		var single domain.ExpressionWeight
		if err := json.Unmarshal([]byte(raw), &single); err != nil {
			return domain.Selection{}, fmt.Errorf("expressions must be a JSON target or array of targets: %w", err)
		}
		list = []domain.ExpressionWeight{single}
	}
	for _, target := range list {
		if strings.TrimSpace(target.Name) == "" {
			return domain.Selection{}, fmt.Errorf("every expression target needs a name")
		}
	}

	eng := s.engine(args)
	eng.SetExpressions(list)
	return eng.Selection(), nil
}

func (s *Server) handleSetEmotion(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EmotionResponse, error) {
	name, _ := args["name"].(string)
	if strings.TrimSpace(name) == "" {
		return EmotionResponse{}, fmt.Errorf("name is required")
	}

	eng := s.engine(args)
	committed := eng.SetEmotionSmart(name)
	return EmotionResponse{
		Committed: committed,
		Emotion:   eng.EmotionState(),
	}, nil
}

func (s *Server) handleReact(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ReactionResponse, error) {
	text, _ := args["text"].(string)

	eng := s.engine(args)
	matched := eng.React(text)
	resp := ReactionResponse{Matched: matched}
	if matched {
		resp.Sequence = eng.Status().Sequence
	}
	return resp, nil
}

func motionRequestFromArgs(group string, args map[string]interface{}) (motion.Request, error) {
	req := motion.Request{Group: group}
	if w, ok := args["weight"].(float64); ok {
		req.Weight = w
	}
	if region, _ := args["region"].(string); region != "" {
		req.Region = domain.ParseRegion(region)
	}
	if rank, _ := args["rank"].(string); rank != "" {
		req.Rank = domain.ParseRank(rank)
	}
	for field, dst := range map[string]*time.Duration{
		"fade_in":  &req.FadeIn,
		"fade_out": &req.FadeOut,
		"duration": &req.Duration,
	} {
		raw, _ := args[field].(string)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return motion.Request{}, fmt.Errorf("invalid %s %q", field, raw)
		}
		*dst = d
	}
	return req, nil
}

func (s *Server) registerResources() {
	// EXPOSE: avatar://catalog
	s.mcpServer.AddResource(mcp.NewResource("avatar://catalog", "Motion and Expression Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		cat := s.engine(nil).Catalog()
		doc := map[string]any{
			"motions":     cat.Motions(),
			"expressions": cat.Expressions(),
			"conflicts":   cat.ConflictPairs(),
			"sequences":   cat.Sequences(),
			"reactions":   cat.Reactions(),
		}
		jsonBytes, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal catalog: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "avatar://catalog",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: avatar://characters
	s.mcpServer.AddResource(mcp.NewResource("avatar://characters", "Live Characters",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.hosts.Names())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal character names: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "avatar://characters",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
