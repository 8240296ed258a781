package mcpserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"wager-engine/internal/auth"
	"wager-engine/internal/engine"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type Server struct {
	engine   *engine.Engine
	tokens   *auth.Tokens
	adminKey string

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(eng *engine.Engine, tokens *auth.Tokens, adminKey string) *Server {
	mcpSrv := server.NewMCPServer(
		"wager-engine",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		engine:     eng,
		tokens:     tokens,
		adminKey:   adminKey,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerSlipTools()
	s.registerPlayTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"bet://{bet_id}/fairness",
			"bet_fairness",
			mcp.WithTemplateDescription("Revealed seeds and nonce list of a settled bet"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			if !strings.HasPrefix(raw, "bet://") || !strings.HasSuffix(raw, "/fairness") {
				return nil, nil
			}
			betID := strings.TrimSuffix(strings.TrimPrefix(raw, "bet://"), "/fairness")
			if betID == "" {
				return nil, nil
			}
			rev, err := s.engine.RevealFairness(ctx, betID)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(rev)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{URI: raw, MIMEType: "application/json", Text: string(payload)},
			}, nil
		},
	)
}

func (s *Server) authPlayer(token string) (auth.Player, *mcp.CallToolResult) {
	if s.tokens == nil {
		return auth.Player{}, toolError("unauthorized", "player tokens are not configured")
	}
	p, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Player{}, toolError("unauthorized", "invalid player token")
	}
	return p, nil
}

func (s *Server) authAdmin(key string) *mcp.CallToolResult {
	key = strings.TrimSpace(key)
	if s.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
		return toolError("unauthorized", "invalid admin_key")
	}
	return nil
}

// decodeArgs copies the tool arguments into dst through their JSON form.
func decodeArgs(request mcp.CallToolRequest, dst any) error {
	raw, err := json.Marshal(request.GetArguments())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
