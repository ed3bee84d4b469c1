// Package mcp exposes registered tools over the Model Context Protocol.
// Transport, lifecycle and JSON-RPC framing come from mcp-go; this package
// adds schema validation of tool arguments and zerolog logging.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"sync"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

// ServerInfo names the implementation in the initialize result.
type ServerInfo struct {
	Name    string
	Version string
}

// Server answers MCP requests for the tools in Registry. Fields must not
// change after the first call to Serve or Handle.
type Server struct {
	Info         ServerInfo
	Instructions string
	Registry     *Registry

	once sync.Once
	mcp  *server.MCPServer
}

// NewServer returns a server exposing reg.
func NewServer(info ServerInfo, reg *Registry) *Server {
	return &Server{Info: info, Registry: reg}
}

func (s *Server) build() *server.MCPServer {
	s.once.Do(func() {
		hooks := &server.Hooks{}
		hooks.AddBeforeAny(func(_ context.Context, id any, method mcpgo.MCPMethod, _ any) {
			log.Debug().Str("method", string(method)).Interface("id", id).Msg("mcp request")
		})
		opts := []server.ServerOption{
			server.WithToolCapabilities(false),
			server.WithRecovery(),
			server.WithHooks(hooks),
		}
		if s.Instructions != "" {
			opts = append(opts, server.WithInstructions(s.Instructions))
		}
		srv := server.NewMCPServer(s.Info.Name, s.Info.Version, opts...)
		for _, spec := range s.Registry.Specs() {
			srv.AddTool(mcpgo.NewToolWithRawSchema(spec.Name, spec.Description, spec.InputSchema), s.toolHandler(spec.Name))
		}
		s.mcp = srv
	})
	return s.mcp
}

// toolHandler validates and runs one registry tool. Tool failures are
// reported as isError results rather than JSON-RPC errors.
func (s *Server) toolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		args, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return nil, fmt.Errorf("encode %s arguments: %w", name, err)
		}
		text, err := s.Registry.Call(ctx, name, args)
		if err != nil {
			log.Debug().Str("tool", name).Err(err).Msg("mcp tool failed")
			return mcpgo.NewToolResultError(err.Error()), nil
		}
		return mcpgo.NewToolResultText(text), nil
	}
}

// Serve reads newline-delimited JSON-RPC messages from r and writes
// responses to w until r is exhausted or ctx is done.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	stdio := server.NewStdioServer(s.build())
	stdio.SetErrorLogger(stdlog.New(log.Logger, "mcp: ", 0))
	err := stdio.Listen(ctx, r, w)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Handle answers one raw JSON-RPC message in process. It returns nil for
// notifications.
func (s *Server) Handle(ctx context.Context, msg json.RawMessage) json.RawMessage {
	resp := s.build().HandleMessage(ctx, msg)
	if resp == nil {
		return nil
	}
	b, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("mcp: encode response")
		return nil
	}
	return b
}
