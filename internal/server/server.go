package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ironsheep/atlas-prep-mcp/internal/atlas"
	"github.com/ironsheep/atlas-prep-mcp/internal/config"
	"github.com/ironsheep/atlas-prep-mcp/internal/imaging"
	"github.com/ironsheep/atlas-prep-mcp/internal/watch"
)

// Server handles MCP protocol communication
type Server struct {
	cfg      *config.Config
	codec    imaging.Codec
	ingestor *atlas.Ingestor

	// toolMu serializes tool calls and watch re-ingests.
	toolMu  sync.Mutex
	watcher *watch.Watcher
	stop    func()

	encMu   sync.Mutex
	encoder *json.Encoder
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance with an empty atlas built from cfg.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	codec := imaging.DefaultCodec{}
	ingestor, err := cfg.NewIngestor(atlas.WithCodec(codec))
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestor: %w", err)
	}
	return &Server{
		cfg:      cfg,
		codec:    codec,
		ingestor: ingestor,
	}, nil
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads requests from r and writes responses to w until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	s.encMu.Lock()
	s.encoder = json.NewEncoder(w)
	s.encMu.Unlock()
	defer func() {
		s.toolMu.Lock()
		s.stopWatch()
		s.toolMu.Unlock()
	}()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			s.send(resp)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// send writes one message. Responses and watch notifications share the
// encoder, so writes are serialized.
func (s *Server) send(v interface{}) {
	s.encMu.Lock()
	defer s.encMu.Unlock()
	if s.encoder == nil {
		return
	}
	if err := s.encoder.Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// notify emits an MCP log message notification.
func (s *Server) notify(level string, data interface{}) {
	s.send(&MCPNotification{
		JSONRPC: "2.0",
		Method:  "notifications/message",
		Params: map[string]interface{}{
			"level":  level,
			"logger": "atlas-prep",
			"data":   data,
		},
	})
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools":   map[string]interface{}{},
				"logging": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "atlas-prep-mcp",
				"version": "0.1.0",
			},
		},
	}
}
