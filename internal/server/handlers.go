package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ironsheep/atlas-prep-mcp/internal/atlas"
	"github.com/ironsheep/atlas-prep-mcp/internal/imaging"
	"github.com/ironsheep/atlas-prep-mcp/internal/watch"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "atlas_add_image", "atlas_list").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// paramsError marks a tool failure caused by the caller's arguments.
type paramsError struct {
	err error
}

func (e *paramsError) Error() string { return e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

func invalidParams(format string, args ...interface{}) error {
	return &paramsError{err: fmt.Errorf(format, args...)}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments return code -32602, other tool errors return code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	s.toolMu.Lock()
	result, err := s.executeTool(params.Name, params.Arguments)
	s.toolMu.Unlock()
	if err != nil {
		var perr *paramsError
		var aerr *atlas.InvalidArgumentError
		if errors.As(err, &perr) || errors.As(err, &aerr) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
// Callers hold toolMu.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Ingestion
	case "atlas_add_image":
		return s.handleAddImage(args)
	case "atlas_add_directory":
		return s.handleAddDirectory(args)

	// Atlas state
	case "atlas_list":
		return s.handleList()
	case "atlas_clear":
		return s.handleClear()
	case "atlas_set_scale":
		return s.handleSetScale(args)
	case "atlas_export":
		return s.handleExport(args)

	// Watch mode
	case "atlas_watch":
		return s.handleWatch(args)
	case "atlas_unwatch":
		return s.handleUnwatch()

	// Inspection
	case "image_inspect":
		return s.handleInspect(args)

	default:
		return nil, invalidParams("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as an empty
// object.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &paramsError{err: err}
	}
	return nil
}

// === Ingestion Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

type addImageResult struct {
	Status atlas.Status `json:"status"`
	Rect   *atlas.Rect  `json:"rect,omitempty"`
}

func (s *Server) handleAddImage(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidParams("path is required")
	}

	res, err := s.ingestor.AddFile(a.Path)
	if err != nil {
		var perr *atlas.PathError
		if errors.As(err, &perr) {
			return nil, &paramsError{err: err}
		}
		return nil, err
	}
	return addImageResult{Status: res.Status, Rect: res.Rect}, nil
}

type addDirectoryArgs struct {
	Dir     string `json:"dir"`
	Workers *int   `json:"workers"`
}

func (s *Server) handleAddDirectory(args json.RawMessage) (interface{}, error) {
	var a addDirectoryArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		return nil, invalidParams("dir is required")
	}
	workers := s.cfg.Workers
	if a.Workers != nil {
		if *a.Workers < 0 {
			return nil, invalidParams("workers must not be negative, got %d", *a.Workers)
		}
		workers = *a.Workers
	}

	report, err := s.ingestor.AddDir(context.Background(), a.Dir, workers)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}
	logFailures(report)
	return report, nil
}

func logFailures(report *atlas.BatchReport) {
	for _, f := range report.Failures {
		log.Printf("Failed to add %s: %v", f.Path, f.Err)
	}
}

// === Atlas State Handlers ===

type listResult struct {
	Count int           `json:"count"`
	Scale float64       `json:"scale"`
	Rects []*atlas.Rect `json:"rects"`
}

func (s *Server) handleList() (interface{}, error) {
	rects := s.ingestor.Images()
	return listResult{Count: len(rects), Scale: s.ingestor.Scale(), Rects: rects}, nil
}

func (s *Server) handleClear() (interface{}, error) {
	removed := len(s.ingestor.Images())
	s.ingestor.Clear()
	return map[string]interface{}{"removed": removed}, nil
}

type setScaleArgs struct {
	Scale *float64 `json:"scale"`
}

func (s *Server) handleSetScale(args json.RawMessage) (interface{}, error) {
	var a setScaleArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == nil {
		return nil, invalidParams("scale is required")
	}
	if err := s.ingestor.SetScale(*a.Scale); err != nil {
		return nil, err
	}
	return map[string]interface{}{"scale": *a.Scale}, nil
}

type exportArgs struct {
	OutDir string `json:"out_dir"`
}

type exportResult struct {
	Files    []string `json:"files"`
	Manifest string   `json:"manifest"`
}

func (s *Server) handleExport(args json.RawMessage) (interface{}, error) {
	var a exportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.OutDir == "" {
		return nil, invalidParams("out_dir is required")
	}
	if err := os.MkdirAll(a.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	rects := s.ingestor.Images()
	result := exportResult{Files: make([]string, 0, len(rects))}
	for _, rect := range rects {
		img, err := s.ingestor.Pixels(rect)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(a.OutDir, filepath.FromSlash(exportName(rect)))
		if err := imaging.EncodeFile(s.codec, path, img); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, path)
	}

	manifest, err := json.MarshalIndent(listResult{Count: len(rects), Scale: s.ingestor.Scale(), Rects: rects}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	result.Manifest = filepath.Join(a.OutDir, "manifest.json")
	if err := os.WriteFile(result.Manifest, manifest, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	return result, nil
}

// exportName is the file name a rectangle is exported under.
func exportName(rect *atlas.Rect) string {
	name := rect.Name
	if rect.Index >= 0 {
		name += "_" + strconv.Itoa(rect.Index)
	}
	return name + ".png"
}

// === Watch Handlers ===

type watchArgs struct {
	Dir string `json:"dir"`
}

func (s *Server) handleWatch(args json.RawMessage) (interface{}, error) {
	var a watchArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		return nil, invalidParams("dir is required")
	}

	s.stopWatch()

	report, err := s.rebuild(a.Dir)
	if err != nil {
		return nil, err
	}

	var w *watch.Watcher
	w, err = watch.New(a.Dir, watch.DefaultDelay, func(paths []string) {
		s.toolMu.Lock()
		if s.watcher != w {
			s.toolMu.Unlock()
			return
		}
		report, err := s.rebuild(a.Dir)
		s.toolMu.Unlock()

		if err != nil {
			log.Printf("Failed to rebuild atlas: %v", err)
			s.notify("error", map[string]interface{}{"dir": a.Dir, "error": err.Error()})
			return
		}
		s.notify("info", map[string]interface{}{
			"dir":     a.Dir,
			"changed": paths,
			"report":  report,
		})
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	s.watcher = w
	s.stop = func() {
		cancel()
		if err := w.Close(); err != nil {
			log.Printf("Failed to close watcher: %v", err)
		}
	}
	return map[string]interface{}{"dir": a.Dir, "report": report}, nil
}

// rebuild replaces the atlas contents with the images below dir. Callers hold
// toolMu.
func (s *Server) rebuild(dir string) (*atlas.BatchReport, error) {
	s.ingestor.Clear()
	report, err := s.ingestor.AddDir(context.Background(), dir, s.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}
	logFailures(report)
	return report, nil
}

func (s *Server) handleUnwatch() (interface{}, error) {
	watching := s.watcher != nil
	dir := ""
	if watching {
		dir = s.watcher.Root()
	}
	s.stopWatch()
	return map[string]interface{}{"stopped": watching, "dir": dir}, nil
}

// stopWatch closes the active watcher, if any. Callers hold toolMu.
func (s *Server) stopWatch() {
	if s.stop != nil {
		s.stop()
	}
	s.watcher = nil
	s.stop = nil
}

// === Inspection Handlers ===

type inspectResult struct {
	*imaging.ImageInfo
	Hash string `json:"hash"`
}

func (s *Server) handleInspect(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, invalidParams("path is required")
	}

	img, info, err := imaging.Inspect(s.codec, a.Path)
	if err != nil {
		return nil, err
	}
	return inspectResult{ImageInfo: info, Hash: atlas.Hash(imaging.ToNRGBA(img))}, nil
}
