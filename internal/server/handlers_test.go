package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/atlas-prep-mcp/internal/atlas"
	"github.com/ironsheep/atlas-prep-mcp/internal/config"
)

// createTestImageFile writes a solid PNG into dir and returns its path
func createTestImageFile(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool sends a tools/call request through handleRequest
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	params := map[string]interface{}{"name": name, "arguments": args}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeResult unpacks the JSON text content of a successful tool response
func decodeResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), v); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
}

func newRootedServer(t *testing.T, root string) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.RootDir = root
	cfg.Workers = 2
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return s
}

func TestHandleAddImage(t *testing.T) {
	dir := t.TempDir()
	s := newRootedServer(t, dir)
	path := createTestImageFile(t, dir, "ui/icon_3.png", 10, 8, color.NRGBA{255, 0, 0, 255})

	var got struct {
		Status string     `json:"status"`
		Rect   atlas.Rect `json:"rect"`
	}
	decodeResult(t, callTool(t, s, "atlas_add_image", map[string]interface{}{"path": path}), &got)

	if got.Status != "added" {
		t.Errorf("status: got %s, want added", got.Status)
	}
	if got.Rect.Name != "ui/icon" || got.Rect.Index != 3 {
		t.Errorf("name/index: got %s/%d, want ui/icon/3", got.Rect.Name, got.Rect.Index)
	}
	if got.Rect.Width != 10 || got.Rect.Height != 8 {
		t.Errorf("size: got %dx%d, want 10x8", got.Rect.Width, got.Rect.Height)
	}

	// Same pixels under another name become an alias
	other := createTestImageFile(t, dir, "copy.png", 10, 8, color.NRGBA{255, 0, 0, 255})
	decodeResult(t, callTool(t, s, "atlas_add_image", map[string]interface{}{"path": other}), &got)
	if got.Status != "aliased" {
		t.Errorf("status: got %s, want aliased", got.Status)
	}
}

func TestHandleAddImage_Errors(t *testing.T) {
	dir := t.TempDir()
	s := newRootedServer(t, dir)
	outside := createTestImageFile(t, t.TempDir(), "x.png", 2, 2, color.White)
	garbage := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(garbage, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		args     interface{}
		wantCode int
	}{
		{"missing path", map[string]interface{}{}, -32602},
		{"wrong type", map[string]interface{}{"path": 42}, -32602},
		{"outside root", map[string]interface{}{"path": outside}, -32602},
		{"undecodable", map[string]interface{}{"path": garbage}, -32000},
		{"missing file", map[string]interface{}{"path": filepath.Join(dir, "none.png")}, -32000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "atlas_add_image", tt.args)
			if resp.Error == nil {
				t.Fatal("expected error")
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code: got %d, want %d (%v)", resp.Error.Code, tt.wantCode, resp.Error.Data)
			}
		})
	}
}

func TestHandleUnknownTool(t *testing.T) {
	s := newTestServer(t)
	resp := callTool(t, s, "image_ocr_full", map[string]interface{}{})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected invalid params error, got %+v", resp.Error)
	}
}

func TestHandleAddDirectory(t *testing.T) {
	dir := t.TempDir()
	s := newRootedServer(t, dir)
	createTestImageFile(t, dir, "a.png", 4, 4, color.NRGBA{0, 0, 255, 255})
	createTestImageFile(t, dir, "b.png", 4, 4, color.NRGBA{0, 0, 255, 255})
	createTestImageFile(t, dir, "c.png", 3, 3, color.NRGBA{0, 255, 0, 255})
	if err := os.WriteFile(filepath.Join(dir, "d.png"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	var report atlas.BatchReport
	decodeResult(t, callTool(t, s, "atlas_add_directory", map[string]interface{}{"dir": dir, "workers": 3}), &report)

	if report.Added != 2 || report.Aliased != 1 {
		t.Errorf("report: got added=%d aliased=%d, want 2 and 1", report.Added, report.Aliased)
	}
	if len(report.Failures) != 1 || report.Failures[0].Path != filepath.Join(dir, "d.png") {
		t.Errorf("failures: got %+v", report.Failures)
	}

	resp := callTool(t, s, "atlas_add_directory", map[string]interface{}{"dir": dir, "workers": -1})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected invalid params for negative workers, got %+v", resp.Error)
	}
}

func TestHandleListAndClear(t *testing.T) {
	dir := t.TempDir()
	s := newRootedServer(t, dir)
	createTestImageFile(t, dir, "one.png", 2, 2, color.Black)
	callTool(t, s, "atlas_add_directory", map[string]interface{}{"dir": dir})

	var list struct {
		Count int          `json:"count"`
		Scale float64      `json:"scale"`
		Rects []atlas.Rect `json:"rects"`
	}
	decodeResult(t, callTool(t, s, "atlas_list", nil), &list)
	if list.Count != 1 || len(list.Rects) != 1 || list.Rects[0].Name != "one" {
		t.Errorf("list: got %+v", list)
	}
	if list.Scale != 1 {
		t.Errorf("scale: got %v, want 1", list.Scale)
	}

	var cleared map[string]int
	decodeResult(t, callTool(t, s, "atlas_clear", nil), &cleared)
	if cleared["removed"] != 1 {
		t.Errorf("removed: got %d, want 1", cleared["removed"])
	}
	decodeResult(t, callTool(t, s, "atlas_list", nil), &list)
	if list.Count != 0 {
		t.Errorf("count after clear: got %d, want 0", list.Count)
	}
}

func TestHandleSetScale(t *testing.T) {
	dir := t.TempDir()
	s := newRootedServer(t, dir)
	path := createTestImageFile(t, dir, "big.png", 10, 6, color.White)

	var scaled map[string]float64
	decodeResult(t, callTool(t, s, "atlas_set_scale", map[string]interface{}{"scale": 0.5}), &scaled)
	if scaled["scale"] != 0.5 {
		t.Errorf("scale: got %v, want 0.5", scaled["scale"])
	}

	var got struct {
		Rect atlas.Rect `json:"rect"`
	}
	decodeResult(t, callTool(t, s, "atlas_add_image", map[string]interface{}{"path": path}), &got)
	if got.Rect.Width != 5 || got.Rect.Height != 3 {
		t.Errorf("size: got %dx%d, want 5x3", got.Rect.Width, got.Rect.Height)
	}

	for _, args := range []map[string]interface{}{{}, {"scale": 0}, {"scale": -1}} {
		resp := callTool(t, s, "atlas_set_scale", args)
		if resp.Error == nil || resp.Error.Code != -32602 {
			t.Errorf("args %v: expected invalid params, got %+v", args, resp.Error)
		}
	}
}

func TestHandleExport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	s := newRootedServer(t, dir)
	createTestImageFile(t, dir, "ui/run_2.png", 3, 3, color.NRGBA{10, 20, 30, 255})
	createTestImageFile(t, dir, "plain.png", 2, 4, color.NRGBA{200, 20, 30, 255})
	callTool(t, s, "atlas_add_directory", map[string]interface{}{"dir": dir})

	var got struct {
		Files    []string `json:"files"`
		Manifest string   `json:"manifest"`
	}
	decodeResult(t, callTool(t, s, "atlas_export", map[string]interface{}{"out_dir": out}), &got)

	want := []string{filepath.Join(out, "plain.png"), filepath.Join(out, "ui", "run_2.png")}
	if len(got.Files) != len(want) {
		t.Fatalf("files: got %v, want %v", got.Files, want)
	}
	for i := range want {
		if got.Files[i] != want[i] {
			t.Errorf("file %d: got %s, want %s", i, got.Files[i], want[i])
		}
	}

	f, err := os.Open(want[1])
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("exported file is not a PNG: %v", err)
	}
	if cfg.Width != 3 || cfg.Height != 3 {
		t.Errorf("exported size: got %dx%d, want 3x3", cfg.Width, cfg.Height)
	}

	data, err := os.ReadFile(got.Manifest)
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	var manifest struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil || manifest.Count != 2 {
		t.Errorf("manifest: got %s (%v)", data, err)
	}
}

func TestExportName(t *testing.T) {
	tests := []struct {
		rect atlas.Rect
		want string
	}{
		{atlas.Rect{Name: "icon", Index: -1}, "icon.png"},
		{atlas.Rect{Name: "icon", Index: 0}, "icon_0.png"},
		{atlas.Rect{Name: "ui/button", Index: -1, IsPatch: true}, "ui/button.png"},
	}
	for _, tt := range tests {
		if got := exportName(&tt.rect); got != tt.want {
			t.Errorf("exportName(%s, %d): got %s, want %s", tt.rect.Name, tt.rect.Index, got, tt.want)
		}
	}
}

func TestHandleInspect(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t)
	a := createTestImageFile(t, dir, "a.png", 7, 5, color.NRGBA{1, 2, 3, 255})
	b := createTestImageFile(t, dir, "b.png", 7, 5, color.NRGBA{1, 2, 3, 255})

	var infoA, infoB struct {
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		Format   string `json:"format"`
		HasAlpha bool   `json:"has_alpha"`
		Hash     string `json:"hash"`
	}
	decodeResult(t, callTool(t, s, "image_inspect", map[string]interface{}{"path": a}), &infoA)
	decodeResult(t, callTool(t, s, "image_inspect", map[string]interface{}{"path": b}), &infoB)

	if infoA.Width != 7 || infoA.Height != 5 || infoA.Format != "png" {
		t.Errorf("info: got %+v", infoA)
	}
	if infoA.Hash == "" || infoA.Hash != infoB.Hash {
		t.Errorf("hashes of identical images differ: %s vs %s", infoA.Hash, infoB.Hash)
	}

	// Inspection never adds to the atlas
	if n := len(s.ingestor.Images()); n != 0 {
		t.Errorf("atlas has %d rectangles after inspect, want 0", n)
	}
}

func TestHandleWatch(t *testing.T) {
	dir := t.TempDir()
	s := newRootedServer(t, dir)
	createTestImageFile(t, dir, "first.png", 2, 2, color.Black)

	var started struct {
		Dir    string            `json:"dir"`
		Report atlas.BatchReport `json:"report"`
	}
	decodeResult(t, callTool(t, s, "atlas_watch", map[string]interface{}{"dir": dir}), &started)
	if started.Report.Added != 1 {
		t.Errorf("initial report: got %+v", started.Report)
	}

	createTestImageFile(t, dir, "second.png", 3, 3, color.White)

	deadline := time.Now().Add(10 * time.Second)
	for len(s.ingestor.Images()) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("atlas not rebuilt, have %d rectangles", len(s.ingestor.Images()))
		}
		time.Sleep(50 * time.Millisecond)
	}

	var stopped map[string]interface{}
	decodeResult(t, callTool(t, s, "atlas_unwatch", nil), &stopped)
	if stopped["stopped"] != true {
		t.Errorf("unwatch: got %v", stopped)
	}
	decodeResult(t, callTool(t, s, "atlas_unwatch", nil), &stopped)
	if stopped["stopped"] != false {
		t.Errorf("second unwatch: got %v", stopped)
	}
}
