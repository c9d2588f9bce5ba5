// Package server implements the MCP (Model Context Protocol) server for texture
// atlas preprocessing.
//
// This package provides a JSON-RPC 2.0 server that exposes the atlas ingestor
// through the MCP protocol, so an assistant or editor can feed source images
// into an atlas and inspect the normalized rectangles a packer would place.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Ingestion:
//   - atlas_add_image: Normalize and add one image
//   - atlas_add_directory: Add every image below a directory in parallel
//
// Atlas state:
//   - atlas_list: Rectangles with offsets, insets and aliases
//   - atlas_clear: Drop all rectangles
//   - atlas_set_scale: Change the scale for later images
//   - atlas_export: Write processed PNGs and a manifest
//
// Watch mode:
//   - atlas_watch: Rebuild the atlas whenever a directory changes
//   - atlas_unwatch: Stop watching
//
// Inspection:
//   - image_inspect: Image metadata and content hash
//
// # Notifications
//
// In watch mode every rebuild is announced with a notifications/message
// carrying the changed paths and the batch report.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 (invalid arguments), -32000 (tool execution failure) or
//     standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// Images that fail inside a directory batch do not fail the call; they are
// listed in the report and logged.
//
// # Usage
//
//	cfg, err := config.FromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
