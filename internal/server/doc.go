// Package server implements an MCP (Model Context Protocol) server for the
// dataset tools.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line, and lets an
// assistant inspect masks and build or check datasets without shelling out to
// the CLI.
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Images and masks:
//   - image_load: Load an image and get its metadata
//   - image_dimensions: Get width and height
//   - mask_coverage: Share of foreground pixels in a mask
//   - mask_contours: External contours of a mask with box and area
//
// Datasets:
//   - dataset_coco: Convert an image and mask directory to COCO JSON
//   - dataset_yolo_labels: Write YOLO polygon label files
//   - dataset_validate: Check the id references of a COCO file
//   - dataset_summary: Per-category counts and area statistics
//
// # Image Caching
//
// Images are cached by path for the lifetime of the server process, so
// repeated questions about the same mask do not touch the disk again. The
// dataset tools read their directories directly and bypass the cache.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000 and the Go error string as data.
package server
