package mcpbridge

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// ServeStdio runs the MCP session over in/out until ctx is done or in closes.
// Protocol-level errors go to stderr so stdout stays a clean JSON-RPC stream.
func ServeStdio(ctx context.Context, srv *mcpserver.MCPServer, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(srv)
	stdio.SetErrorLogger(log.New(os.Stderr, "mcpbridge: ", log.LstdFlags))
	return stdio.Listen(ctx, in, out)
}

// HTTPHandler returns the streamable HTTP transport for srv, mounted by the
// server at /mcp.
func HTTPHandler(srv *mcpserver.MCPServer) http.Handler {
	return mcpserver.NewStreamableHTTPServer(srv, mcpserver.WithEndpointPath("/mcp"))
}
