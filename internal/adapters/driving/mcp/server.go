package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the MCP server version.
const Version = "0.1.0"

// shutdownTimeout bounds how long RunHTTP waits for open sessions.
const shutdownTimeout = 5 * time.Second

// Server is the MCP server for the retrieval pipeline.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "hybridrag",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions(ports)}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells clients which tools and resources this server offers.
func instructions(p *Ports) string {
	var b strings.Builder
	b.WriteString("Hybrid retrieval over stored document chunks. ")
	b.WriteString("Use search with a natural-language query; alpha 0 ranks by keywords only, 1 by meaning only.")
	if p.Ingestion != nil {
		b.WriteString(" Use ingest to add or replace a document's chunks; re-ingesting a doc_id overwrites it.")
	}
	if p.Embedding != nil {
		b.WriteString(" Use model_info to check the embedding model is loaded.")
	}
	if p.Metadata != nil {
		b.WriteString(" Read " + uriScheme + "documents/{documentId} for every chunk of one document.")
	}
	return b.String()
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
