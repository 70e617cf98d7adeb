package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for Arkivist resources.
const uriScheme = "arkivist://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for backend availability.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Live availability of the configured generation backends",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

// statusResource is the JSON shape of the status resource.
type statusResource struct {
	ActiveBackend   string `json:"active_backend"`
	RemoteAvailable bool   `json:"remote_available"`
	RemoteModel     string `json:"remote_model,omitempty"`
	LocalAvailable  bool   `json:"local_available"`
	LocalModel      string `json:"local_model,omitempty"`
}

// handleStatusResource probes the backends and returns their availability.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Status == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "{}",
			}},
		}, nil
	}

	status := s.ports.Status.Status(ctx)

	data, err := json.Marshal(statusResource{
		ActiveBackend:   string(status.ActiveBackend),
		RemoteAvailable: status.RemoteAvailable,
		RemoteModel:     status.RemoteModelName,
		LocalAvailable:  status.LocalAvailable,
		LocalModel:      status.LocalModelID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
