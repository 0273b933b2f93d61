package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

var ErrToolFailed = errors.New("tool returned an error")

// Tool describes one tool exposed by the knowledge server.
type Tool struct {
	Name        string
	Description string
	InputSchema string
}

// Client is a connected MCP session shared by all questions.
type Client struct {
	mcp *client.Client
}

// Connect opens an MCP session over SSE ("sse") or streamable HTTP ("http")
// and performs the initialize handshake.
func Connect(ctx context.Context, url, transport string) (*Client, error) {
	var (
		c   *client.Client
		err error
	)
	switch transport {
	case "", "sse":
		c, err = client.NewSSEMCPClient(url)
	case "http":
		c, err = client.NewStreamableHttpClient(url)
	default:
		return nil, fmt.Errorf("unsupported MCP transport: %s", transport)
	}
	if err != nil {
		return nil, fmt.Errorf("create MCP client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start MCP client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "cskg-agent-be", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize MCP session: %w", err)
	}

	return &Client{mcp: c}, nil
}

func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	res, err := c.mcp.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	tools := make([]Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			schema = []byte("{}")
		}
		tools = append(tools, Tool{Name: t.Name, Description: t.Description, InputSchema: string(schema)})
	}
	return tools, nil
}

// CallTool runs a tool and returns its text content. A result flagged as an
// error is returned as ErrToolFailed wrapping the server's message.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.mcp.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call tool %s: %w", name, err)
	}

	text := contentText(res.Content)
	if res.IsError {
		return "", fmt.Errorf("%w: %s: %s", ErrToolFailed, name, text)
	}
	return text, nil
}

func (c *Client) Close() error {
	return c.mcp.Close()
}

func contentText(contents []mcp.Content) string {
	parts := make([]string, 0, len(contents))
	for _, content := range contents {
		switch tc := content.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
