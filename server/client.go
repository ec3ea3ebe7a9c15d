package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls a RoxServer over the Connect protocol.
type Client struct {
	interpret    *connect.Client[InterpretRequest, InterpretResponse]
	tokenize     *connect.Client[TokenizeRequest, TokenizeResponse]
	disassemble  *connect.Client[DisassembleRequest, DisassembleResponse]
	getExecution *connect.Client[GetExecutionRequest, InterpretResponse]
}

// NewClient creates a client for the service at baseURL, e.g.
// "http://localhost:4567".
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	codec := connect.WithCodec(cborCodec{})
	return &Client{
		interpret:    connect.NewClient[InterpretRequest, InterpretResponse](httpClient, baseURL+InterpretProcedure, codec),
		tokenize:     connect.NewClient[TokenizeRequest, TokenizeResponse](httpClient, baseURL+TokenizeProcedure, codec),
		disassemble:  connect.NewClient[DisassembleRequest, DisassembleResponse](httpClient, baseURL+DisassembleProcedure, codec),
		getExecution: connect.NewClient[GetExecutionRequest, InterpretResponse](httpClient, baseURL+GetExecutionProcedure, codec),
	}
}

// Interpret runs a program remotely.
func (c *Client) Interpret(ctx context.Context, req *InterpretRequest) (*InterpretResponse, error) {
	resp, err := c.interpret.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Tokenize scans source remotely.
func (c *Client) Tokenize(ctx context.Context, req *TokenizeRequest) (*TokenizeResponse, error) {
	resp, err := c.tokenize.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Disassemble renders a program listing remotely.
func (c *Client) Disassemble(ctx context.Context, req *DisassembleRequest) (*DisassembleResponse, error) {
	resp, err := c.disassemble.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// GetExecution fetches a recorded Interpret result.
func (c *Client) GetExecution(ctx context.Context, id string) (*InterpretResponse, error) {
	resp, err := c.getExecution.CallUnary(ctx, connect.NewRequest(&GetExecutionRequest{ExecutionID: id}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
