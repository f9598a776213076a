// Package rpcstub demonstrates the interface boundary a real build-server
// client would implement to satisfy importsource.Source (spec §1 places
// "the RPC client that actually fetches imported bytes from a build
// server" out of scope). It is a thin, doc-only gRPC client: it issues
// requests over a real grpc.ClientConn using well-known protobuf wrapper
// messages, but no server is implemented anywhere in this module.
package rpcstub

import (
	"context"
	"fmt"
	"sync"

	"github.com/ironloom/assets/pkg/assetid"
	"github.com/ironloom/assets/pkg/importsource"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// FetchAssetMethod is the fully-qualified gRPC method name a real build
// server would expose. No .proto file ships with this module; the
// request/response shapes are the generic wrapper messages so this
// client needs no generated code to compile against a real server later.
const FetchAssetMethod = "/ironloom.assets.ImportService/FetchAsset"

// Client implements importsource.Source over a gRPC connection. Request
// issues a unary call per asset id and stashes the result for the next
// Poll; a production client would instead stream or batch these.
type Client struct {
	conn *grpc.ClientConn

	mu    sync.Mutex
	ready importsource.PollResult
}

// NewClient wraps an already-dialed connection. Dialing (choosing
// transport credentials, retry policy, target address) is the host
// engine's concern, not this package's.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

var _ importsource.Source = (*Client)(nil)

// Request fetches bytes for id over gRPC. The request/response bodies
// are wrapperspb.StringValue/BytesValue rather than a custom generated
// message, so this stub requires no protoc step; a real client would
// replace these with generated types sharing the same method name.
func (c *Client) Request(id assetid.AssetID) {
	req := wrapperspb.String(id.String())
	resp := new(wrapperspb.BytesValue)

	err := c.conn.Invoke(context.Background(), FetchAssetMethod, req, resp)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.ready.NotFound = append(c.ready.NotFound, id)
		return
	}
	c.ready.Imported = append(c.ready.Imported, importsource.ImportedBytes{
		AssetID: id,
		Bytes:   resp.GetValue(),
	})
}

// Poll implements importsource.Source.
func (c *Client) Poll() importsource.PollResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := c.ready
	c.ready = importsource.PollResult{}
	return result
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("rpcstub: close connection: %w", err)
	}
	return nil
}
