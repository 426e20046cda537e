package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/trajflow/engine/internal/trajectory"
)

// Client wraps a StreamRecords call so callers exchange typed
// trajectory.Record/Emission values instead of raw structpb.Struct
// messages.
type Client struct {
	stream grpc.ClientStream
}

// NewClient opens the StreamRecords stream against conn.
func NewClient(ctx context.Context, conn grpc.ClientConnInterface) (*Client, error) {
	stream, err := conn.NewStream(ctx, &serviceDesc.Streams[0], "/"+ServiceName+"/StreamRecords")
	if err != nil {
		return nil, err
	}
	return &Client{stream: stream}, nil
}

// Send encodes rec as a structpb.Struct and writes it to the stream.
func (c *Client) Send(rec trajectory.Record) error {
	msg, err := recordToStruct(rec)
	if err != nil {
		return err
	}
	return c.stream.SendMsg(msg)
}

// Recv reads the next Emission from the stream.
func (c *Client) Recv() (Emission, error) {
	msg := new(structpb.Struct)
	if err := c.stream.RecvMsg(msg); err != nil {
		return Emission{}, err
	}
	return emissionFromStruct(msg)
}

// CloseSend half-closes the client's send direction.
func (c *Client) CloseSend() error {
	return c.stream.CloseSend()
}
