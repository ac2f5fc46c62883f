package health

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Client queries a remote gRPC health service.
type Client struct {
	conn    *grpc.ClientConn
	svc     healthpb.HealthClient
	service string
}

// Dial creates a new client with sensible defaults (insecure transport).
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, svc: healthpb.NewHealthClient(conn), service: ServiceName}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Check returns the serving status name, e.g. "SERVING".
func (c *Client) Check(ctx context.Context) (string, error) {
	resp, err := c.svc.Check(ctx, &healthpb.HealthCheckRequest{Service: c.service})
	if err != nil {
		return "", err
	}
	return resp.GetStatus().String(), nil
}
