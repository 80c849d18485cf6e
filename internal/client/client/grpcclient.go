package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credstack/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	timeout     time.Duration
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func fullMethod(name string) string {
	return "/" + common.AuthServiceName + "/" + name
}

// NewGRPCClient creates a lazily connecting client. Every call is bounded
// by timeout.
func NewGRPCClient(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	conn, err := grpc.NewClient(endpointURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &GRPCClient{endpointURL: endpointURL, conn: conn, timeout: timeout}, nil
}

func (s *GRPCClient) invoke(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, fullMethod(method), req, resp); err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func timeField(s *structpb.Struct, key string) time.Time {
	t, _ := time.Parse(time.RFC3339, str(s, key))
	return t
}

func toSession(resp *structpb.Struct) *Session {
	return &Session{
		UserID:    str(resp, "user_id"),
		Email:     str(resp, "email"),
		Token:     str(resp, "token"),
		ExpiresAt: timeField(resp, "expires_at"),
	}
}

func (s *GRPCClient) Register(ctx context.Context, email, password, name string) (*Session, error) {
	resp, err := s.invoke(ctx, "Register", map[string]any{"email": email, "password": password, "name": name})
	if err != nil {
		return nil, err
	}
	return toSession(resp), nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := s.invoke(ctx, "Login", map[string]any{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	return toSession(resp), nil
}

func (s *GRPCClient) RefreshToken(ctx context.Context, token string) (*Session, error) {
	resp, err := s.invoke(withAccessToken(ctx, token), "RefreshToken", nil)
	if err != nil {
		return nil, err
	}
	return toSession(resp), nil
}

func (s *GRPCClient) IssueAPIToken(ctx context.Context, token string) (string, error) {
	resp, err := s.invoke(withAccessToken(ctx, token), "IssueAPIToken", nil)
	if err != nil {
		return "", err
	}
	return str(resp, "api_token"), nil
}

func (s *GRPCClient) WhoAmI(ctx context.Context, token string) (*Identity, error) {
	resp, err := s.invoke(withAccessToken(ctx, token), "WhoAmI", nil)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID:    str(resp, "user_id"),
		Email:     str(resp, "email"),
		IssuedAt:  timeField(resp, "issued_at"),
		ExpiresAt: timeField(resp, "expires_at"),
	}, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// mapError turns gRPC statuses into client errors, keeping the server's
// message for display.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrLocked, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
