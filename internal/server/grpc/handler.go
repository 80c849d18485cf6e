package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/credstack/internal/server/auth"
	"github.com/dmitrijs2005/credstack/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func authResponse(r *services.AuthResult) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"user_id":    r.UserID,
		"email":      r.Email,
		"token":      r.Token,
		"expires_at": r.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email := stringField(req, "email")

	res, err := s.users.Register(ctx, email, stringField(req, "password"), stringField(req, "name"))
	if err != nil {
		s.logger.Warn(ctx, "registration failed", "error", err)
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", res.UserID)
	return authResponse(res)
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.users.Login(ctx, stringField(req, "email"), stringField(req, "password"))
	if err != nil {
		s.logger.Warn(ctx, "login failed", "error", err)
		return nil, toStatus(err)
	}
	return authResponse(res)
}

func (s *GRPCServer) RefreshToken(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	res, err := s.users.Refresh(ctx, id.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	return authResponse(res)
}

func (s *GRPCServer) IssueAPIToken(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	token, err := s.users.IssueAPIToken(ctx, id.UserID)
	if err != nil {
		s.logger.Error(ctx, "issue api token", "user_id", id.UserID, "error", err)
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"api_token": token})
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, ok := auth.FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return structpb.NewStruct(map[string]any{
		"user_id":    id.UserID,
		"email":      id.Email,
		"issued_at":  id.IssuedAt.UTC().Format(time.RFC3339),
		"expires_at": id.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
