package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/dmitrijs2005/credstack/internal/logging"
	"github.com/dmitrijs2005/credstack/internal/server/auth"
	"github.com/dmitrijs2005/credstack/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ---- fakes ----

type fakeUsers struct {
	regResp   *services.AuthResult
	regErr    error
	loginResp *services.AuthResult
	loginErr  error
	refResp   *services.AuthResult
	refErr    error
	apiToken  string
	apiErr    error
	identity  auth.Identity
	authErr   error

	gotEmail, gotPassword, gotName, gotUserID string
}

func (f *fakeUsers) Register(_ context.Context, email, password, name string) (*services.AuthResult, error) {
	f.gotEmail, f.gotPassword, f.gotName = email, password, name
	return f.regResp, f.regErr
}

func (f *fakeUsers) Login(_ context.Context, email, password string) (*services.AuthResult, error) {
	f.gotEmail, f.gotPassword = email, password
	return f.loginResp, f.loginErr
}

func (f *fakeUsers) Refresh(_ context.Context, userID string) (*services.AuthResult, error) {
	f.gotUserID = userID
	return f.refResp, f.refErr
}

func (f *fakeUsers) IssueAPIToken(_ context.Context, userID string) (string, error) {
	f.gotUserID = userID
	return f.apiToken, f.apiErr
}

func (f *fakeUsers) Authenticate(string) (auth.Identity, error) {
	return f.identity, f.authErr
}

// ---- helpers ----

func newServer(u userSvc) *GRPCServer {
	return &GRPCServer{address: "127.0.0.1:0", users: u, logger: logging.Nop{}}
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func codeOf(err error) codes.Code {
	return status.Code(err)
}

var expires = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// ---- tests ----

func TestRegister_OK(t *testing.T) {
	u := &fakeUsers{regResp: &services.AuthResult{UserID: "u1", Email: "a@b.com", Token: "tok", ExpiresAt: expires}}
	s := newServer(u)

	resp, err := s.Register(context.Background(), mustStruct(t, map[string]any{
		"email": "a@b.com", "password": "Secret123", "name": "Ann",
	}))
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.gotEmail != "a@b.com" || u.gotPassword != "Secret123" || u.gotName != "Ann" {
		t.Fatalf("unexpected args: %q %q %q", u.gotEmail, u.gotPassword, u.gotName)
	}
	if stringField(resp, "token") != "tok" || stringField(resp, "user_id") != "u1" {
		t.Fatalf("unexpected response: %v", resp)
	}
	if stringField(resp, "expires_at") != "2024-03-01T12:00:00Z" {
		t.Fatalf("unexpected expires_at: %q", stringField(resp, "expires_at"))
	}
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", common.NewValidationError("Password must be at least 8 characters"), codes.InvalidArgument},
		{"duplicate", common.ErrDuplicateEmail, codes.AlreadyExists},
		{"internal", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServer(&fakeUsers{regErr: tt.err})
			_, err := s.Register(context.Background(), mustStruct(t, map[string]any{}))
			if codeOf(err) != tt.code {
				t.Fatalf("want %v, got %v", tt.code, err)
			}
		})
	}
}

func TestRegister_ValidationReasonPassedThrough(t *testing.T) {
	s := newServer(&fakeUsers{regErr: common.NewValidationError("Invalid email format")})
	_, err := s.Register(context.Background(), mustStruct(t, map[string]any{}))
	if st, _ := status.FromError(err); st.Message() != "Invalid email format" {
		t.Fatalf("unexpected message: %q", st.Message())
	}
}

func TestLogin_OKAndErrors(t *testing.T) {
	u := &fakeUsers{loginResp: &services.AuthResult{UserID: "u1", Token: "tok", ExpiresAt: expires}}
	s := newServer(u)
	resp, err := s.Login(context.Background(), mustStruct(t, map[string]any{"email": "a@b.com", "password": "pw"}))
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if stringField(resp, "token") != "tok" {
		t.Fatalf("unexpected token in %v", resp)
	}

	s = newServer(&fakeUsers{loginErr: common.ErrInvalidCredentials})
	if _, err := s.Login(context.Background(), mustStruct(t, map[string]any{})); codeOf(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}

	s = newServer(&fakeUsers{loginErr: &common.AccountLockedError{Until: expires}})
	_, err = s.Login(context.Background(), mustStruct(t, map[string]any{}))
	if codeOf(err) != codes.PermissionDenied {
		t.Fatalf("want PermissionDenied, got %v", err)
	}
}

func TestProtected_RequireIdentity(t *testing.T) {
	s := newServer(&fakeUsers{})
	ctx := context.Background()
	if _, err := s.RefreshToken(ctx, &structpb.Struct{}); codeOf(err) != codes.Unauthenticated {
		t.Fatalf("RefreshToken: want Unauthenticated, got %v", err)
	}
	if _, err := s.IssueAPIToken(ctx, &structpb.Struct{}); codeOf(err) != codes.Unauthenticated {
		t.Fatalf("IssueAPIToken: want Unauthenticated, got %v", err)
	}
	if _, err := s.WhoAmI(ctx, &structpb.Struct{}); codeOf(err) != codes.Unauthenticated {
		t.Fatalf("WhoAmI: want Unauthenticated, got %v", err)
	}
}

func TestProtected_WithIdentity(t *testing.T) {
	u := &fakeUsers{
		refResp:  &services.AuthResult{UserID: "u1", Token: "tok2", ExpiresAt: expires},
		apiToken: "api-xyz",
	}
	s := newServer(u)
	ctx := auth.NewContext(context.Background(), auth.Identity{UserID: "u1", Email: "a@b.com", IssuedAt: expires.Add(-time.Hour), ExpiresAt: expires})

	resp, err := s.RefreshToken(ctx, &structpb.Struct{})
	if err != nil || stringField(resp, "token") != "tok2" || u.gotUserID != "u1" {
		t.Fatalf("RefreshToken: resp=%v err=%v user=%q", resp, err, u.gotUserID)
	}

	resp, err = s.IssueAPIToken(ctx, &structpb.Struct{})
	if err != nil || stringField(resp, "api_token") != "api-xyz" {
		t.Fatalf("IssueAPIToken: resp=%v err=%v", resp, err)
	}

	resp, err = s.WhoAmI(ctx, &structpb.Struct{})
	if err != nil {
		t.Fatalf("WhoAmI: %v", err)
	}
	if stringField(resp, "email") != "a@b.com" || stringField(resp, "issued_at") != "2024-03-01T11:00:00Z" {
		t.Fatalf("unexpected WhoAmI: %v", resp)
	}

	u.refErr = common.ErrorUnauthorized
	if _, err := s.RefreshToken(ctx, &structpb.Struct{}); codeOf(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated for vanished user, got %v", err)
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrTokenExpired, codes.Unauthenticated},
		{common.ErrTokenMalformed, codes.Unauthenticated},
		{common.ErrorUnauthorized, codes.Unauthenticated},
		{common.ErrInvalidCredentials, codes.Unauthenticated},
		{common.ErrDuplicateEmail, codes.AlreadyExists},
		{common.NewValidationError("x"), codes.InvalidArgument},
		{&common.AccountLockedError{Until: expires}, codes.PermissionDenied},
		{common.ErrorInternal, codes.Internal},
	}
	for _, tt := range tests {
		if got := codeOf(toStatus(tt.err)); got != tt.code {
			t.Fatalf("%v: want %v, got %v", tt.err, tt.code, got)
		}
	}

	st, _ := status.FromError(toStatus(errors.New("db error: connection refused")))
	if st.Message() != "internal error" {
		t.Fatalf("internal details leaked: %q", st.Message())
	}
}
