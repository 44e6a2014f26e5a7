package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "losskeeper.LedgerService"

const (
	LedgerService_Register_FullMethodName     = "/" + ServiceName + "/Register"
	LedgerService_Login_FullMethodName        = "/" + ServiceName + "/Login"
	LedgerService_RefreshToken_FullMethodName = "/" + ServiceName + "/RefreshToken"
	LedgerService_Ping_FullMethodName         = "/" + ServiceName + "/Ping"
	LedgerService_ListEntries_FullMethodName  = "/" + ServiceName + "/ListEntries"
	LedgerService_GetEntry_FullMethodName     = "/" + ServiceName + "/GetEntry"
	LedgerService_CreateEntry_FullMethodName  = "/" + ServiceName + "/CreateEntry"
	LedgerService_UpdateEntry_FullMethodName  = "/" + ServiceName + "/UpdateEntry"
	LedgerService_DeleteEntry_FullMethodName  = "/" + ServiceName + "/DeleteEntry"
)

// LedgerServiceServer is implemented by the remote store.
type LedgerServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	ListEntries(context.Context, *ListEntriesRequest) (*ListEntriesResponse, error)
	GetEntry(context.Context, *GetEntryRequest) (*GetEntryResponse, error)
	CreateEntry(context.Context, *CreateEntryRequest) (*CreateEntryResponse, error)
	UpdateEntry(context.Context, *UpdateEntryRequest) (*UpdateEntryResponse, error)
	DeleteEntry(context.Context, *DeleteEntryRequest) (*DeleteEntryResponse, error)
}

// UnimplementedLedgerServiceServer can be embedded to satisfy the
// interface with methods that return codes.Unimplemented.
type UnimplementedLedgerServiceServer struct{}

func (UnimplementedLedgerServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedLedgerServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedLedgerServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedLedgerServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedLedgerServiceServer) ListEntries(context.Context, *ListEntriesRequest) (*ListEntriesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListEntries not implemented")
}
func (UnimplementedLedgerServiceServer) GetEntry(context.Context, *GetEntryRequest) (*GetEntryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetEntry not implemented")
}
func (UnimplementedLedgerServiceServer) CreateEntry(context.Context, *CreateEntryRequest) (*CreateEntryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateEntry not implemented")
}
func (UnimplementedLedgerServiceServer) UpdateEntry(context.Context, *UpdateEntryRequest) (*UpdateEntryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateEntry not implemented")
}
func (UnimplementedLedgerServiceServer) DeleteEntry(context.Context, *DeleteEntryRequest) (*DeleteEntryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteEntry not implemented")
}

// unary adapts a typed server method to grpc.MethodHandler, decoding the
// request and routing through the interceptor chain.
func unary[Req, Resp any](fullMethod string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LedgerService_ServiceDesc is the grpc.ServiceDesc for LedgerService.
var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(LedgerService_Register_FullMethodName, LedgerServiceServer.Register)},
		{MethodName: "Login", Handler: unary(LedgerService_Login_FullMethodName, LedgerServiceServer.Login)},
		{MethodName: "RefreshToken", Handler: unary(LedgerService_RefreshToken_FullMethodName, LedgerServiceServer.RefreshToken)},
		{MethodName: "Ping", Handler: unary(LedgerService_Ping_FullMethodName, LedgerServiceServer.Ping)},
		{MethodName: "ListEntries", Handler: unary(LedgerService_ListEntries_FullMethodName, LedgerServiceServer.ListEntries)},
		{MethodName: "GetEntry", Handler: unary(LedgerService_GetEntry_FullMethodName, LedgerServiceServer.GetEntry)},
		{MethodName: "CreateEntry", Handler: unary(LedgerService_CreateEntry_FullMethodName, LedgerServiceServer.CreateEntry)},
		{MethodName: "UpdateEntry", Handler: unary(LedgerService_UpdateEntry_FullMethodName, LedgerServiceServer.UpdateEntry)},
		{MethodName: "DeleteEntry", Handler: unary(LedgerService_DeleteEntry_FullMethodName, LedgerServiceServer.DeleteEntry)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "losskeeper/ledger",
}

func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

// PublicMethods do not require an access token.
var PublicMethods = map[string]bool{
	LedgerService_Register_FullMethodName:     true,
	LedgerService_Login_FullMethodName:        true,
	LedgerService_RefreshToken_FullMethodName: true,
	LedgerService_Ping_FullMethodName:         true,
}
