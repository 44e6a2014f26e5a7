package grpc

import (
	"context"

	"github.com/dmitrijs2005/losskeeper/internal/rpc"
)

func (s *GRPCServer) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request", "username", req.Username)

	result, err := s.users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "username", result.UserName, "user_id", result.ID)
	return &rpc.RegisterResponse{UserID: result.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {

	userID, tokens, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &rpc.LoginResponse{UserID: userID, AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.RefreshTokenResponse, error) {

	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &rpc.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {

	return &rpc.PingResponse{Status: "OK"}, nil

}

func (s *GRPCServer) ListEntries(ctx context.Context, req *rpc.ListEntriesRequest) (*rpc.ListEntriesResponse, error) {
	owner, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.entries.List(ctx, owner)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.ListEntriesResponse{Entries: list}, nil
}

func (s *GRPCServer) GetEntry(ctx context.Context, req *rpc.GetEntryRequest) (*rpc.GetEntryResponse, error) {
	owner, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	e, err := s.entries.Get(ctx, owner, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.GetEntryResponse{Entry: *e}, nil
}

func (s *GRPCServer) CreateEntry(ctx context.Context, req *rpc.CreateEntryRequest) (*rpc.CreateEntryResponse, error) {
	owner, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	e, err := s.entries.Create(ctx, owner, req.Entry)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Debug(ctx, "Entry created", "user_id", owner, "entry_id", e.ID, "client_ref", e.ClientRef)
	return &rpc.CreateEntryResponse{Entry: *e}, nil
}

func (s *GRPCServer) UpdateEntry(ctx context.Context, req *rpc.UpdateEntryRequest) (*rpc.UpdateEntryResponse, error) {
	owner, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	e, err := s.entries.Update(ctx, owner, req.Entry)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.UpdateEntryResponse{Entry: *e}, nil
}

func (s *GRPCServer) DeleteEntry(ctx context.Context, req *rpc.DeleteEntryRequest) (*rpc.DeleteEntryResponse, error) {
	owner, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.entries.Delete(ctx, owner, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.DeleteEntryResponse{}, nil
}
