package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/common"
	"github.com/dmitrijs2005/losskeeper/internal/logging"
	"github.com/dmitrijs2005/losskeeper/internal/rpc"
	"github.com/dmitrijs2005/losskeeper/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer(limiter *rate.Limiter) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", logging.Discard(), newMemUsers(), newMemEntries(), testSecret, limiter)
}

func withToken(token string) context.Context {
	md := metadata.New(map[string]string{common.AccessTokenHeaderName: token})
	return metadata.NewIncomingContext(context.Background(), md)
}

var listInfo = &grpc.UnaryServerInfo{FullMethod: rpc.LedgerService_ListEntries_FullMethodName}

func TestAccessTokenInterceptor_PublicMethodsSkipAuth(t *testing.T) {
	s := newTestServer(nil)

	for method := range rpc.PublicMethods {
		called := false
		h := func(ctx context.Context, req any) (any, error) {
			called = true
			return "ok", nil
		}
		resp, err := s.accessTokenInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: method}, h)
		require.NoError(t, err, method)
		assert.True(t, called, method)
		assert.Equal(t, "ok", resp)
	}
}

func TestAccessTokenInterceptor_MissingToken(t *testing.T) {
	s := newTestServer(nil)

	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, listInfo, h)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "missing token", status.Convert(err).Message())
}

func TestAccessTokenInterceptor_InvalidToken(t *testing.T) {
	s := newTestServer(nil)

	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called for invalid token")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(withToken("not-a-valid-jwt"), nil, listInfo, h)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, common.ErrInvalidToken.Error(), status.Convert(err).Message())
}

func TestAccessTokenInterceptor_ExpiredTokenAsksForRefresh(t *testing.T) {
	s := newTestServer(nil)

	tok, err := auth.GenerateToken("u1", []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	_, err = s.accessTokenInterceptor(withToken(tok), nil, listInfo, func(context.Context, any) (any, error) {
		t.Fatal("handler should not be called for expired token")
		return nil, nil
	})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, common.ErrTokenExpired.Error(), status.Convert(err).Message())
}

func TestAccessTokenInterceptor_ValidTokenSetsUserID(t *testing.T) {
	s := newTestServer(nil)

	tok, err := auth.GenerateToken("user-123", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	var got string
	resp, err := s.accessTokenInterceptor(withToken(tok), nil, listInfo, func(ctx context.Context, req any) (any, error) {
		got, err = userIDFromContext(ctx)
		return "ok", err
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "user-123", got)
}

func TestRateLimitInterceptor(t *testing.T) {
	s := newTestServer(rate.NewLimiter(rate.Limit(0), 1))
	h := func(ctx context.Context, req any) (any, error) { return "ok", nil }
	ctx := context.Background()

	_, err := s.rateLimitInterceptor(ctx, nil, listInfo, h)
	require.NoError(t, err, "burst of one is allowed")

	_, err = s.rateLimitInterceptor(ctx, nil, listInfo, h)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	ping := &grpc.UnaryServerInfo{FullMethod: rpc.LedgerService_Ping_FullMethodName}
	_, err = s.rateLimitInterceptor(ctx, nil, ping, h)
	assert.NoError(t, err, "ping is never limited")
}

func TestRateLimitInterceptor_Disabled(t *testing.T) {
	s := newTestServer(nil)
	for i := 0; i < 100; i++ {
		_, err := s.rateLimitInterceptor(context.Background(), nil, listInfo, func(context.Context, any) (any, error) { return nil, nil })
		require.NoError(t, err)
	}
}

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := newTestServer(nil)
	want := status.Error(codes.Internal, "boom")

	resp, err := s.loggingInterceptor(context.Background(), nil, listInfo, func(context.Context, any) (any, error) {
		return "partial", want
	})
	assert.Equal(t, "partial", resp)
	assert.Equal(t, want, err)
}
