// Package grpc exposes the ledger over gRPC: the LedgerService handlers,
// the auth, rate-limit and logging interceptors, and the server lifecycle.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/losskeeper/internal/logging"
	"github.com/dmitrijs2005/losskeeper/internal/models"
	"github.com/dmitrijs2005/losskeeper/internal/rpc"
	servermodels "github.com/dmitrijs2005/losskeeper/internal/server/models"
	"github.com/dmitrijs2005/losskeeper/internal/server/services"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

// UserService is the account side the handlers need.
type UserService interface {
	Register(ctx context.Context, username, password string) (*servermodels.User, error)
	Login(ctx context.Context, username, password string) (string, *services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// EntryService is the ledger side the handlers need. ownerID always comes
// from the verified access token.
type EntryService interface {
	List(ctx context.Context, ownerID string) ([]models.Entry, error)
	Get(ctx context.Context, ownerID, id string) (*models.Entry, error)
	Create(ctx context.Context, ownerID string, e models.Entry) (*models.Entry, error)
	Update(ctx context.Context, ownerID string, e models.Entry) (*models.Entry, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type GRPCServer struct {
	rpc.UnimplementedLedgerServiceServer
	address   string
	users     UserService
	entries   EntryService
	logger    logging.Logger
	jwtSecret []byte
	limiter   *rate.Limiter
}

// NewGRPCServer wires the handlers. A nil limiter disables rate limiting.
func NewGRPCServer(a string, l logging.Logger, us UserService, es EntryService, secretKey string, limiter *rate.Limiter) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		entries:   es,
		jwtSecret: []byte(secretKey),
		limiter:   limiter,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingInterceptor,
		s.rateLimitInterceptor,
		s.accessTokenInterceptor,
	))
	rpc.RegisterLedgerServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping gRPC server...")
			srv.GracefulStop()
		case <-stopped:
		}
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
