// Package grpc exposes the identity services over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/socialid/internal/logging"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/dmitrijs2005/socialid/internal/server/services"
	"google.golang.org/grpc"
)

// SocialMedia is the service API the handlers depend on.
type SocialMedia interface {
	Verify(ctx context.Context, req services.VerifyRequest) (*models.Credential, error)
	Get(ctx context.Context, id string) (*models.Credential, error)
	List(ctx context.Context, f services.ListFilter) ([]*models.Credential, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]*models.Credential, error)
	Delete(ctx context.Context, userID, id string) error
}

type GRPCServer struct {
	address   string
	social    SocialMedia
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, social SocialMedia, secretKey string) (*GRPCServer, error) {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		social:    social,
		jwtSecret: []byte(secretKey),
	}, nil
}

// newServer builds the grpc.Server with interceptors and the service
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.recoveryInterceptor, s.accessTokenInterceptor))
	RegisterIdentityServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
