// Package grpc exposes the LegacyLink services over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/services"
	"google.golang.org/grpc"
)

type OwnerService interface {
	CheckIn(ctx context.Context, ownerID string) error
	Status(ctx context.Context, ownerID string) (*services.OwnerStatus, error)
	SetCheckInFrequency(ctx context.Context, ownerID string, days int) error
}

type TrusteeService interface {
	Add(ctx context.Context, ownerID string, in *models.Trustee) (*models.Trustee, error)
	List(ctx context.Context, ownerID string) ([]*models.Trustee, error)
	Update(ctx context.Context, ownerID, trusteeID string, u services.TrusteeUpdate) (*models.Trustee, error)
	Remove(ctx context.Context, ownerID, trusteeID string) error
	RequestVerification(ctx context.Context, ownerID, trusteeID string) (string, error)
	Verify(ctx context.Context, trusteeID, code string) error
	Decline(ctx context.Context, trusteeID, code string) error
	NotifyManually(ctx context.Context, ownerID, trusteeID string) error
}

type ReleaseService interface {
	CreateItem(ctx context.Context, ownerID string, in *models.ProtectedItem) (*models.ProtectedItem, error)
	SetPublic(ctx context.Context, ownerID, itemID string, public bool) error
	AddGrant(ctx context.Context, ownerID string, in *models.AccessGrant) (*models.AccessGrant, error)
	ManualRelease(ctx context.Context, ownerID, itemID, trusteeID string) (*models.AccessGrant, error)
	Revoke(ctx context.Context, ownerID, itemID, trusteeID string) error
	CanAccess(ctx context.Context, itemID, trusteeID string) (bool, error)
	AccessibleItems(ctx context.Context, ownerID, trusteeID string) ([]*models.ProtectedItem, error)
	DownloadURL(ctx context.Context, itemID, trusteeID string) (string, error)
}

type ConflictService interface {
	CreateAsset(ctx context.Context, ownerID string, in *models.Asset) (*models.Asset, error)
	UpdateBeneficiaries(ctx context.Context, ownerID, assetID string, d models.BeneficiaryDesignation) error
	CheckAsset(ctx context.Context, ownerID, assetID string, will []string) (*services.CheckResult, error)
	List(ctx context.Context, ownerID string, unresolvedOnly bool) ([]*models.ConflictRecord, error)
	MarkInProgress(ctx context.Context, ownerID, id string) error
	Resolve(ctx context.Context, ownerID, id, notes string) (*models.ConflictRecord, error)
	Summary(ctx context.Context, ownerID string) (legacy.Summary, error)
}

// Services bundles what the handlers call into.
type Services struct {
	Owners    OwnerService
	Trustees  TrusteeService
	Release   ReleaseService
	Conflicts ConflictService
}

type GRPCServer struct {
	address   string
	owners    OwnerService
	trustees  TrusteeService
	release   ReleaseService
	conflicts ConflictService
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		owners:    svc.Owners,
		trustees:  svc.Trustees,
		release:   svc.Release,
		conflicts: svc.Conflicts,
		jwtSecret: []byte(secretKey),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv.RegisterService(&ServiceDesc, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	started := time.Now()
	ctx = logging.WithAttrs(ctx, "method", info.FullMethod)
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Warn(ctx, "request failed", "duration", time.Since(started).String(), "error", err)
	} else {
		s.logger.Debug(ctx, "request served", "duration", time.Since(started).String())
	}
	return resp, err
}
