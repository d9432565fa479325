package grpc

import (
	"context"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const ownerIDKey ctxKey = "ownerID"

// OwnerIDFromContext returns the owner authenticated by the access token.
func OwnerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDKey).(string)
	return id, ok && id != ""
}

// accessTokenInterceptor authenticates owner methods. A valid token counts as
// owner activity and is recorded as a check-in.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	ownerID, err := auth.GetOwnerIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	if err := s.owners.CheckIn(ctx, ownerID); err != nil {
		return nil, toStatus(err)
	}

	ctx = context.WithValue(ctx, ownerIDKey, ownerID)
	ctx = logging.WithAttrs(ctx, "owner_id", ownerID)
	return handler(ctx, req)
}
