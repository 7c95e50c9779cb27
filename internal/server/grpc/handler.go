package grpc

import (
	"context"
	"errors"
	"math"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/dmitrijs2005/socialid/internal/server/services"
	"github.com/dmitrijs2005/socialid/internal/server/views"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	return structpb.NewStruct(map[string]any{"status": "OK"})

}

func (s *GRPCServer) VerifySocialMedia(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	platform, _ := models.ParsePlatform(stringField(req, "platform"))
	cred, err := s.social.Verify(ctx, services.VerifyRequest{
		PublicKey: stringField(req, "publicKey"),
		Platform:  platform,
		Username:  stringField(req, "username"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Verified", "platform", platform.String(), "credential_id", cred.ID)
	return credentialStruct(cred)

}

func (s *GRPCServer) GetCredential(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	id := stringField(req, "id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	cred, err := s.social.Get(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return credentialStruct(cred)

}

func (s *GRPCServer) ListCredentials(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	f := services.ListFilter{
		UserID: stringField(req, "userId"),
		Page:   intField(req, "page"),
		Limit:  intField(req, "limit"),
	}
	if raw := stringField(req, "platform"); raw != "" {
		f.Platform, _ = models.ParsePlatform(raw)
	}

	creds, err := s.social.List(ctx, f)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return credentialsStruct(creds)

}

func (s *GRPCServer) ListMyCredentials(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	creds, err := s.social.ListByUser(ctx, userIDFromContext(ctx), intField(req, "page"), intField(req, "limit"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return credentialsStruct(creds)

}

func (s *GRPCServer) DeleteCredential(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	id := stringField(req, "id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	if err := s.social.Delete(ctx, userIDFromContext(ctx), id); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &structpb.Struct{}, nil

}

// toStatus maps service errors to gRPC codes. Domain errors keep their
// message; anything else is reported as an internal error.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, common.ErrPlatformNotFound), errors.Is(err, common.ErrorNotFound):
		code = codes.NotFound
	case errors.Is(err, common.ErrInvalidPublicKey):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrPlatformVerificationFailed):
		code = codes.FailedPrecondition
	case errors.Is(err, common.ErrIdentityMismatch):
		code = codes.PermissionDenied
	case errors.Is(err, common.ErrAlreadyVerified):
		code = codes.AlreadyExists
	case errors.Is(err, common.ErrCredentialConflict):
		code = codes.Aborted
	case errors.Is(err, common.ErrUpstreamTimeout):
		code = codes.DeadlineExceeded
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		code = codes.Unauthenticated
	}

	if code == codes.Internal {
		s.logger.Error(ctx, err.Error())
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, common.ErrorName(err)+": "+err.Error())
}

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// intField reads a numeric field, bounded to the int32 range so that
// out-of-range or non-finite numbers cannot wrap around.
func intField(req *structpb.Struct, name string) int {
	v := req.GetFields()[name].GetNumberValue()
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

func credentialStruct(c *models.Credential) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(views.NewCredential(c).Map())
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return s, nil
}

func credentialsStruct(cs []*models.Credential) (*structpb.Struct, error) {
	items := make([]any, 0, len(cs))
	for _, v := range views.NewCredentials(cs) {
		items = append(items, v.Map())
	}
	s, err := structpb.NewStruct(map[string]any{"credentials": items})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return s, nil
}
