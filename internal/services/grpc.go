package services

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-triage/internal/api"
	"github.com/miradorstack/mirador-triage/internal/models"
)

// GRPCHandler adapts TriageService to the structpb gRPC surface.
type GRPCHandler struct {
	service api.Ranker
	logger  *slog.Logger
}

// NewGRPCHandler wraps a ranker for registration with api.NewServer.
func NewGRPCHandler(logger *slog.Logger, service api.Ranker) *GRPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHandler{service: service, logger: logger}
}

// Rank decodes the request document, ranks it and encodes the report.
func (h *GRPCHandler) Rank(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request cannot be nil")
	}
	if h.service == nil {
		return nil, status.Error(codes.FailedPrecondition, "triage service not configured")
	}

	domainReq, err := api.ParseRankRequest(req.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	report, err := h.service.Rank(ctx, domainReq)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := api.ReportToStruct(report)
	if err != nil {
		h.logger.Error("encode report", slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode report")
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case models.IsInvalidInput(err), errors.Is(err, api.ErrBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "ranking failed")
	}
}
