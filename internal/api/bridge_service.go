package api

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/botpanel/internal/bot"
	"github.com/matheus3301/botpanel/internal/bridge"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Dispatcher is the part of the bridge the service exposes.
type Dispatcher interface {
	Call(ctx context.Context, name string, args json.RawMessage) (any, error)
	Attach() (<-chan bridge.Event, func())
	Attached() bool
}

// BridgeService implements the Bridge gRPC service.
type BridgeService struct {
	dispatcher  Dispatcher
	sessionName string
	startedAt   time.Time
	logger      *zap.Logger
}

// NewBridgeService creates a new bridge service.
func NewBridgeService(sessionName string, d Dispatcher, logger *zap.Logger) *BridgeService {
	return &BridgeService{
		dispatcher:  d,
		sessionName: sessionName,
		startedAt:   time.Now(),
		logger:      logger,
	}
}

func (s *BridgeService) Call(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	args, err := ValueJSON(req.Args)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "%v", err)
	}
	result, err := s.dispatcher.Call(ctx, req.Name, args)
	switch {
	case errors.Is(err, bridge.ErrUnknownCommand):
		return nil, grpcstatus.Errorf(codes.Unimplemented, "%v", err)
	case errors.Is(err, bridge.ErrInvalidArgs):
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "%v", err)
	case errors.Is(err, bot.ErrNotRunning):
		return nil, grpcstatus.Errorf(codes.Unavailable, "%v", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, grpcstatus.FromContextError(err).Err()
	case err != nil:
		return &CallResponse{Error: err.Error()}, nil
	}

	val, err := ToValue(result)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "encode result: %v", err)
	}
	return &CallResponse{Result: val}, nil
}

// Watch attaches the caller as the bridge observer. The stream ends when a
// newer observer attaches.
func (s *BridgeService) Watch(_ *emptypb.Empty, stream WatchServer) error {
	events, detach := s.dispatcher.Attach()
	defer detach()
	s.logger.Info("observer attached")

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return grpcstatus.Error(codes.Aborted, "replaced by a newer observer")
			}
			payload, err := ToValue(evt.Payload)
			if err != nil {
				s.logger.Warn("encode event payload", zap.String("event", evt.Name), zap.Error(err))
				continue
			}
			if err := stream.Send(&EventEnvelope{
				EventID:          uuid.New().String(),
				Session:          s.sessionName,
				Name:             evt.Name,
				Payload:          payload,
				OccurredAtUnixMs: evt.Timestamp.UnixMilli(),
			}); err != nil {
				return err
			}
		case <-stream.Context().Done():
			s.logger.Info("observer detached")
			return nil
		}
	}
}

func (s *BridgeService) GetSession(_ context.Context, _ *emptypb.Empty) (*GetSessionResponse, error) {
	return &GetSessionResponse{
		Session:  s.sessionName,
		PID:      os.Getpid(),
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
		Attached: s.dispatcher.Attached(),
	}, nil
}
