package evod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// DefaultEventInterval is how often StreamRunEvents polls a run.
const DefaultEventInterval = 200 * time.Millisecond

// GRPCServer implements EvolutionServiceServer on a RunStore and RunExecutor.
type GRPCServer struct {
	store         *RunStore
	executor      *RunExecutor
	log           *slog.Logger
	eventInterval time.Duration
}

var _ EvolutionServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(store *RunStore, executor *RunExecutor, log *slog.Logger) *GRPCServer {
	if log == nil {
		log = logger.Default
	}
	return &GRPCServer{
		store:         store,
		executor:      executor,
		log:           log,
		eventInterval: DefaultEventInterval,
	}
}

// grpcError maps daemon errors to gRPC status codes.
func grpcError(err error) error {
	switch {
	case errors.Is(err, config.ErrInvalidSpec), errors.Is(err, ErrRunIDMissing):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrRunExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrRunNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrRunTerminal), errors.Is(err, errMetricsUnavailable):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrQueueFull):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct converts v to a Struct through its JSON encoding.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

func runStruct(run models.Run) (*structpb.Struct, error) {
	return toStruct(map[string]any{"run": run})
}

func (s *GRPCServer) CreateRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if in == nil || len(in.GetFields()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "spec is required")
	}
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var req createRunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid request: %v", err))
	}

	run, err := createRun(s.store, s.executor, &req)
	if err != nil {
		return nil, grpcError(err)
	}
	s.log.Info("run created", "run_id", run.ID, "problem", run.Problem, "started", req.Start)
	return runStruct(run)
}

func (s *GRPCServer) StartRun(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	run, err := s.executor.Start(in.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	s.log.Info("run started", "run_id", run.ID)
	return runStruct(run)
}

func (s *GRPCServer) StopRun(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	run, err := s.executor.Stop(in.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	s.log.Info("run cancelled", "run_id", run.ID)
	return runStruct(run)
}

func (s *GRPCServer) GetRun(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if in.GetValue() == "" {
		return nil, grpcError(ErrRunIDMissing)
	}
	run, ok := s.store.Get(in.GetValue())
	if !ok {
		return nil, grpcError(fmt.Errorf("%w: %s", ErrRunNotFound, in.GetValue()))
	}
	return runStruct(run)
}

func (s *GRPCServer) ListRuns(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string]any{"runs": s.store.List(0, 0, "")})
}

func (s *GRPCServer) GetRunMetrics(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if in.GetValue() == "" {
		return nil, grpcError(ErrRunIDMissing)
	}
	resp, err := runMetrics(s.store, in.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(resp)
}

// StreamRunEvents sends a "status" event whenever the run changes status and
// a "progress" event whenever it completes a generation. The stream ends
// after the terminal status event.
func (s *GRPCServer) StreamRunEvents(in *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	runID := in.GetValue()
	if runID == "" {
		return grpcError(ErrRunIDMissing)
	}
	run, ok := s.store.Get(runID)
	if !ok {
		return grpcError(fmt.Errorf("%w: %s", ErrRunNotFound, runID))
	}

	send := func(event string, payload any) error {
		msg, err := toStruct(map[string]any{
			"type":       event,
			"run_id":     runID,
			"at_unix_ms": time.Now().UTC().UnixMilli(),
			event:        payload,
		})
		if err != nil {
			return err
		}
		return stream.Send(msg)
	}

	if err := send("status", run); err != nil {
		return err
	}
	if run.Status.Terminal() {
		return nil
	}
	previous := run

	ticker := time.NewTicker(s.eventInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		case <-ticker.C:
			run, ok := s.store.Get(runID)
			if !ok {
				return grpcError(fmt.Errorf("%w: %s", ErrRunNotFound, runID))
			}
			if run.Progress.Generation != previous.Progress.Generation || run.Progress.BestFitness != previous.Progress.BestFitness {
				if err := send("progress", run.Progress); err != nil {
					return err
				}
			}
			if run.Status != previous.Status {
				if err := send("status", run); err != nil {
					return err
				}
			}
			if run.Status.Terminal() {
				return nil
			}
			previous = run
		}
	}
}
