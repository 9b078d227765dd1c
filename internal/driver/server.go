package driver

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region server
// NewServer exposes backend over the driver protocol. It is used to serve the
// in-memory viewer to out-of-process agents.
func NewServer(backend Backend, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{backend: backend, logger: logger.Named("driver-server")}
	opts = append(opts, grpc.UnknownServiceHandler(h.serve))
	return grpc.NewServer(opts...)
}

type handler struct {
	backend Backend
	logger  *zap.Logger
}

func (h *handler) serve(_ any, stream grpc.ServerStream) error {
	method, ok := grpc.MethodFromServerStream(stream)
	if !ok {
		return status.Error(codes.Internal, "no method on stream")
	}
	ctx := stream.Context()
	h.logger.Debug("rpc", zap.String("method", method))

	switch method {
	case methodGetViewState:
		if err := stream.RecvMsg(&emptypb.Empty{}); err != nil {
			return err
		}
		doc, err := h.backend.GetViewState(ctx)
		if err != nil {
			return toStatus(err)
		}
		resp, err := documentToStruct(doc)
		if err != nil {
			return status.Error(codes.Internal, err.Error())
		}
		return stream.SendMsg(resp)

	case methodSetViewState:
		req := &structpb.Struct{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		doc, err := structToDocument(req)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		if err := h.backend.SetViewState(ctx, doc); err != nil {
			return toStatus(err)
		}
		return stream.SendMsg(&emptypb.Empty{})

	case methodDispatchPointer:
		req := &structpb.Struct{}
		if err := stream.RecvMsg(req); err != nil {
			return err
		}
		ev, err := structToPointer(req)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		if err := h.backend.DispatchPointerEvent(ctx, ev); err != nil {
			return toStatus(err)
		}
		return stream.SendMsg(&emptypb.Empty{})

	case methodCaptureFrame:
		if err := stream.RecvMsg(&emptypb.Empty{}); err != nil {
			return err
		}
		fr, err := h.backend.CaptureFrame(ctx)
		if err != nil {
			return toStatus(err)
		}
		resp, err := frameToStruct(fr)
		if err != nil {
			return status.Error(codes.Internal, err.Error())
		}
		return stream.SendMsg(resp)
	}
	return status.Error(codes.Unimplemented, fmt.Sprintf("unknown method %s", method))
}

func toStatus(err error) error {
	if errors.Is(err, ErrTimeout) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Unavailable, err.Error())
}

// #endregion server
