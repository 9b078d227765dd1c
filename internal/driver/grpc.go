package driver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// #region client-struct
// GRPC talks to a remote viewport driver process.
type GRPC struct {
	conn   grpc.ClientConnInterface
	closer func() error
	logger *zap.Logger
}

// #endregion client-struct

// #region constructor
// Dial connects to the driver at addr. The connection is lazy; the first call
// surfaces an unreachable address.
func Dial(addr string, logger *zap.Logger) (*GRPC, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	g := NewGRPC(conn, logger)
	g.closer = conn.Close
	return g, nil
}

// NewGRPC wraps an existing connection. Close does not close conn.
func NewGRPC(conn grpc.ClientConnInterface, logger *zap.Logger) *GRPC {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPC{conn: conn, logger: logger.Named("driver")}
}

// Close shuts down a connection opened by Dial.
func (g *GRPC) Close() error {
	if g.closer == nil {
		return nil
	}
	return g.closer()
}

// #endregion constructor

// #region calls
// GetViewState fetches the viewer's current JSON document.
func (g *GRPC) GetViewState(ctx context.Context) (*viewstate.Document, error) {
	resp := &structpb.Struct{}
	if err := g.invoke(ctx, methodGetViewState, &emptypb.Empty{}, resp); err != nil {
		return nil, err
	}
	doc, err := structToDocument(resp)
	if err != nil {
		return nil, fmt.Errorf("get view state: %w: %w", ErrCommunication, err)
	}
	return doc, nil
}

// SetViewState pushes a document for the viewer to apply and re-render.
func (g *GRPC) SetViewState(ctx context.Context, doc *viewstate.Document) error {
	req, err := documentToStruct(doc)
	if err != nil {
		return fmt.Errorf("set view state: %w", err)
	}
	return g.invoke(ctx, methodSetViewState, req, &emptypb.Empty{})
}

// DispatchPointerEvent synthesizes one pointer event in the viewer.
func (g *GRPC) DispatchPointerEvent(ctx context.Context, ev PointerEvent) error {
	req, err := pointerToStruct(ev)
	if err != nil {
		return fmt.Errorf("dispatch pointer event: %w", err)
	}
	return g.invoke(ctx, methodDispatchPointer, req, &emptypb.Empty{})
}

// CaptureFrame grabs the current canvas.
func (g *GRPC) CaptureFrame(ctx context.Context) (viewstate.Frame, error) {
	resp := &structpb.Struct{}
	if err := g.invoke(ctx, methodCaptureFrame, &emptypb.Empty{}, resp); err != nil {
		return viewstate.Frame{}, err
	}
	fr, err := structToFrame(resp)
	if err != nil {
		return viewstate.Frame{}, fmt.Errorf("capture frame: %w: %w", ErrCommunication, err)
	}
	return fr, nil
}

func (g *GRPC) invoke(ctx context.Context, method string, req, resp any) error {
	if err := g.conn.Invoke(ctx, method, req, resp); err != nil {
		g.logger.Debug("rpc failed", zap.String("method", method), zap.Error(err))
		return classify(method, err)
	}
	return nil
}

// #endregion calls

// #region errors
// classify maps a transport error onto ErrTimeout or ErrCommunication, keeping
// the underlying error in the chain.
func classify(method string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || status.Code(err) == codes.DeadlineExceeded {
		return fmt.Errorf("%s: %w: %w", method, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", method, ErrCommunication, err)
}

// #endregion errors
