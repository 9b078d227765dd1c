package driver

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// Full method names on the wire. Messages are well-known types, so no generated
// stubs are needed on either side.
const (
	serviceName           = "nglenv.ViewportDriver"
	methodGetViewState    = "/" + serviceName + "/GetViewState"
	methodSetViewState    = "/" + serviceName + "/SetViewState"
	methodDispatchPointer = "/" + serviceName + "/DispatchPointerEvent"
	methodCaptureFrame    = "/" + serviceName + "/CaptureFrame"
)

// #region document
func documentToStruct(doc *viewstate.Document) (*structpb.Struct, error) {
	data, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal view state: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("encode view state: %w", err)
	}
	return s, nil
}

func structToDocument(s *structpb.Struct) (*viewstate.Document, error) {
	data, err := protojson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("decode view state: %w", err)
	}
	return viewstate.Parse(data)
}

// #endregion document

// #region pointer
func pointerToStruct(ev PointerEvent) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"x":     ev.X,
		"y":     ev.Y,
		"kind":  ev.Kind.String(),
		"shift": ev.Modifiers.Shift,
		"ctrl":  ev.Modifiers.Ctrl,
		"alt":   ev.Modifiers.Alt,
	})
}

func structToPointer(s *structpb.Struct) (PointerEvent, error) {
	f := s.GetFields()
	kind, err := ParsePointerKind(f["kind"].GetStringValue())
	if err != nil {
		return PointerEvent{}, err
	}
	ev := PointerEvent{
		X:    f["x"].GetNumberValue(),
		Y:    f["y"].GetNumberValue(),
		Kind: kind,
	}
	ev.Modifiers.Shift = f["shift"].GetBoolValue()
	ev.Modifiers.Ctrl = f["ctrl"].GetBoolValue()
	ev.Modifiers.Alt = f["alt"].GetBoolValue()
	return ev, nil
}

// #endregion pointer

// #region frame
func frameToStruct(fr viewstate.Frame) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"format": fr.Format,
		"width":  fr.Width,
		"height": fr.Height,
		"data":   base64.StdEncoding.EncodeToString(fr.Data),
	})
}

func structToFrame(s *structpb.Struct) (viewstate.Frame, error) {
	f := s.GetFields()
	for _, key := range []string{"format", "width", "height", "data"} {
		if _, ok := f[key]; !ok {
			return viewstate.Frame{}, fmt.Errorf("frame missing %q", key)
		}
	}
	data, err := base64.StdEncoding.DecodeString(f["data"].GetStringValue())
	if err != nil {
		return viewstate.Frame{}, fmt.Errorf("frame data: %w", err)
	}
	return viewstate.Frame{
		Format: f["format"].GetStringValue(),
		Width:  int(f["width"].GetNumberValue()),
		Height: int(f["height"].GetNumberValue()),
		Data:   data,
	}, nil
}

// #endregion frame
