package viewstate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/ngl-gym/internal/geometry"
)

const (
	keyPosition          = "position"
	keyCrossSectionScale = "crossSectionScale"
	keyOrientation       = "projectionOrientation"
	keyProjectionScale   = "projectionScale"
)

// #region document
// Document is a full viewer state. Keys the environment does not control are
// carried through untouched.
type Document struct {
	raw                map[string]json.RawMessage
	state              ViewState
	orientationDefault bool
}

// NewDocument builds a document holding only the controlled fields.
func NewDocument(vs ViewState) *Document {
	return &Document{raw: map[string]json.RawMessage{}, state: vs}
}

// Parse decodes a viewer JSON state. position, crossSectionScale and
// projectionScale are required; a missing projectionOrientation is replaced by
// the identity and written back on marshal.
func Parse(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidState, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidState)
	}

	d := &Document{raw: raw}

	var pos []float64
	if err := field(raw, keyPosition, &pos); err != nil {
		return nil, err
	}
	if len(pos) != 3 {
		return nil, fmt.Errorf("%w: position has %d components, want 3", ErrInvalidState, len(pos))
	}
	copy(d.state.Position[:], pos)

	if err := field(raw, keyCrossSectionScale, &d.state.CrossSectionScale); err != nil {
		return nil, err
	}
	if err := field(raw, keyProjectionScale, &d.state.ProjectionScale); err != nil {
		return nil, err
	}

	if _, ok := raw[keyOrientation]; ok {
		var orient []float64
		if err := field(raw, keyOrientation, &orient); err != nil {
			return nil, err
		}
		q, ok := geometry.QuaternionFromSlice(orient)
		if !ok {
			return nil, fmt.Errorf("%w: projectionOrientation has %d components, want 4", ErrInvalidState, len(orient))
		}
		d.state.ProjectionOrientation = q
	} else {
		d.state.ProjectionOrientation = geometry.Identity
		d.orientationDefault = true
	}

	return d, nil
}

func field(raw map[string]json.RawMessage, key string, dst any) error {
	v, ok := raw[key]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrInvalidState, key)
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return fmt.Errorf("%w: %s is null", ErrInvalidState, key)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidState, key, err)
	}
	return nil
}

// #endregion document

// #region accessors
// ViewState returns a copy of the controlled fields.
func (d *Document) ViewState() ViewState {
	return d.state
}

// OrientationDefaulted reports whether projectionOrientation was absent on parse.
func (d *Document) OrientationDefaulted() bool {
	return d.orientationDefault
}

// WithViewState returns a copy of d carrying vs. d is not modified.
func (d *Document) WithViewState(vs ViewState) *Document {
	c := d.Clone()
	c.state = vs
	return c
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	raw := make(map[string]json.RawMessage, len(d.raw))
	for k, v := range d.raw {
		raw[k] = append(json.RawMessage(nil), v...)
	}
	return &Document{raw: raw, state: d.state, orientationDefault: d.orientationDefault}
}

// #endregion accessors

// #region marshal
// MarshalJSON writes the controlled fields over the preserved document.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.raw)+4)
	for k, v := range d.raw {
		out[k] = v
	}
	out[keyPosition] = d.state.Position[:]
	out[keyCrossSectionScale] = d.state.CrossSectionScale
	out[keyOrientation] = d.state.ProjectionOrientation.Slice()
	out[keyProjectionScale] = d.state.ProjectionScale
	return json.Marshal(out)
}

// UnmarshalJSON lets a Document be embedded in other JSON values.
func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// #endregion marshal
