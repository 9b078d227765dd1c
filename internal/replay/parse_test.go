package replay

import (
	"errors"
	"testing"

	"github.com/danielpatrickdp/ngl-gym/internal/action"
)

// #region parse-tests

func TestParseAction(t *testing.T) {
	cases := []struct {
		name string
		line string
		want action.Continuous
	}{
		{
			name: "left click with position",
			line: "Single Click: Left Click at Relative position: x=120, y=45",
			want: action.Continuous{Kind: action.KindLeftClick, X: 120, Y: 45},
		},
		{
			name: "right click with keys",
			line: "Single Click: Right Click, Relative position: x=7, y=900 with keys: Shift, Ctrl",
			want: action.Continuous{Kind: action.KindRightClick, X: 7, Y: 900, Modifiers: action.Modifiers{Shift: true, Ctrl: true}},
		},
		{
			name: "double click wins",
			line: "Double Click (Single Click: Left Click) Relative position: x=1, y=2",
			want: action.Continuous{Kind: action.KindDoubleClick, X: 1, Y: 2},
		},
		{
			name: "position only",
			line: "Mouse move Relative position: x=300, y=200",
			want: action.Continuous{X: 300, Y: 200},
		},
		{
			name: "alt key, unknown key ignored",
			line: "Relative position: x=3, y=4 with keys: Alt, Meta",
			want: action.Continuous{X: 3, Y: 4, Modifiers: action.Modifiers{Alt: true}},
		},
		{name: "outside render", line: "Outside render: layer panel", want: action.Continuous{Kind: action.KindJSONChange}},
		{name: "drag", line: "Drag from x=1 to x=2", want: action.Continuous{Kind: action.KindJSONChange}},
		{name: "wheel", line: "Wheel delta=-120 Relative position: x=5, y=5", want: action.Continuous{Kind: action.KindJSONChange}},
		{name: "keyboard", line: "Keyboard: ArrowUp", want: action.Continuous{Kind: action.KindJSONChange}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAction(tc.line)
			if err != nil {
				t.Fatalf("ParseAction: %v", err)
			}
			if got.Kind != tc.want.Kind || got.X != tc.want.X || got.Y != tc.want.Y || got.Modifiers != tc.want.Modifiers {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestParseAction_Errors(t *testing.T) {
	for _, line := range []string{
		"",
		"nothing to see here",
		"Single Click: Middle Click Relative position: x=1, y=1",
	} {
		if _, err := ParseAction(line); !errors.Is(err, ErrUnrecognizedAction) {
			t.Errorf("%q: expected ErrUnrecognizedAction, got %v", line, err)
		}
	}
}

// #endregion parse-tests
