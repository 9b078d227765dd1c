package replay

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/ngl-gym/internal/action"
)

// ErrUnrecognizedAction is returned for a demonstration log line that carries no
// position, click, key or JSON-change marker.
var ErrUnrecognizedAction = errors.New("unrecognized demonstration action")

// #region parse
// Lines mentioning any of these act on the viewer JSON directly.
var jsonChangeMarkers = []string{"Outside render:", "Drag", "Wheel", "Keyboard"}

var (
	positionPattern    = regexp.MustCompile(`Relative position: x=(\d+), y=(\d+)`)
	doubleClickPattern = regexp.MustCompile(`Double Click`)
	singleClickPattern = regexp.MustCompile(`Single Click: ([\w\s]+) Click`)
	keysPattern        = regexp.MustCompile(`with keys: ([\w\s,]+)`)
)

// ParseAction reads one recorded demonstration line into a continuous action.
// Double Click wins over a single click on the same line. Key names other than
// Shift, Ctrl and Alt are ignored.
func ParseAction(line string) (action.Continuous, error) {
	for _, m := range jsonChangeMarkers {
		if strings.Contains(line, m) {
			return action.Continuous{Kind: action.KindJSONChange}, nil
		}
	}

	var c action.Continuous
	matched := false

	if m := positionPattern.FindStringSubmatch(line); m != nil {
		x, errX := strconv.Atoi(m[1])
		y, errY := strconv.Atoi(m[2])
		if err := errors.Join(errX, errY); err != nil {
			return action.Continuous{}, fmt.Errorf("%w: position: %v", ErrUnrecognizedAction, err)
		}
		c.X, c.Y = float64(x), float64(y)
		matched = true
	}

	if doubleClickPattern.MatchString(line) {
		c.Kind = action.KindDoubleClick
		matched = true
	} else if m := singleClickPattern.FindStringSubmatch(line); m != nil {
		switch kind := strings.ToLower(strings.TrimSpace(m[1])); kind {
		case "left":
			c.Kind = action.KindLeftClick
		case "right":
			c.Kind = action.KindRightClick
		default:
			return action.Continuous{}, fmt.Errorf("%w: click kind %q", ErrUnrecognizedAction, kind)
		}
		matched = true
	}

	if m := keysPattern.FindStringSubmatch(line); m != nil {
		for _, key := range strings.Split(m[1], ",") {
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "shift":
				c.Modifiers.Shift = true
			case "ctrl", "control":
				c.Modifiers.Ctrl = true
			case "alt":
				c.Modifiers.Alt = true
			}
		}
		matched = true
	}

	if !matched {
		return action.Continuous{}, fmt.Errorf("%w: %q", ErrUnrecognizedAction, line)
	}
	return c, nil
}

// #endregion parse
