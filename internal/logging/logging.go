package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// #region build
// New builds a logger from cfg. An unknown level is an error rather than a
// silent fallback.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(orDefault(cfg.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var enc zapcore.EncoderConfig
	encoding := orDefault(cfg.Format, "json")
	switch encoding {
	case "console":
		enc = zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		enc = zap.NewProductionEncoderConfig()
		enc.TimeKey = "timestamp"
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("log format %q: want json or console", cfg.Format)
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := zc.Build(zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// #endregion build

// #region fields
// ViewState logs the controlled fields of vs as one object.
func ViewState(key string, vs viewstate.ViewState) zap.Field {
	return zap.Object(key, viewStateMarshaler(vs))
}

type viewStateMarshaler viewstate.ViewState

func (v viewStateMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if err := enc.AddArray("position", floats(v.Position[:])); err != nil {
		return err
	}
	enc.AddFloat64("cross_section_scale", v.CrossSectionScale)
	if err := enc.AddArray("orientation", floats(v.ProjectionOrientation.Slice())); err != nil {
		return err
	}
	enc.AddFloat64("projection_scale", v.ProjectionScale)
	return nil
}

type floats []float64

func (f floats) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, v := range f {
		enc.AppendFloat64(v)
	}
	return nil
}

// Plan logs a token sequence and its length.
func Plan(key string, tokens []int) zap.Field {
	return zap.Object(key, planMarshaler(tokens))
}

type planMarshaler []int

func (p planMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("len", len(p))
	return enc.AddArray("tokens", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for _, t := range p {
			ae.AppendInt(t)
		}
		return nil
	}))
}

// #endregion fields
