package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zlog adapts zerolog to watermill.LoggerAdapter. Router chatter goes to
// debug and trace.
type zlog struct{ l zerolog.Logger }

func NewLogger(l zerolog.Logger) watermill.LoggerAdapter {
	return zlog{l: l.With().Str("component", "events").Logger()}
}

func (z zlog) Error(msg string, err error, fields watermill.LogFields) {
	z.l.Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}

func (z zlog) Info(msg string, fields watermill.LogFields) {
	z.l.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (z zlog) Debug(msg string, fields watermill.LogFields) {
	z.l.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (z zlog) Trace(msg string, fields watermill.LogFields) {
	z.l.Trace().Fields(map[string]any(fields)).Msg(msg)
}

func (z zlog) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return zlog{l: z.l.With().Fields(map[string]any(fields)).Logger()}
}
