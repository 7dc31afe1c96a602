package wa

import (
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
)

// zapLog routes whatsmeow's logging into zap.
type zapLog struct {
	s *zap.SugaredLogger
}

// NewLogger adapts a zap logger to whatsmeow's logger interface.
func NewLogger(logger *zap.Logger) waLog.Logger {
	return zapLog{s: logger.Sugar()}
}

func (l zapLog) Errorf(msg string, args ...any) { l.s.Errorf(msg, args...) }
func (l zapLog) Warnf(msg string, args ...any)  { l.s.Warnf(msg, args...) }
func (l zapLog) Infof(msg string, args ...any)  { l.s.Infof(msg, args...) }
func (l zapLog) Debugf(msg string, args ...any) { l.s.Debugf(msg, args...) }

func (l zapLog) Sub(module string) waLog.Logger {
	return zapLog{s: l.s.Named(module)}
}
