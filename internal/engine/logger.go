package engine

import "go.uber.org/zap"

// Logger is the narrow logging surface the engine depends on, satisfied by
// *zap.SugaredLogger (grounded in the teacher's createLogger in stride.go,
// which also builds on zap). A nil Logger is valid and silences all engine
// logging, which is the default for library callers of the search facade.
type Logger interface {
	Debugf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// NewLogger builds a zap-backed Logger at the requested verbosity. debug
// enables debug-level output; otherwise only warnings and errors surface,
// matching the teacher's createLogger defaults.
func NewLogger(debug bool) Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return nopLogger{}
	}
	return l.Sugar()
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
