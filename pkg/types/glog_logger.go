package types

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
)

// GlogLogger adapts a glog.Logger to Logger. Errors are passed under the
// "error" key so the glog rich error handler can expand go-errors values.
type GlogLogger struct {
	logger glog.Logger
}

var _ Logger = (*GlogLogger)(nil)

// NewGlogLogger wraps logger. A nil logger discards every line.
func NewGlogLogger(logger glog.Logger) *GlogLogger {
	return &GlogLogger{logger: glog.Ensure(logger)}
}

// NewLogger builds a named glog logger that expands go-errors metadata
// (text code, category, metadata) into structured attributes.
func NewLogger(name string, options ...glog.Option) *GlogLogger {
	base := glog.NewLogger(append([]glog.Option{
		glog.WithName(name),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	}, options...)...)
	return NewGlogLogger(base.GetLogger(name))
}

// Debug implements Logger.
func (l *GlogLogger) Debug(msg string, fields ...any) {
	l.logger.Debug(msg, fields...)
}

// Info implements Logger.
func (l *GlogLogger) Info(msg string, fields ...any) {
	l.logger.Info(msg, fields...)
}

// Error implements Logger.
func (l *GlogLogger) Error(msg string, err error, fields ...any) {
	if err == nil {
		l.logger.Error(msg, fields...)
		return
	}
	args := make([]any, 0, len(fields)+2)
	args = append(args, fields...)
	l.logger.Error(msg, append(args, "error", err)...)
}
