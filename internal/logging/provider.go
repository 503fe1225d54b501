// Package logging forwards OpenTelemetry log records to a slog handler, so
// the otelslog loggers of every package can print to a terminal.
package logging

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.opentelemetry.io/otel/log/global"
)

type Provider struct {
	embedded.LoggerProvider

	handler slog.Handler
}

// NewProvider returns a provider writing text records of at least level to w.
func NewProvider(w io.Writer, level slog.Level) *Provider {
	return &Provider{handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})}
}

// Install makes p the global logger provider.
func Install(p *Provider) {
	global.SetLoggerProvider(p)
}

func (p *Provider) Logger(name string, _ ...log.LoggerOption) log.Logger {
	return &logger{handler: p.handler.WithAttrs([]slog.Attr{slog.String("scope", name)})}
}

type logger struct {
	embedded.Logger

	handler slog.Handler
}

func (l *logger) Emit(ctx context.Context, record log.Record) {
	level := severityLevel(record.Severity())
	if !l.handler.Enabled(ctx, level) {
		return
	}

	r := slog.NewRecord(record.Timestamp(), level, record.Body().String(), 0)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		r.AddAttrs(slog.String(kv.Key, kv.Value.String()))
		return true
	})
	_ = l.handler.Handle(ctx, r)
}

func (l *logger) Enabled(ctx context.Context, params log.EnabledParameters) bool {
	return l.handler.Enabled(ctx, severityLevel(params.Severity))
}

// severityLevel maps otel severities onto slog levels: DEBUG1 is -4, INFO1
// is 0, WARN1 is 4, ERROR1 is 8.
func severityLevel(severity log.Severity) slog.Level {
	if severity == log.SeverityUndefined {
		return slog.LevelInfo
	}
	return slog.Level(int(severity) - int(log.SeverityInfo))
}
