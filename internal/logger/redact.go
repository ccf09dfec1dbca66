package logger

import (
	"regexp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/identity-tenancy-api/internal/utils"
)

const messageMask = "*******"

var secretPattern = regexp.MustCompile(`(?i)\b(password|passwd|secret|bk_app_secret|bk_token|access_token|token)(["']?\s*[:=]\s*["']?)([^"'\s,&;]+)`)

// RedactMessage masks key=value and key: value secrets embedded in free text.
func RedactMessage(msg string) string {
	return secretPattern.ReplaceAllString(msg, "${1}${2}"+messageMask)
}

type redactingCore struct {
	zapcore.Core
}

// NewRedactingCore wraps core so that sensitive fields never reach the encoder.
func NewRedactingCore(core zapcore.Core) zapcore.Core {
	return &redactingCore{Core: core}
}

func (c *redactingCore) With(fields []zapcore.Field) zapcore.Core {
	return &redactingCore{Core: c.Core.With(redactFields(fields))}
}

func (c *redactingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *redactingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = RedactMessage(ent.Message)
	return c.Core.Write(ent, redactFields(fields))
}

func redactFields(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		switch {
		case utils.IsSensitiveKey(f.Key):
			out[i] = zap.String(f.Key, utils.ScrubMask)
		case f.Type == zapcore.StringType:
			out[i] = zap.String(f.Key, RedactMessage(f.String))
		case f.Type == zapcore.ReflectType:
			out[i] = zap.Any(f.Key, utils.Scrub(f.Interface))
		default:
			out[i] = f
		}
	}
	return out
}
