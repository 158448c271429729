package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyRule       = "rule"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyPattern    = "pattern"
	KeyTemplate   = "template"
	KeyFilter     = "filter"
	KeyDocuments  = "documents"
	KeyCopied     = "copied"
	KeyWarnings   = "warnings"
	KeyDurationMS = "duration_ms"
	KeyEvent      = "event"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Rule(name string) slog.Attr       { return slog.String(KeyRule, name) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr        { return slog.String(KeyOutput, p) }
func Pattern(p string) slog.Attr       { return slog.String(KeyPattern, p) }
func Template(name string) slog.Attr   { return slog.String(KeyTemplate, name) }
func Filter(name string) slog.Attr     { return slog.String(KeyFilter, name) }
func Documents(n int) slog.Attr        { return slog.Int(KeyDocuments, n) }
func Copied(n int) slog.Attr           { return slog.Int(KeyCopied, n) }
func Warnings(n int) slog.Attr         { return slog.Int(KeyWarnings, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Event(op string) slog.Attr        { return slog.String(KeyEvent, op) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
