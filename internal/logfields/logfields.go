package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeySource     = "source"
	KeyDocname    = "docname"
	KeyPath       = "path"
	KeyLine       = "line"
	KeyCount      = "count"
	KeyError      = "error"
	KeySchedule   = "schedule_name"
	KeySubject    = "subject"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Source(name string) slog.Attr    { return slog.String(KeySource, name) }
func Docname(name string) slog.Attr   { return slog.String(KeyDocname, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Line(n int) slog.Attr            { return slog.Int(KeyLine, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
