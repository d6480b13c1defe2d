package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyFoundation = "foundation"
	KeyProject    = "project"
	KeyRepo       = "repository"
	KeyURL        = "url"
	KeyCheck      = "check"
	KeyDigest     = "digest"
	KeyScore      = "score"
	KeyRating     = "rating"
	KeyDurationMS = "duration_ms"
	KeySchedule   = "schedule_name"
	KeyPath       = "path"
	KeySubject    = "subject"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Foundation(id string) slog.Attr    { return slog.String(KeyFoundation, id) }
func Project(name string) slog.Attr     { return slog.String(KeyProject, name) }
func Repository(name string) slog.Attr  { return slog.String(KeyRepo, name) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Check(id string) slog.Attr         { return slog.String(KeyCheck, id) }
func Digest(d string) slog.Attr         { return slog.String(KeyDigest, d) }
func Score(s float64) slog.Attr         { return slog.Float64(KeyScore, s) }
func Rating(r string) slog.Attr         { return slog.String(KeyRating, r) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func ScheduleName(n string) slog.Attr   { return slog.String(KeySchedule, n) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Subject(s string) slog.Attr        { return slog.String(KeySubject, s) }
func Method(m string) slog.Attr         { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr     { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr  { return slog.String(KeyRemoteAddr, addr) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
