package domain

import "errors"

// Error taxonomy. Adapters wrap these with fmt.Errorf("%w: ...") so callers
// can classify failures with errors.Is.
var (
	ErrFetch   = errors.New("fetch error")
	ErrParse   = errors.New("parse error")
	ErrPublish = errors.New("publish error")
	ErrWrite   = errors.New("write error")
	ErrNotify  = errors.New("notify error")
	ErrConfig  = errors.New("config error")
)

// ErrorKind returns a stable label for err, suitable for metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrPublish):
		return "publish"
	case errors.Is(err, ErrWrite):
		return "write"
	case errors.Is(err, ErrNotify):
		return "notify"
	case errors.Is(err, ErrConfig):
		return "config"
	default:
		return "unknown"
	}
}
