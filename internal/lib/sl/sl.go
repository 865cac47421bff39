// Package sl holds small helpers for building slog attributes.
package sl

import "log/slog"

// Err returns an "error" attribute carrying the error text.
//
//	log.Error("failed to read document", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
