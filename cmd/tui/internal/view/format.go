package view

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// renderTimeout bounds a whole generate round trip, renderer included.
const renderTimeout = 30 * time.Second

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// RenderCtx returns a context with the standard timeout for renderer calls.
func RenderCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), renderTimeout)
}

func validateDate(s string) error {
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}

	return nil
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, strings.TrimSpace(s))
	return t
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
