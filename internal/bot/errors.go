package bot

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"

	"guesthouse/internal/domain"
	"guesthouse/internal/report"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		fields := make([]string, 0, len(verr.Fields))
		for field, msg := range verr.Fields {
			fields = append(fields, fmt.Sprintf("%s: %s", field, msg))
		}
		sort.Strings(fields)
		return "⚠️ " + html.EscapeString(strings.Join(fields, "; "))
	}

	if errors.Is(err, domain.ErrNotAvailable) {
		return "⚠️ The room is not available for the selected dates."
	}

	if errors.Is(err, report.ErrUnknownReport) {
		return "⚠️ Unknown report. Available: " + strings.Join(report.Names(), ", ")
	}

	if errors.Is(err, domain.ErrStoreUnreachable) {
		return "⚠️ The booking database is unreachable right now. Try again later."
	}

	return "❌ Something went wrong while processing the command."
}
