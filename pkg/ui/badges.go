package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/cryptodoc/cryptodoc-cli/internal/core/domain"
)

// VerificationBadge renders "✔ Verified" or "⏳ Mining"
func VerificationBadge(s domain.VerificationStatus) string {
	if s == domain.Verified {
		return StyleBadgeSuccess.Render(IconSuccess + " " + string(s))
	}
	return StyleBadgeWarning.Render(IconClock + " " + string(s))
}

// AIStatusBadge renders the summarization job state
func AIStatusBadge(s domain.AIStatus) string {
	switch s {
	case domain.AIProcessed:
		return StyleBadgeSuccess.Render(IconSparkle + " " + string(s))
	case domain.AIFailed:
		return StyleBadgeError.Render(IconError + " " + string(s))
	default:
		return StyleBadgeInfo.Render(IconClock + " " + string(s))
	}
}

// BucketBadge renders an expiration bucket
func BucketBadge(b domain.ExpirationBucket) string {
	switch b {
	case domain.BucketExpired:
		return StyleBadgeError.Render(b.Label())
	case domain.BucketExpiringSoon:
		return StyleBadgeWarning.Render(b.Label())
	default:
		return StyleBadgeSuccess.Render(b.Label())
	}
}

// TypeIcon returns a short marker for the document type
func TypeIcon(t domain.DocType) string {
	switch t {
	case domain.TypePDF:
		return "📕"
	case domain.TypeImage:
		return "🖼"
	case domain.TypeSheet:
		return "📊"
	default:
		return IconDocument
	}
}

// FormatStat renders a stat card on one line: "Total Documents  12  +2"
func FormatStat(s domain.Stat) string {
	line := fmt.Sprintf("%s  %s", StyleMuted.Render(s.Label), StyleBold.Render(s.Value))
	if s.Change != "" {
		line += "  " + StyleSuccess.Render(s.Change)
	}
	return line
}

// FormatRelativeDate renders a document date as "today", "3d ago" or "2mo ago".
// Unparseable and future dates are returned unchanged.
func FormatRelativeDate(dateStr string, now time.Time) string {
	t, err := dateparse.ParseIn(strings.TrimSpace(dateStr), now.Location())
	if err != nil {
		return dateStr
	}

	// Normalize both dates to midnight for day-based comparison
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	docDate := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(docDate).Hours() / 24)

	switch {
	case days < 0:
		return dateStr
	case days == 0:
		return "today"
	case days == 1:
		return "1d ago"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	case days < 14:
		return "1w ago"
	case days < 30:
		return fmt.Sprintf("%dw ago", days/7)
	case days < 60:
		return "1mo ago"
	case days < 365:
		return fmt.Sprintf("%dmo ago", days/30)
	case days < 730:
		return "1y ago"
	default:
		return fmt.Sprintf("%dy ago", days/365)
	}
}
