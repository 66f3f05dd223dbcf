package notify

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
)

const (
	googleSearchURL = "https://www.google.com/search?q="
	levelsSearchURL = "https://www.levels.fyi/internships/?track=Software%20Engineer&search="
)

func GoogleURL(company string) string { return googleSearchURL + url.QueryEscape(company) }
func LevelsURL(company string) string { return levelsSearchURL + url.QueryEscape(company) }

// PostingHTML renders a posting for Telegram's HTML parse mode.
func PostingHTML(p domain.Posting) string {
	var b strings.Builder

	title := html.EscapeString(p.Title)
	if p.URL != "" {
		fmt.Fprintf(&b, "<b><a href=\"%s\">%s</a></b>\n", html.EscapeString(p.URL), title)
	} else {
		fmt.Fprintf(&b, "<b>%s</b>\n", title)
	}
	fmt.Fprintf(&b, "🏢 <a href=\"%s\">%s</a>\n", html.EscapeString(GoogleURL(p.Company)), html.EscapeString(p.Company))
	fmt.Fprintf(&b, "🔖 Source: %s\n", html.EscapeString(p.SourceName))
	if p.PostedAt != "" {
		fmt.Fprintf(&b, "📅 %s\n", html.EscapeString(p.PostedAt))
	}
	fmt.Fprintf(&b, "💰 <a href=\"%s\">%s at Levels.fyi</a>", html.EscapeString(LevelsURL(p.Company)), html.EscapeString(p.Company))

	return b.String()
}

// SummaryText is the companies digest: one name per line.
func SummaryText(companies []string) string {
	return strings.Join(companies, "\n")
}

// Operator status lines.

func CycleStartedText(cycle int, at time.Time) string {
	return fmt.Sprintf("🔍 Starting job search cycle #%d at %s", cycle, at.Format("15:04:05"))
}

func PrunedText(removed int, retention time.Duration) string {
	return fmt.Sprintf("🗑️ Cleaned %d old jobs (older than %s)", removed, humanDays(retention))
}

func CycleDoneText(posted, companies int, failedSources int, took time.Duration) string {
	var b strings.Builder
	if posted > 0 {
		fmt.Fprintf(&b, "✅ Posted %d new jobs from %d companies", posted, companies)
	} else {
		b.WriteString("ℹ️ No new jobs found")
	}
	if failedSources > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d source(s) unavailable", failedSources)
	}
	fmt.Fprintf(&b, "\n⏱️ took %s", minutesSeconds(took))
	return b.String()
}

func NotifyFailuresText(failed, total int) string {
	return fmt.Sprintf("⚠️ %d of %d notifications could not be delivered", failed, total)
}

func CycleFailedText(err error, retryIn time.Duration) string {
	return fmt.Sprintf("❌ Error occurred: %v\n⏳ Retrying in %s...", err, minutesSeconds(retryIn))
}

func CorruptStateText(err error) string {
	return fmt.Sprintf("🚨 Ledger state is corrupt, running with an in-memory ledger until it is repaired. Already-notified postings may be sent again.\n%v", err)
}

func minutesSeconds(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%dm %ds", int(d/time.Minute), int((d%time.Minute)/time.Second))
}

func humanDays(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%d days", int(d/(24*time.Hour)))
	}
	return d.String()
}
