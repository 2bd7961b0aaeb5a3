package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"PricePulse/internal/model"
)

func orNA[T any](v *T, f func(T) string) string {
	if v == nil {
		return "n/a"
	}
	return f(*v)
}

func decimalText(d decimal.Decimal) string { return d.StringFixed(2) }

// FormatDailyReport formats a daily report into a Telegram message.
func FormatDailyReport(r *model.DailyReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>BTC daily report</b> | %s\n\n", r.Date))
	b.WriteString(fmt.Sprintf("Samples: %s\n", orNA(r.Count, func(n int) string { return fmt.Sprint(n) })))
	b.WriteString(fmt.Sprintf("From: %s\n", orNA(r.StartTime, html.EscapeString)))
	b.WriteString(fmt.Sprintf("To: %s\n\n", orNA(r.EndTime, html.EscapeString)))

	b.WriteString(fmt.Sprintf("First: %s | Last: %s\n", orNA(r.First, decimalText), orNA(r.Last, decimalText)))
	b.WriteString(fmt.Sprintf("Min: %s | Max: %s\n", orNA(r.Min, decimalText), orNA(r.Max, decimalText)))
	b.WriteString(fmt.Sprintf("Average: %s\n", orNA(r.Average, decimalText)))

	if r.First != nil && r.Last != nil && !r.First.IsZero() {
		change := r.Last.Sub(*r.First).Div(*r.First).Mul(decimal.NewFromInt(100))
		b.WriteString(fmt.Sprintf("Change: %s%%\n", signed(change)))
	}

	if missing := r.Missing(); len(missing) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ Fields not recorded: %s\n", strings.Join(missing, ", ")))
	}
	return b.String()
}

func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// FormatNoReport is shown when no report exists for date yet.
func FormatNoReport(date string) string {
	return fmt.Sprintf("📭 No report for %s yet.", html.EscapeString(date))
}

// FormatReportList lists available report dates, newest first, up to limit.
func FormatReportList(dates []string, limit int) string {
	if len(dates) == 0 {
		return "📭 No reports have been generated yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Reports</b> (%d)\n\n", len(dates)))
	shown := 0
	for i := len(dates) - 1; i >= 0 && shown < limit; i-- {
		b.WriteString("• " + dates[i] + "\n")
		shown++
	}
	if len(dates) > shown {
		b.WriteString(fmt.Sprintf("… and %d older\n", len(dates)-shown))
	}
	return b.String()
}

// FormatEmptySeries is sent when the scheduled run finds no samples.
func FormatEmptySeries(date string) string {
	return fmt.Sprintf("⚠️ Daily report for %s skipped: the price log has no valid samples.", date)
}

// FormatFailure is sent when a run fails.
func FormatFailure(date string, err error) string {
	return fmt.Sprintf("❌ Daily report for %s failed: %s", date, html.EscapeString(err.Error()))
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /report [YYYY-MM-DD]: show a daily report (today by default)\n" +
		"• /reports: list generated reports\n" +
		"• /generate: generate today's report now"
}
