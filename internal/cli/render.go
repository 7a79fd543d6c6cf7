package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/stats"
)

// RenderStats writes the dashboard box for a stats view.
func RenderStats(w io.Writer, s services.StatsView) error {
	lines := []string{
		fmt.Sprintf("Balance          %s", core.FormatINR(s.RemainingBalance)),
		fmt.Sprintf("Income           %s", CreditStyle.Render(core.FormatINR(s.TotalIncome))),
		fmt.Sprintf("Expenses         %s", DebitStyle.Render(core.FormatINR(s.TotalExpenses))),
		fmt.Sprintf("Net              %s", core.FormatINR(s.Net)),
		fmt.Sprintf("Spent in %s  %s of %s (%s%%)", s.Month,
			core.FormatINR(s.MonthlySpending),
			core.FormatINR(s.MonthlySpendingLimit),
			s.UsagePercent.StringFixed(1)),
		fmt.Sprintf("Headroom         %s", core.FormatINR(s.Headroom)),
		fmt.Sprintf("Level            %s", LevelStyle(s.Level).Render(string(s.Level))),
	}
	_, err := fmt.Fprintln(w, RenderBox("Dashboard", strings.Join(lines, "\n")))
	return err
}

// RenderTransactions writes txns as an aligned table.
func RenderTransactions(w io.Writer, txns []core.Transaction) error {
	if len(txns) == 0 {
		_, err := fmt.Fprintln(w, MutedStyle.Render("No transactions found."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		HeaderStyle.Render("ID"),
		HeaderStyle.Render("Date"),
		HeaderStyle.Render("Amount"),
		HeaderStyle.Render("Description"),
		HeaderStyle.Render("Category"),
		HeaderStyle.Render("Method")); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txns {
		amount := core.FormatINR(t.Amount)
		if t.IsDebit() {
			amount = DebitStyle.Render("-" + amount)
		} else {
			amount = CreditStyle.Render("+" + amount)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date, amount, t.Description, t.Category, t.PaymentMethod); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return tw.Flush()
}

// RenderBreakdown writes per-category spending with its share of the total.
func RenderBreakdown(w io.Writer, b services.Breakdown) error {
	if _, err := fmt.Fprintln(w, FormatTitle("Spending by category, "+b.Month)); err != nil {
		return err
	}
	if len(b.Categories) == 0 {
		_, err := fmt.Fprintln(w, MutedStyle.Render("No spending this month."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range b.Categories {
		share := "0.0"
		if !b.Total.IsZero() {
			share = c.Amount.Div(b.Total).Shift(2).StringFixed(1)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s%%\n", c.Name, core.FormatINR(c.Amount), share); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if _, err := fmt.Fprintf(tw, "%s\t%s\t\n", HeaderStyle.Render("Total"), core.FormatINR(b.Total)); err != nil {
		return fmt.Errorf("write total: %w", err)
	}
	return tw.Flush()
}

// RenderIntent writes a parsed payment intent.
func RenderIntent(w io.Writer, p core.PaymentIntent) error {
	lines := []string{
		"Merchant  " + p.Merchant,
		"UPI ID    " + p.PayeeID,
		"Amount    " + core.FormatINR(p.Amount),
	}
	if p.Description != "" {
		lines = append(lines, "Note      "+p.Description)
	}
	_, err := fmt.Fprintln(w, RenderBox("Payment", strings.Join(lines, "\n")))
	return err
}

// RenderResult reports a gated write: the recorded transaction, or why it
// was refused.
func RenderResult(w io.Writer, verb string, res services.Result) error {
	if !res.Decision.Allowed {
		_, err := fmt.Fprintln(w, FormatError(fmt.Sprintf("Not %s: %s", verb, res.Decision.Message())))
		return err
	}
	msg := strings.ToUpper(verb[:1]) + verb[1:]
	if res.Transaction != nil {
		msg = fmt.Sprintf("%s %s (%s)", msg, res.Transaction.Description, res.Transaction.ID)
	}
	if _, err := fmt.Fprintln(w, FormatSuccess(msg)); err != nil {
		return err
	}
	if level := res.Stats.Level; level != "" && level != stats.LevelNormal {
		_, err := fmt.Fprintln(w, FormatWarning(fmt.Sprintf("Monthly spending is at %s%% of the limit",
			res.Stats.UsagePercent.StringFixed(1))))
		return err
	}
	return nil
}
