package main

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	"fintrack/internal/services"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show balance and monthly spending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := ledger.GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}
			return cli.RenderStats(cmd.OutOrStdout(), view)
		},
	}
}

func listCmd() *cobra.Command {
	var search, kind, sortBy, order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long: `List transactions, newest first by default.

--query matches description, category or payment method.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := apphttp.ParseFilter(url.Values{
				"q":     {search},
				"type":  {kind},
				"sort":  {sortBy},
				"order": {order},
			})
			if err != nil {
				return err
			}
			txns, err := ledger.ListTransactions(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			return cli.RenderTransactions(cmd.OutOrStdout(), txns)
		},
	}
	cmd.Flags().StringVarP(&search, "query", "q", "", "search text")
	cmd.Flags().StringVarP(&kind, "type", "t", "all", "credit, debit or all")
	cmd.Flags().StringVar(&sortBy, "sort", "date", "date or amount")
	cmd.Flags().StringVar(&order, "order", "desc", "asc or desc")
	return cmd
}

func breakdownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown",
		Short: "Show this month's spending by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := ledger.CategoryBreakdown(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to build breakdown: %w", err)
			}
			return cli.RenderBreakdown(cmd.OutOrStdout(), b)
		},
	}
}

// transactionFlags binds the form fields shared by add and edit.
func transactionFlags(cmd *cobra.Command, in *services.TransactionInput) {
	cmd.Flags().StringVar(&in.Date, "date", "", "date as YYYY-MM-DD")
	cmd.Flags().StringVar(&in.Amount, "amount", "", "amount in rupees")
	cmd.Flags().StringVar((*string)(&in.Kind), "type", string(core.Debit), "credit or debit")
	cmd.Flags().StringVar(&in.Description, "description", "", "what the money was for")
	cmd.Flags().StringVar(&in.Category, "category", "", "category (default Other)")
	cmd.Flags().StringVar(&in.PaymentMethod, "method", "", "payment method")
}

func addCmd() *cobra.Command {
	var in services.TransactionInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Long: `Record a credit or debit. Debits are refused when they exceed the remaining
balance or would take this month's spending over the limit.`,
		Example: `  fintrack add --date 2024-12-20 --amount 450 --description "Groceries" --category Food`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.Kind = core.Kind(strings.ToLower(string(in.Kind)))
			res, err := ledger.AddTransaction(cmd.Context(), in)
			if err != nil {
				return err
			}
			return cli.RenderResult(cmd.OutOrStdout(), "added", res)
		},
	}
	transactionFlags(cmd, &in)
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func editCmd() *cobra.Command {
	var in services.TransactionInput
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a transaction's fields",
		Long: `Replace every field of the transaction with the given id. Flags that are not
set are taken from the current transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := findTransaction(cmd, args[0])
			if err != nil {
				return err
			}
			mergeUnset(cmd, &in, current)
			in.Kind = core.Kind(strings.ToLower(string(in.Kind)))

			res, err := ledger.EditTransaction(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return cli.RenderResult(cmd.OutOrStdout(), "updated", res)
		},
	}
	transactionFlags(cmd, &in)
	return cmd
}

func findTransaction(cmd *cobra.Command, id string) (core.Transaction, error) {
	l, err := ledger.GetLedger(cmd.Context())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("failed to load ledger: %w", err)
	}
	t, ok := l.Find(id)
	if !ok {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	return t, nil
}

func mergeUnset(cmd *cobra.Command, in *services.TransactionInput, t core.Transaction) {
	flags := cmd.Flags()
	if !flags.Changed("date") {
		in.Date = t.Date
	}
	if !flags.Changed("amount") {
		in.Amount = t.Amount.String()
	}
	if !flags.Changed("type") {
		in.Kind = t.Kind
	}
	if !flags.Changed("description") {
		in.Description = t.Description
	}
	if !flags.Changed("category") {
		in.Category = t.Category
	}
	if !flags.Changed("method") {
		in.PaymentMethod = t.PaymentMethod
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ledger.DeleteTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.RenderResult(cmd.OutOrStdout(), "deleted", res)
		},
	}
}

func limitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "limit <amount>",
		Short: "Set the monthly spending limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := core.ParseAmount(args[0])
			if err != nil {
				return err
			}
			view, err := ledger.SetMonthlyLimit(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Monthly limit set to "+core.FormatINR(limit))); err != nil {
				return err
			}
			return cli.RenderStats(cmd.OutOrStdout(), view)
		},
	}
}

func settingsCmd() *cobra.Command {
	var (
		initialBalance, limit string
		visual, sound         bool
	)
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Change initial balance, limit or alert preferences",
		Long: `Change ledger settings. Only the flags given are changed; the balance is
recomputed from the new initial balance.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in services.Settings
			flags := cmd.Flags()
			if flags.Changed("initial-balance") {
				d, err := core.ParseAmount(initialBalance)
				if err != nil {
					return err
				}
				in.InitialBalance = &d
			}
			if flags.Changed("limit") {
				d, err := core.ParseAmount(limit)
				if err != nil {
					return err
				}
				in.MonthlySpendingLimit = &d
			}
			if flags.Changed("visual-alerts") || flags.Changed("sound-alerts") {
				l, err := ledger.GetLedger(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load ledger: %w", err)
				}
				prefs := l.AlertPreferences
				if flags.Changed("visual-alerts") {
					prefs.Visual = visual
				}
				if flags.Changed("sound-alerts") {
					prefs.Sound = sound
				}
				in.AlertPreferences = &prefs
			}

			l, err := ledger.UpdateSettings(cmd.Context(), in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Settings", strings.Join([]string{
				"Initial balance  " + core.FormatINR(l.InitialBalance),
				"Current balance  " + core.FormatINR(l.CurrentBalance),
				"Monthly limit    " + core.FormatINR(l.MonthlySpendingLimit),
				fmt.Sprintf("Alerts           visual=%t sound=%t", l.AlertPreferences.Visual, l.AlertPreferences.Sound),
			}, "\n")))
			return err
		},
	}
	cmd.Flags().StringVar(&initialBalance, "initial-balance", "", "opening balance")
	cmd.Flags().StringVar(&limit, "limit", "", "monthly spending limit")
	cmd.Flags().BoolVar(&visual, "visual-alerts", true, "show visual spending alerts")
	cmd.Flags().BoolVar(&sound, "sound-alerts", true, "play sound on spending alerts")
	return cmd
}

func resetCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the sample ledger",
		Long: `Reset discards every transaction and setting and restores the sample ledger.
This cannot be undone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if !force {
				if _, err := fmt.Fprint(out, "This will discard all transactions and settings. Continue? [y/N]: "); err != nil {
					return err
				}
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					_, err := fmt.Fprintln(out, cli.FormatInfo("Reset cancelled"))
					return err
				}
			}
			l, err := ledger.Reset(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to reset ledger: %w", err)
			}
			_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Ledger reset, %d sample transactions restored", len(l.Transactions))))
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")
	return cmd
}
