package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/core"
)

func payCmd() *cobra.Command {
	var merchant, amount, payee, note string
	cmd := &cobra.Command{
		Use:   "pay [upi-uri]",
		Short: "Record a UPI payment",
		Long: `Record a payment as a debit. Pass a UPI payment URI, or describe the payment
with --merchant and --amount. The payment goes through the same balance and
limit checks as any other debit.`,
		Example: `  fintrack pay "upi://pay?pa=coffee@paytm&pn=Coffee%20Shop&am=150&tn=Coffee"
  fintrack pay --merchant "Coffee Shop" --amount 150 --upi-id coffee@paytm`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var intent core.PaymentIntent
			if len(args) == 1 {
				p, err := ledger.ParseQR(args[0])
				if err != nil {
					return err
				}
				intent = p
			} else {
				if strings.TrimSpace(merchant) == "" || amount == "" {
					return errors.New("give a UPI URI or both --merchant and --amount")
				}
				d, err := core.ParseAmount(amount)
				if err != nil {
					return err
				}
				intent = core.PaymentIntent{Merchant: merchant, Amount: d, PayeeID: payee, Description: note}
			}

			if err := cli.RenderIntent(cmd.OutOrStdout(), intent); err != nil {
				return err
			}
			res, err := ledger.RecordQRPayment(cmd.Context(), intent)
			if err != nil {
				return err
			}
			return cli.RenderResult(cmd.OutOrStdout(), "paid", res)
		},
	}
	cmd.Flags().StringVar(&merchant, "merchant", "", "payee name")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in rupees")
	cmd.Flags().StringVar(&payee, "upi-id", "", "payee UPI id")
	cmd.Flags().StringVar(&note, "note", "", "payment note")
	return cmd
}

func scanCmd() *cobra.Command {
	var pay bool
	cmd := &cobra.Command{
		Use:   "scan <image>...",
		Short: "Read UPI payment codes from QR images",
		Long: `Decode the QR code in each image and show the payment it describes.
With --pay each decoded payment is also recorded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				intent, err := ledger.ScanQR(cmd.Context(), data)
				if err != nil {
					failed++
					if _, werr := fmt.Fprintln(out, cli.FormatError(fmt.Sprintf("%s: %v", path, err))); werr != nil {
						return werr
					}
					continue
				}
				if err := cli.RenderIntent(out, intent); err != nil {
					return err
				}
				if !pay {
					continue
				}
				res, err := ledger.RecordQRPayment(cmd.Context(), intent)
				if err != nil {
					return err
				}
				if err := cli.RenderResult(out, "paid", res); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("could not scan %d of %d images", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pay, "pay", false, "record each scanned payment")
	return cmd
}

func samplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "samples",
		Short: "Show sample payment codes for testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range ledger.SampleIntents() {
				if err := cli.RenderIntent(cmd.OutOrStdout(), p); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
