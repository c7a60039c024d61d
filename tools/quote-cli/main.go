package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saguaro-events/venuebook/libs/catalog"
	"github.com/saguaro-events/venuebook/libs/dates"
	"github.com/saguaro-events/venuebook/libs/payplan"
	"github.com/saguaro-events/venuebook/libs/pricing"
)

// quote-cli prices weddings from the compiled-in venue catalog without a
// running service. Handy for sales calls and for sanity-checking catalog
// changes before deploy.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quote-cli",
		Short:         "price wedding bookings from the venue catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newVenuesCmd(), newTotalCmd(), newDepositCmd(), newPlanCmd())
	return root
}

func newVenuesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "venues",
		Short: "list venues in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, v := range catalog.Default().All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s (capacity %d)\n", v.ID, v.DisplayName, v.MaxCapacity)
			}
			return nil
		},
	}
}

type quoteFlags struct {
	venueID   string
	guests    int
	date      string
	noAlcohol bool
}

func (f *quoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.venueID, "venue", "", "venue id (see `quote-cli venues`)")
	cmd.Flags().IntVar(&f.guests, "guests", 100, "guest count")
	cmd.Flags().StringVar(&f.date, "date", "", "wedding date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.noAlcohol, "no-alcohol", false, "apply the dry-wedding per-guest credit where offered")
	_ = cmd.MarkFlagRequired("venue")
	_ = cmd.MarkFlagRequired("date")
}

func (f *quoteFlags) weddingDate() (dates.Date, error) {
	d, err := dates.Parse(f.date)
	if err != nil {
		return dates.Date{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return d, nil
}

func newTotalCmd() *cobra.Command {
	var flags quoteFlags
	cmd := &cobra.Command{
		Use:   "total",
		Short: "compute the all-in price for a venue, date, and guest count",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := flags.weddingDate()
			if err != nil {
				return err
			}
			total, err := pricing.Total(catalog.Default(), flags.venueID, flags.guests, date, pricing.Options{NoAlcohol: flags.noAlcohol})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", total)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDepositCmd() *cobra.Command {
	var flags quoteFlags
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "compute the deposit due at booking",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := flags.weddingDate()
			if err != nil {
				return err
			}
			total, err := pricing.Total(catalog.Default(), flags.venueID, flags.guests, date, pricing.Options{NoAlcohol: flags.noAlcohol})
			if err != nil {
				return err
			}
			deposit, err := pricing.Deposit(catalog.Default(), flags.venueID, flags.guests, date, total)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", deposit)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newPlanCmd() *cobra.Command {
	var flags quoteFlags
	var payFull bool
	var product string
	var creditCents int64
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "compute the full payment plan as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := flags.weddingDate()
			if err != nil {
				return err
			}
			prod, ok := payplan.ProductByName(product)
			if !ok {
				return fmt.Errorf("unknown product %q", product)
			}
			plan, err := payplan.Calculate(catalog.Default(), payplan.Input{
				VenueID:            flags.venueID,
				Guests:             flags.guests,
				WeddingDate:        date,
				PayFull:            payFull,
				PlannerCreditCents: creditCents,
				Product:            prod,
				NoAlcohol:          flags.noAlcohol,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&payFull, "pay-full", false, "quote a single pay-in-full charge")
	cmd.Flags().StringVar(&product, "product", "", "product vertical (venue, micro-wedding, elopement)")
	cmd.Flags().Int64Var(&creditCents, "planner-credit-cents", 0, "planner credit applied to the total, in cents")
	return cmd
}
