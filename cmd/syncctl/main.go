package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stratoview/cloudsync/pkg/apiclient"
	"github.com/stratoview/cloudsync/pkg/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		apiURL   string
		apiKey   string
		customer string
	)

	root := &cobra.Command{
		Use:           "syncctl",
		Short:         "Control the cloudsync API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&apiURL, "api-url", cfg.APIBaseURL, "base URL of the cloudsync API")
	root.PersistentFlags().StringVar(&apiKey, "api-key", cfg.APIKey, "API key")
	root.PersistentFlags().StringVar(&customer, "customer", "", "customer id (default: all customers)")

	parseCustomer := func() (*uuid.UUID, error) {
		if customer == "" {
			return nil, nil
		}

		id, err := uuid.Parse(customer)

		if err != nil {
			return nil, fmt.Errorf("invalid customer id: %w", err)
		}

		return &id, nil
	}

	newClient := func() *apiclient.Client {
		return apiclient.NewClient(apiURL, apiKey)
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Trigger a sync run",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCustomer()

			if err != nil {
				return err
			}

			runs, err := newClient().TriggerSync(cmd.Context(), id)

			if err != nil {
				return err
			}

			for _, run := range runs {
				fmt.Printf("%s: success=%v %s\n", run.CustomerName, run.Success, run.Message)
			}

			return nil
		},
	}

	resourcesCmd := &cobra.Command{
		Use:   "resources",
		Short: "List reconciled resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCustomer()

			if err != nil {
				return err
			}

			resources, err := newClient().ListResources(cmd.Context(), id, "", "")

			if err != nil {
				return err
			}

			for _, r := range resources {
				fmt.Printf("%s\t%s\t%s\t%s\n", r.Name, r.Type, r.Region, r.Status)
			}

			return nil
		},
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show dashboard metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCustomer()

			if err != nil {
				return err
			}

			m, err := newClient().DashboardMetrics(cmd.Context(), id)

			if err != nil {
				return err
			}

			fmt.Printf("customers: %d\n", m.TotalCustomers)
			fmt.Printf("resources: %d\n", m.TotalAzureResources)
			fmt.Printf("m365 users: %d\n", m.TotalM365Users)
			fmt.Printf("monthly cost: $%.2f\n", m.TotalMonthlyCost)

			return nil
		},
	}

	optimizationsCmd := &cobra.Command{
		Use:   "optimizations",
		Short: "Show license optimization recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCustomer()

			if err != nil {
				return err
			}

			opts, err := newClient().LicenseOptimizations(cmd.Context(), id)

			if err != nil {
				return err
			}

			for _, o := range opts {
				fmt.Printf("%s: $%.2f/month potential savings. %s\n", o.LicenseName, o.PotentialSavings, o.Recommendation)
			}

			return nil
		},
	}

	root.AddCommand(syncCmd, resourcesCmd, metricsCmd, optimizationsCmd)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
