package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCustomersCommand(opts *options) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Rank customers by total sales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}

			rep, err := e.reports.CustomerSalesRanking(cmd.Context(), e.topN(cmd, top))
			if err != nil {
				return err
			}
			return e.emit(rep, rep.GraphURL)
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "number of customers to rank")

	return cmd
}

func newProductsCommand(opts *options) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "products",
		Short: "Rank products by total quantity sold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}

			rep, err := e.reports.PopularProductsRanking(cmd.Context(), e.topN(cmd, top))
			if err != nil {
				return err
			}
			return e.emit(rep, rep.GraphURL)
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "number of products to rank")

	return cmd
}

func newHourlyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hourly",
		Short: "Total sales per hour of day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}

			rep, err := e.reports.HourlySalesTrend(cmd.Context())
			if err != nil {
				return err
			}
			return e.emit(rep, rep.GraphURL)
		},
	}
}

func newAllCommand(opts *options) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Build every report from a single load of the data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}

			overview, err := e.reports.Overview(cmd.Context(), e.topN(cmd, top))
			if err != nil {
				return err
			}
			return e.emit(overview,
				overview.Customers.GraphURL,
				overview.Products.GraphURL,
				overview.Hourly.GraphURL,
			)
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "number of entries in each ranking")

	return cmd
}

func newChartsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "charts",
		Short: "List previously generated charts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env(cmd)
			if err != nil {
				return err
			}

			files, err := e.reports.Charts()
			if err != nil {
				return err
			}
			if e.asJSON {
				return e.emit(files)
			}

			if len(files) == 0 {
				fmt.Fprintf(e.out, "No charts in %s\n", e.cfg.Report.OutputDir)
				return nil
			}

			w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tKIND\tSIZE\tFILE")
			for _, f := range files {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.CreatedAt.Format("2006-01-02 15:04:05"), f.Kind, f.SizeBytes, e.chartPath(f.URL))
			}
			return w.Flush()
		},
	}
}
