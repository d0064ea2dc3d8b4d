// Command transparencyctl talks to the product transparency API: it runs
// the disclosure intake in a terminal and downloads reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"product-transparency/backend/internal/apiclient"
	"product-transparency/backend/internal/catalog"
	"product-transparency/backend/internal/scoring"
	"product-transparency/backend/internal/wizard"
)

const defaultAPIURL = "http://localhost:5000"

type options struct {
	apiURL  string
	token   string
	timeout time.Duration
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "transparencyctl",
		Short:         "Submit product disclosures and fetch transparency reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	apiURL := strings.TrimSpace(os.Getenv("TRANSPARENCY_API_URL"))
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", apiURL, "API base URL (env TRANSPARENCY_API_URL)")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("TRANSPARENCY_TOKEN"), "Bearer token (env TRANSPARENCY_TOKEN)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "HTTP timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(newQuestionsCmd(opts), newSubmitCmd(opts), newReportCmd(opts))
	return root
}

func (o *options) client() (*apiclient.Client, error) {
	return apiclient.New(o.apiURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: o.timeout}),
		apiclient.WithToken(o.token),
	)
}

func newQuestionsCmd(opts *options) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List the intake questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batches := catalog.Batches()
			if !local {
				client, err := opts.client()
				if err != nil {
					return err
				}
				remote, err := client.Questions(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetch questions: %w", err)
				}
				batches = remote.Steps
			}
			printBatches(cmd.OutOrStdout(), batches)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Print the built-in catalog without contacting the API")
	return cmd
}

func newSubmitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Answer the intake questions and submit a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			var created apiclient.Created
			submitter := wizard.SubmitterFunc(func(ctx context.Context, s wizard.Submission) error {
				res, err := client.CreateProduct(ctx, s)
				if err != nil {
					return err
				}
				created = res
				return nil
			})

			out := cmd.OutOrStdout()
			if _, err := newIntake(cmd.InOrStdin(), out).run(cmd.Context(), wizard.New(), submitter); err != nil {
				return err
			}
			printCreated(out, created)
			return nil
		},
	}
}

func newReportCmd(opts *options) *cobra.Command {
	var pdfPath string
	cmd := &cobra.Command{
		Use:   "report <product-id>",
		Short: "Fetch the transparency report of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return errors.New("product id is required")
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			if pdfPath == "" {
				rep, err := client.Report(cmd.Context(), id)
				if err != nil {
					return err
				}
				printReport(cmd.OutOrStdout(), rep)
				return nil
			}
			return downloadPDF(cmd, client, id, pdfPath)
		},
	}
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Write the PDF report to this file instead of printing")
	return cmd
}

func downloadPDF(cmd *cobra.Command, client *apiclient.Client, id, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := client.ReportPDF(cmd.Context(), id, f); err != nil {
		f.Close()
		if rmErr := os.Remove(path); rmErr != nil {
			logrus.WithError(rmErr).WithField("path", path).Warn("remove partial pdf")
		}
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
	return nil
}

func printBatches(w io.Writer, batches []catalog.Batch) {
	for _, b := range batches {
		fmt.Fprintf(w, "Step %d: %s\n", b.Step, b.Title)
		for _, q := range b.Questions {
			marker := " "
			if q.Required {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %-18s %s\n", marker, q.ID, q.Text)
			if len(q.Options) > 0 {
				fmt.Fprintf(w, "      options: %s\n", strings.Join(q.Options, ", "))
			}
		}
	}
}

func printCreated(w io.Writer, created apiclient.Created) {
	fmt.Fprintf(w, "\nProduct created: %s\n", created.Product.ID)
	followUps := created.FollowUpTexts()
	if len(followUps) == 0 {
		return
	}
	fmt.Fprintln(w, "Follow-up questions:")
	for i, q := range followUps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, q)
	}
}

func printReport(w io.Writer, rep apiclient.Report) {
	fmt.Fprintf(w, "Product ID: %s\n", rep.ProductID)
	if rep.ProductName != "" {
		fmt.Fprintf(w, "Product: %s\n", rep.ProductName)
	}
	fmt.Fprintf(w, "Transparency Score: %d/100\n", rep.Score)
	for _, line := range rep.Breakdown.Lines() {
		fmt.Fprintf(w, "  %s: %d/%d\n", line.Label, line.Points, scoring.ComponentMax)
	}
	if len(rep.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, r := range rep.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
}
