package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"muse-workers/internal/common/genai"
	"muse-workers/internal/common/httpclient"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/metrics"
	"muse-workers/internal/common/resilient"
)

type askOptions struct {
	baseURL    string
	model      string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	verbose    bool
}

func newAskCommand() *cobra.Command {
	opts := askOptions{}

	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Send a prompt to the stylist and print the raw reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.apiKey == "" {
				return fmt.Errorf("no API key: pass --api-key or set GENAI_API_KEY")
			}

			log := logger.NewNoOpLogger()
			if opts.verbose {
				log = logger.NewStructured("debug", "console")
			}

			requester := resilient.NewClient(httpclient.New(opts.timeout), log, metrics.RemoteObserver{})
			policy := resilient.DefaultPolicy()
			policy.MaxRetries = opts.maxRetries
			client := genai.NewClient(genai.Config{
				BaseURL: opts.baseURL,
				Model:   opts.model,
				APIKey:  opts.apiKey,
				Policy:  policy,
			}, requester, nil, log)

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout*time.Duration(opts.maxRetries+1)+30*time.Second)
			defer cancel()

			env, err := client.Generate(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), env.RawText)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "base-url", genai.DefaultBaseURL, "generateContent base URL")
	cmd.Flags().StringVar(&opts.model, "model", genai.DefaultModel, "Model name")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", os.Getenv("GENAI_API_KEY"), "API key (default $GENAI_API_KEY)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "Per-attempt timeout")
	cmd.Flags().IntVar(&opts.maxRetries, "max-retries", resilient.DefaultMaxRetries, "Retries after the first attempt")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log each attempt")
	return cmd
}
