package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/accel/internal/output"
	"github.com/tanq16/accel/internal/scheduler"
	"github.com/tanq16/accel/internal/utils"
)

var AccelVersion = "dev"

var opts downloadOptions

var rootCmd = &cobra.Command{
	Use:     "accel [URL]",
	Short:   "Accel splits a download into byte ranges and fetches them in parallel",
	Version: AccelVersion,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(opts.debug)
		spec, err := opts.buildSpec(args[0], func(name string) bool {
			return cmd.Flags().Changed(name)
		})
		if err != nil {
			output.PrintError(fmt.Sprintf("%s: %v", utils.ErrorKind(err), err))
			os.Exit(1)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = scheduler.Run(ctx, spec, !opts.debug && output.IsTerminal())
		stop()
		if err != nil {
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntVarP(&opts.threads, "threads", "n", 1, "Number of parallel range requests")
	rootCmd.Flags().StringVarP(&opts.outfile, "outfile", "o", "", "Output file path (derived from the URL if not provided)")
	rootCmd.Flags().Int64VarP(&opts.size, "size", "s", 0, "Content length if already known (skips size probing)")
	rootCmd.Flags().StringArrayVarP(&opts.headers, "headers", "H", []string{}, "Extra request header as 'key,value'; can be specified multiple times")
	rootCmd.Flags().BoolVarP(&opts.parseURL, "parse_url", "q", false, "Read the content length from the fsize query parameter instead of a HEAD request")
	rootCmd.Flags().BoolVarP(&opts.insecure, "insecure", "k", false, "Disable TLS certificate verification for this download")
	rootCmd.Flags().StringVarP(&opts.auth, "auth", "a", "", "Digest authentication as 'username,password'")
	rootCmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&opts.proxy, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")

	// flags without shorthand
	rootCmd.Flags().StringVar(&opts.configPath, "config", "", "YAML file with default settings")
	rootCmd.Flags().IntVar(&opts.retries, "retries", 3, "Retries per range for transient failures")
	rootCmd.Flags().DurationVar(&opts.retryWait, "retry-wait", 500*time.Millisecond, "Initial wait between retries (grows exponentially)")
	rootCmd.Flags().DurationVar(&opts.timeout, "timeout", 3*time.Minute, "Timeout waiting for response headers (eg. 30s, 5m)")
	rootCmd.Flags().StringVar(&opts.userAgent, "user-agent", "accel/"+AccelVersion, "User agent")
	rootCmd.Flags().StringVar(&opts.proxyUser, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&opts.proxyPass, "proxy-password", "", "Proxy password (if not provided in proxy URL)")

	rootCmd.AddCommand(newCleanCmd())
}
