package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/pkg/validate"
)

// CLI-клиент для HTTP API eventpipe.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(nil).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	addr    string
	timeout time.Duration
}

// newRootCmd — дерево команд; hc == nil — клиент с таймаутом из флага.
func newRootCmd(hc *http.Client) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "pipectl",
		Short:        "pipectl - command line client for the eventpipe HTTP API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", envOr("EVENTPIPE_ADDR", "http://localhost:8080"), "service address")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	clientFor := func() *client {
		if hc != nil {
			return newClient(opts.addr, hc)
		}
		return newClient(opts.addr, &http.Client{Timeout: opts.timeout})
	}

	root.AddCommand(
		newPublishCmd(clientFor),
		newPublishFileCmd(clientFor),
		newTopicsCmd(clientFor),
		newFetchCmd(clientFor),
		newConsumersCmd(clientFor),
		newResumeCmd(clientFor),
	)
	return root
}

func newPublishCmd(clientFor func() *client) *cobra.Command {
	var (
		key       string
		partition int
	)
	cmd := &cobra.Command{
		Use:   "publish <topic> <value>",
		Short: "Publish one record and wait for the acknowledgement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev := domain.Event{Topic: args[0], Value: []byte(args[1])}
			if cmd.Flags().Changed("key") {
				ev.Key = []byte(key)
			}
			if partition >= 0 {
				p := partition
				ev.Partition = &p
			}
			res, err := clientFor().Publish(cmd.Context(), ev)
			if err != nil {
				return err
			}
			printLocation(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "record key")
	cmd.Flags().IntVar(&partition, "partition", -1, "explicit partition (-1: chosen by key)")
	return cmd
}

func newPublishFileCmd(clientFor func() *client) *cobra.Command {
	var (
		format string
		topic  string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "publish-file <path>",
		Short: "Validate events from a .json/.jsonl file and publish the valid ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := validate.ParseInputFormat(format)
			if err != nil {
				return err
			}
			validator := validate.NewEventValidator(validate.DefaultMaxValueBytes)
			out := cmd.OutOrStdout()

			emit := validate.WriteCanonical(out)
			if !dryRun {
				c := clientFor()
				emit = func(ctx context.Context, ev *domain.Event) error {
					res, err := c.Publish(ctx, *ev)
					if err != nil {
						return fmt.Errorf("publish to %s: %w", ev.Topic, err)
					}
					printLocation(out, res)
					return nil
				}
			}

			summary, err := validate.ValidateFile(cmd.Context(), validator, args[0], f, topic, emit)
			if err != nil {
				return fmt.Errorf("%w (%s)", err, summary)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "done (%s)\n", summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "auto", "input format: auto|json|jsonl")
	cmd.Flags().StringVar(&topic, "topic", "", "topic for events without one")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print canonical events instead of publishing")
	return cmd
}

func newTopicsCmd(clientFor func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List topics with partition counts and high watermarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			topics, err := clientFor().Topics(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), topics)
		},
	}
}

func newFetchCmd(clientFor func() *client) *cobra.Command {
	var (
		from  int64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "fetch <topic> <partition>",
		Short: "Read records of one partition starting at an offset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			partition, err := parsePartition(args[1])
			if err != nil {
				return err
			}
			raw, err := clientFor().Fetch(cmd.Context(), args[0], partition, from, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), raw)
		},
	}
	cmd.Flags().Int64Var(&from, "from", 0, "first offset to read")
	cmd.Flags().IntVar(&limit, "max", 0, "maximum number of records (0: server default)")
	return cmd
}

func newConsumersCmd(clientFor func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "consumers",
		Short: "Show consumer state per group/topic/partition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := clientFor().Consumers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

func newResumeCmd(clientFor func() *client) *cobra.Command {
	var offset int64
	cmd := &cobra.Command{
		Use:   "resume <group> <topic> <partition>",
		Short: "Restart a stopped consumer, optionally from an explicit offset",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			partition, err := parsePartition(args[2])
			if err != nil {
				return err
			}
			req := domain.ResumeRequest{Group: args[0], Topic: args[1], Partition: partition}
			if cmd.Flags().Changed("offset") {
				if offset < 0 {
					return fmt.Errorf("offset must be >= 0, got %d", offset)
				}
				req.Offset = &offset
			}
			if err := clientFor().Resume(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resuming %s/%s/%d\n", req.Group, req.Topic, req.Partition)
			return nil
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", 0, "reset the read position to this offset")
	return cmd
}

func parsePartition(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 0 {
		return 0, fmt.Errorf("invalid partition %q", s)
	}
	return p, nil
}

func printLocation(w io.Writer, res domain.PublishResult) {
	fmt.Fprintf(w, "topic=%s partition=%d offset=%d retries=%d\n", res.Topic, res.Partition, res.Offset, res.Retries)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
