package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alejoacosta74/kafka-publisher/internal/dispatch"
	"github.com/alejoacosta74/kafka-publisher/internal/kafka"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
	"github.com/alejoacosta74/kafka-publisher/internal/publish"
	"github.com/spf13/cobra"
)

type publishOptions struct {
	topic  string
	key    string
	prefix string
	count  int
	start  int
	end    int
}

var pubOpts publishOptions

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a numbered batch or an index range and print the report",
	Example: `  kafka-publisher publish --topic orders --key order --prefix payload --count 10
  kafka-publisher publish --topic orders --key order --prefix payload --start 5 --end 9`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	f := publishCmd.Flags()
	f.StringVar(&pubOpts.topic, "topic", "", "destination topic")
	f.StringVar(&pubOpts.key, "key", "", "key prefix")
	f.StringVar(&pubOpts.prefix, "prefix", "", "message prefix")
	f.IntVar(&pubOpts.count, "count", 0, "number of messages, numbered from 1")
	f.IntVar(&pubOpts.start, "start", 0, "first index of the range")
	f.IntVar(&pubOpts.end, "end", 0, "last index of the range (inclusive)")

	publishCmd.MarkFlagRequired("topic")
	publishCmd.MarkFlagsMutuallyExclusive("count", "start")
	publishCmd.MarkFlagsMutuallyExclusive("count", "end")
	publishCmd.MarkFlagsRequiredTogether("start", "end")
}

// buildRequest picks the request shape from the flags that were set.
func buildRequest(o publishOptions, rangeSet bool, maxBatch int) publish.Normalizer {
	if rangeSet {
		return publish.RangeRequest{
			Topic:       o.topic,
			KeyPrefix:   o.key,
			ValuePrefix: o.prefix,
			StartIndex:  o.start,
			EndIndex:    o.end,
			MaxBatch:    maxBatch,
		}
	}
	return publish.CountRequest{
		Topic:       o.topic,
		KeyPrefix:   o.key,
		ValuePrefix: o.prefix,
		Count:       o.count,
		MaxBatch:    maxBatch,
	}
}

func runPublish(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req := buildRequest(pubOpts, cmd.Flags().Changed("start"), cfg.Dispatch.MaxBatchSize)
	descs, err := req.Normalize()
	if err != nil {
		return err
	}
	dcfg, err := cfg.Dispatch.ToDispatch()
	if err != nil {
		return err
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}

	report := dispatch.New(producer, dcfg).Dispatch(cmd.Context(), descs)
	// flush before printing so delivery failures are logged first
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close producer")
	}

	if err := printReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.Status == dispatch.StatusFailed {
		return fmt.Errorf("batch %s failed: %s", report.BatchID, report.Error)
	}
	return nil
}

func printReport(w io.Writer, report dispatch.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
