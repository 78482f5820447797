package cmd

import (
	"context"
	"errors"
	"fmt"

	"smoothies/internal/queue"

	"github.com/spf13/cobra"
)

var watchGroup string

func init() {
	watchCmd.Flags().StringVar(&watchGroup, "group", "smoothiectl-watch", "kafka consumer group")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Streams newly placed orders from Kafka (kitchen display).",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.KafkaEnabled() {
			return errors.New("KAFKA_BROKERS is not set")
		}
		c := queue.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, watchGroup)
		defer c.Close()

		c.Run(cmd.Context(), func(_ context.Context, m queue.OrderMessage) error {
			_, err := fmt.Fprintf(out(cmd), "%s  %-20s %s\n", m.OrderTS.Format("15:04:05"), m.NameOnOrder, m.Ingredients)
			return err
		})
		return nil
	},
}
