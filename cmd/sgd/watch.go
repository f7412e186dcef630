package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/signalgate/internal/client"
)

var watchTopics []string

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream audit events as the router emits them",
	GroupID: "views",
	Long: `Stream audit events from the server until interrupted.

Topics accept NATS-style wildcards, e.g. "signalgate.request.*" or
"signalgate.>". With no --topic flag every event is shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return sgClient.StreamEvents(ctx, watchTopics, func(e client.Event) error {
			if jsonOutput {
				fmt.Fprintf(stdout, "{\"id\":%d,\"topic\":%q,\"data\":%s}\n", e.ID, e.Topic, e.Data)
				return nil
			}
			printEvent(stdout, e)
			return nil
		})
	},
}

func init() {
	watchCmd.Flags().StringSliceVar(&watchTopics, "topic", nil, "topic pattern to follow (repeatable)")
}

func trimTopic(topic string) string {
	return strings.TrimPrefix(topic, "signalgate.")
}
