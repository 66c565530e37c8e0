/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/roomly/apiserver/config"
	"github.com/roomly/apiserver/internal/logging"
	"github.com/roomly/apiserver/internal/mq"
	"github.com/roomly/apiserver/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect account events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log account events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.NewFromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("events are disabled: set MQ_BACKEND")
		}
		defer queue.Close()

		logger.WithField("channel", cfg.MQ.Channel).Info("tailing account events")
		err = queue.Subscribe(ctx, cfg.MQ.Channel, func(_ context.Context, msg mq.Message) error {
			var event types.UserEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				logger.WithError(err).WithField("message_id", msg.ID).Warn("skip malformed event")
				return nil
			}
			logger.WithFields(logrus.Fields{
				"message_id":  msg.ID,
				"type":        event.Type,
				"user_id":     event.UserID,
				"picture_id":  event.PictureID,
				"occurred_at": event.OccurredAt,
			}).Info("account event")
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
