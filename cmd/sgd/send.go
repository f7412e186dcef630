package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/signalgate/internal/model"
)

var sendCmd = &cobra.Command{
	Use:     "send",
	Short:   "Inject an inbound event, as the chat gateway would",
	GroupID: "events",
}

var sendCommandCmd = &cobra.Command{
	Use:   "command <from> <name> [args...]",
	Short: "Send a slash command (request, proof, setpayment, ...)",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := commandEvent(args)
		if err != nil {
			return err
		}
		return sendAndPrint(context.Background(), ev)
	},
}

var sendActionCmd = &cobra.Command{
	Use:   "action <from> <data>",
	Short: "Press an inline button (signal_available_<id>, signal_unavailable)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := actionEvent(args)
		if err != nil {
			return err
		}
		return sendAndPrint(context.Background(), ev)
	},
}

var sendReplyCmd = &cobra.Command{
	Use:   "reply <from> <reply-to> <text...>",
	Short: "Reply to a forwarded message",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := replyEvent(args)
		if err != nil {
			return err
		}
		return sendAndPrint(context.Background(), ev)
	},
}

func init() {
	sendCmd.AddCommand(sendCommandCmd)
	sendCmd.AddCommand(sendActionCmd)
	sendCmd.AddCommand(sendReplyCmd)
}

func commandEvent(args []string) (model.InboundEvent, error) {
	from, err := model.ParseClientID(args[0])
	if err != nil {
		return model.InboundEvent{}, fmt.Errorf("invalid sender %q: %w", args[0], err)
	}
	return model.InboundEvent{
		Kind:    model.EventCommand,
		From:    from,
		Command: strings.TrimPrefix(args[1], "/"),
		Args:    strings.Join(args[2:], " "),
	}, nil
}

func actionEvent(args []string) (model.InboundEvent, error) {
	from, err := model.ParseClientID(args[0])
	if err != nil {
		return model.InboundEvent{}, fmt.Errorf("invalid sender %q: %w", args[0], err)
	}
	return model.InboundEvent{Kind: model.EventAction, From: from, Data: args[1]}, nil
}

func replyEvent(args []string) (model.InboundEvent, error) {
	from, err := model.ParseClientID(args[0])
	if err != nil {
		return model.InboundEvent{}, fmt.Errorf("invalid sender %q: %w", args[0], err)
	}
	return model.InboundEvent{
		Kind:    model.EventReply,
		From:    from,
		ReplyTo: model.MessageRef(args[1]),
		Text:    strings.Join(args[2:], " "),
	}, nil
}

func sendAndPrint(ctx context.Context, ev model.InboundEvent) error {
	res, err := sgClient.SendEvent(ctx, ev)
	if err != nil {
		return fmt.Errorf("sending event: %w", err)
	}
	if jsonOutput {
		printJSON(res)
	} else {
		printInboundResult(stdout, res)
	}
	if !res.OK() {
		return fmt.Errorf("event not handled: %s", res.Outcome)
	}
	return nil
}
