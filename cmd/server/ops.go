package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/arturoeanton/reliefchat/internal/domain"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	var displayName string

	cmd := &cobra.Command{
		Use:   "token <verifiedId>",
		Short: "Upsert a chat user and print its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				tok, err := a.identity.IssueToken(ctx, args[0], displayName)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tok)
			})
		},
	}
	cmd.Flags().StringVarP(&displayName, "name", "n", "", "display name shown to other users")
	return cmd
}

func channelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Resolve chat channels",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "public <userId>",
		Short: "Join a user to the global public channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveAndPrint(cmd.OutOrStdout(), func(*app) domain.ChannelRequest {
				return domain.PublicRequest(args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dm <userId> <targetUserId>",
		Short: "Open the direct channel between two users",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveAndPrint(cmd.OutOrStdout(), func(*app) domain.ChannelRequest {
				return domain.DirectRequest(args[0], args[1])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "group <creatorId> <name> <memberId>...",
		Short: "Create a new group channel",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveAndPrint(cmd.OutOrStdout(), func(a *app) domain.ChannelRequest {
				return a.channels.GroupRequest(args[0], args[1], args[2:])
			})
		},
	})

	return cmd
}

func resolveAndPrint(w io.Writer, build func(*app) domain.ChannelRequest) error {
	return withApp(func(ctx context.Context, a *app) error {
		ch, err := a.channels.Resolve(ctx, build(a))
		if err != nil {
			return err
		}
		return printJSON(w, ch)
	})
}

func withApp(fn func(context.Context, *app) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
