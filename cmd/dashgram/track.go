package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/flemzord/dashgram/pkg/dashgram"
	"github.com/spf13/cobra"
)

func trackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track [file]",
		Short: "Track one update read from a JSON file or stdin",
		Long: "Track one Telegram update. The input is a full update object, or a bare\n" +
			"payload (message, callback query, ...) together with --kind.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, "")
			if err != nil {
				return err
			}

			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if !json.Valid(raw) {
				return errors.New("input is not valid JSON")
			}

			opts := []dashgram.CallOption{dashgram.Strict()}
			if k, _ := cmd.Flags().GetString("kind"); k != "" {
				kind, err := dashgram.ParseHandlerKind(k)
				if err != nil {
					return err
				}
				opts = append(opts, dashgram.AsKind(kind))
			}

			client := newClient(cmd, cfg)
			defer func() { _ = client.Close() }()

			if _, err := client.TrackEvent(cmd.Context(), json.RawMessage(raw), opts...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "tracked")
			return nil
		},
	}
	cmd.Flags().StringP("kind", "k", "", "Handler kind of a bare payload (e.g. message, callback_query)")
	return cmd
}

func invitedByCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invited-by <user_id> <inviter_id>",
		Short: "Record that a user joined through another user's referral",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user_id %q: %w", args[0], err)
			}
			inviterID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid inviter_id %q: %w", args[1], err)
			}

			cfg, err := loadConfig(cmd, "")
			if err != nil {
				return err
			}
			client := newClient(cmd, cfg)
			defer func() { _ = client.Close() }()

			if _, err := client.InvitedBy(cmd.Context(), userID, inviterID, dashgram.Strict()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "recorded")
			return nil
		},
	}
}

// readInput returns the named file's contents, or stdin when no file (or
// "-") is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return data, nil
}
