// Command circlectl is a terminal client for mood circles.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xiaot623/serenai/internal/protocol"
)

var (
	addr        string
	anonymousID string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "circlectl",
		Short:        "Join and talk in serenai mood circles",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", "ws://localhost:5000/ws", "WebSocket server address")
	root.PersistentFlags().StringVar(&anonymousID, "as", "", "pseudonym to use (random if empty)")

	root.AddCommand(newJoinCmd(), newLikeCmd())
	return root
}

func pseudonym() string {
	if anonymousID != "" {
		return anonymousID
	}
	return "anon_" + uuid.New().String()[:8]
}

func newJoinCmd() *cobra.Command {
	var emotion string
	cmd := &cobra.Command{
		Use:   "join <circle-id>",
		Short: "Join a circle, print its events and post stdin lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			circleID := args[0]
			client, err := NewClient(addr, pseudonym())
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Join(circleID); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Joined %s as %s. Commands: /like <id>, /leave, /quit\n", circleID, client.anonymousID)

			go func() {
				for {
					event, err := client.Next()
					if err != nil {
						return
					}
					formatEvent(out, event)
				}
			}()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				input := strings.TrimSpace(scanner.Text())
				switch {
				case input == "":
					continue
				case input == "/quit":
					return nil
				case input == "/leave":
					return client.Leave(circleID)
				case strings.HasPrefix(input, "/like "):
					err = client.Like(circleID, strings.TrimSpace(strings.TrimPrefix(input, "/like ")))
				default:
					err = client.Post(circleID, input, emotion)
				}
				if err != nil {
					return fmt.Errorf("send: %w", err)
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&emotion, "emotion", "", "emotion tag attached to posts")
	return cmd
}

func newLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <circle-id> <message-id>",
		Short: "Like a message and wait for the broadcast",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			circleID, messageID := args[0], args[1]
			client, err := NewClient(addr, pseudonym())
			if err != nil {
				return err
			}
			defer client.Close()

			// join first so the broadcast reaches us
			if err := client.Join(circleID); err != nil {
				return err
			}
			if err := client.Like(circleID, messageID); err != nil {
				return err
			}
			for {
				event, err := client.Next()
				if err != nil {
					return err
				}
				switch event["type"] {
				case protocol.TypeMessageLiked:
					if event["messageId"] == messageID {
						formatEvent(cmd.OutOrStdout(), event)
						return nil
					}
				case protocol.TypeError:
					formatEvent(cmd.ErrOrStderr(), event)
					return fmt.Errorf("like failed: %v", event["code"])
				}
			}
		},
	}
}
