package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"assistant/internal/model"
	"assistant/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newChatCmd(c *cli) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		Long: `Reads one message per line from stdin and prints the assistant's reply.
Context is kept for the whole session. An empty line or EOF ends it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.warm(cmd.Context()); err != nil {
				c.logger.Warn("Continuing without intent detection", zap.Error(err))
			}
			return runChatLoop(cmd.Context(), a.chat, userID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", model.DefaultUserID, "User id the conversation is stored under")
	return cmd
}

// runChatLoop feeds each input line through the chat pipeline
func runChatLoop(ctx context.Context, chat *service.ChatService, userID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}

		resp, err := chat.Chat(ctx, model.ChatRequest{Message: line, UserID: userID})
		var inputErr *service.InputError
		switch {
		case errors.As(err, &inputErr):
			fmt.Fprintln(out, service.RejectionReply(inputErr.Reason))
		case err != nil:
			fmt.Fprintln(out, service.ApologyReply)
		default:
			fmt.Fprintln(out, resp.Response)
			if resp.CanSearch {
				fmt.Fprintln(out, "[đủ thông tin để tìm kiếm]")
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func newExtractCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [text]",
		Short: "Print the entities found in a message as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := service.ValidateInput(strings.Join(args, " "))
			if err != nil {
				return err
			}
			entities := service.NewEntityExtractor(c.logger).Extract(text)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(model.ExtractResponse{Entities: entities, Empty: entities.IsEmpty()})
		},
	}
}
