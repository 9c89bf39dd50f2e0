// ABOUTME: One-shot CLI commands for board operations.
// ABOUTME: Provides feed, post, edit, and delete subcommands over the remote API.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"strontium/internal/api"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Read the board feed",
	Long:  "List board messages, newest first, with optional text search.",
	RunE:  runFeed,
}

var postCmd = &cobra.Command{
	Use:   "post <content>",
	Short: "Post a message",
	Long:  "Create a new board message, optionally uploading file attachments first.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPost,
}

var editCmd = &cobra.Command{
	Use:   "edit <id> <content>",
	Short: "Replace a message's content",
	Args:  cobra.ExactArgs(2),
	RunE:  runEdit,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a message",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

// Flags
var (
	feedLimit  int
	feedSkip   int
	feedSearch string
	postAttach []string
)

func init() {
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)

	feedCmd.Flags().IntVar(&feedLimit, "limit", 10, "Maximum number of messages to show")
	feedCmd.Flags().IntVar(&feedSkip, "skip", 0, "Number of messages to skip")
	feedCmd.Flags().StringVar(&feedSearch, "search", "", "Only show messages containing this text")

	postCmd.Flags().StringArrayVar(&postAttach, "attach", nil, "File to upload and attach (repeatable, order preserved)")
}

func runFeed(cmd *cobra.Command, args []string) error {
	msgs, err := globalClient.ListMessages(cmd.Context(), api.Query{
		Skip:   feedSkip,
		Limit:  feedLimit,
		Search: feedSearch,
	})
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	if len(msgs) == 0 {
		fmt.Println("No messages found.")
		return nil
	}

	for _, msg := range msgs {
		fmt.Printf("--- #%d user %d [%s]\n", msg.ID, msg.OwnerID, msg.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Println(msg.Content)
		for _, u := range msg.FileURLs {
			fmt.Printf("  file: %s\n", u)
		}
		fmt.Println()
	}
	return nil
}

func runPost(cmd *cobra.Command, args []string) error {
	content := args[0]

	if !globalSession.Authenticated() {
		return fmt.Errorf("not logged in - run 'strontium login <email>' first")
	}

	// Upload strictly before create: the message must only ever reference
	// resolved attachment URLs. All files go out in one multipart call and
	// the returned URLs keep the input order.
	var fileURLs []string
	if len(postAttach) > 0 {
		files := make([]api.UploadFile, 0, len(postAttach))
		for _, path := range postAttach {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read attachment: %w", err)
			}
			files = append(files, api.UploadFile{Name: filepath.Base(path), Data: data})
		}
		urls, err := globalClient.Upload(cmd.Context(), files)
		if err != nil {
			return err
		}
		fileURLs = urls
	}

	msg, err := globalClient.CreateMessage(cmd.Context(), content, fileURLs)
	if err != nil {
		return describeMutationError(err)
	}

	fmt.Printf("Message posted (ID: %d)\n", msg.ID)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid message ID: %w", err)
	}
	content := strings.TrimSpace(args[1])
	if content == "" {
		return fmt.Errorf("content is empty")
	}

	if _, err := globalClient.UpdateMessage(cmd.Context(), id, content); err != nil {
		return describeMutationError(err)
	}

	fmt.Printf("Message %d updated\n", id)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid message ID: %w", err)
	}

	if err := globalClient.DeleteMessage(cmd.Context(), id); err != nil {
		return describeMutationError(err)
	}

	fmt.Printf("Message %d deleted\n", id)
	return nil
}

func describeMutationError(err error) error {
	switch {
	case errors.Is(err, api.ErrAuthRequired):
		return fmt.Errorf("not logged in - run 'strontium login <email>' first")
	case errors.Is(err, api.ErrSessionInvalid):
		return fmt.Errorf("session expired - run 'strontium login' again")
	case errors.Is(err, api.ErrForbidden):
		return fmt.Errorf("message not found or not yours to modify")
	default:
		return err
	}
}
