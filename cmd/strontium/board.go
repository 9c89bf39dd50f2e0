// ABOUTME: Cobra command launching the interactive board TUI.
// ABOUTME: Runs the bubbletea feed with scroll pagination and live search.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"strontium/internal/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Browse the board interactively",
	Long: `Open the interactive board view.

Scroll with j/k; the feed extends itself as you reach the bottom.
Press / to search (queries fire as you stop typing), n to compose,
e/d to edit or delete your own messages.`,
	RunE: runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	model := tui.NewBoardModel(globalClient, globalSession)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
