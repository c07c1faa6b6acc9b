package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	dbFlag         string
	experimentFlag string

	rootCmd = &cobra.Command{
		Use:   "runboard",
		Short: "Terminal-based experiment run and metric explorer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp()
		},
	}
)

func init() {
	rootCmd.Flags().StringVar(&dbFlag, "db", "runs.db", "Path to the SQLite run database")
	rootCmd.Flags().StringVar(&experimentFlag, "experiment", "", "Experiment to open (defaults to config, then the first one)")
}

func runApp() error {
	if os.Getenv("DEBUG") != "" {
		f, err := tea.LogToFile("debug.log", "debug")
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer f.Close()
	}

	defaults, settings, err := loadAppConfig()
	if err != nil {
		// Config problems fall back to defaults; note it on stderr and move on.
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
	}

	experiment := experimentFlag
	if experiment == "" {
		experiment = settings.Experiment
	}

	p := tea.NewProgram(newModel(dbFlag, experiment, defaults, settings), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}
