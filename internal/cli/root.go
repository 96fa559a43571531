package cli

import (
	"github.com/spf13/cobra"
)

// App holds what the commands need from the process environment.
type App struct {
	// DefaultDB is the database path used when --db is not given.
	DefaultDB string
	// IsInteractive reports whether input comes from a terminal. Prompts and
	// input hints are only printed when it does.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "supportchat" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "supportchat",
		Short:         "Order support assistant for refund and order status questions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("db", app.DefaultDB, "path to the SQLite order database")

	root.AddCommand(
		newSeedCmd(app),
		newChatCmd(app),
	)
	return root
}
