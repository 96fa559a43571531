package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"support-agent/internal/domain"
	"support-agent/internal/replies"
	"support-agent/internal/usecase"
)

type chatOptions struct {
	customer     string
	profile      string
	profileFile  string
	sharedLookup bool
	typingDelay  time.Duration
	timezone     string
}

func newChatCmd(app *App) *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the support assistant as a customer",
		Long: `Start a conversation as the given customer. Ask about "refund status",
"order status" or "amount debited", then answer with an order number when asked.
The session ends at end of input or when you say bye.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.customer, "customer", "", "customer key (phone number) to chat as")
	cmd.Flags().StringVar(&opts.profile, "profile", replies.ProfileSupport, "reply wording: "+strings.Join(replies.ProfileNames(), ", "))
	cmd.Flags().StringVar(&opts.profileFile, "profile-file", "", "YAML file overlaid on the selected profile")
	cmd.Flags().BoolVar(&opts.sharedLookup, "shared-lookup", false, "let lookups match orders of other customers")
	cmd.Flags().DurationVar(&opts.typingDelay, "typing-delay", time.Second, "pause before each reply")
	cmd.Flags().StringVar(&opts.timezone, "timezone", "Local", "time zone for dates in replies")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

func runChat(cmd *cobra.Command, app *App, opts chatOptions) error {
	profile, err := loadProfile(opts.profile, opts.profileFile)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("invalid --timezone: %w", err)
	}

	dbPath, _ := cmd.Flags().GetString("db")
	store, closeDB, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer closeDB()

	svcOpts := []usecase.ChatOption{
		usecase.WithEngineOptions(usecase.WithTypingDelay(opts.typingDelay), usecase.WithLocation(loc)),
	}
	if opts.sharedLookup {
		svcOpts = append(svcOpts, usecase.WithSharedLookup(store))
	}
	svc, err := usecase.NewChatService(store, usecase.StaticProfile(profile), svcOpts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	engine, err := svc.OpenSession(ctx, opts.customer)
	if err != nil {
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Reason == "customer_not_found" {
			return fmt.Errorf("no customer %q in %s (run seed first?)", opts.customer, dbPath)
		}
		return err
	}

	out := cmd.OutOrStdout()
	state := engine.Start()
	printReply(out, engine.Greeting())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if app.interactive() {
			fmt.Fprintf(out, "%s\n> ", engine.Placeholder(state))
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ending := state.Idle() && usecase.ClassifyIntent(line) == domain.IntentEndConversation

		next, reply, err := engine.Submit(ctx, state, line)
		if err != nil {
			var ucErr *usecase.Error
			if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorCanceled {
				return nil
			}
			return err
		}
		state = next
		printReply(out, reply)
		if ending {
			return nil
		}
	}
	return scanner.Err()
}

func printReply(w io.Writer, reply string) {
	fmt.Fprintf(w, "Assistant: %s\n\n", reply)
}

func loadProfile(name, path string) (replies.Profile, error) {
	base, err := replies.ProfileByName(name)
	if err != nil {
		return replies.Profile{}, err
	}
	if path == "" {
		return base, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return replies.Profile{}, fmt.Errorf("opening profile file: %w", err)
	}
	defer f.Close()
	return replies.LoadProfile(f, base)
}
