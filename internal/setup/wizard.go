package setup

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/njoerd114/feedrelay/internal/config"
)

// Wizard guides the user through first-run configuration.
type Wizard struct {
	prompt *Prompter
	logger *slog.Logger
	w      io.Writer
}

// NewWizard creates a Wizard wired to the given I/O and logger.
func NewWizard(r io.Reader, w io.Writer, logger *slog.Logger) *Wizard {
	return &Wizard{
		prompt: NewPrompter(r, w),
		logger: logger,
		w:      w,
	}
}

// Run executes the interactive setup wizard. It walks the user through the
// remote endpoints and paging settings, then writes the config file.
func (wiz *Wizard) Run() error {
	fmt.Fprintf(wiz.w, "\nWelcome to FeedRelay Setup!\n")
	fmt.Fprintf(wiz.w, "This wizard will help you configure FeedRelay.\n\n")

	// Check for existing config.
	cfgPath, err := config.DefaultPath()
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	if _, statErr := os.Stat(cfgPath); statErr == nil {
		fmt.Fprintf(wiz.w, "  Existing config found at %s\n", cfgPath)
		if !wiz.prompt.Confirm("Overwrite existing configuration?", false) {
			fmt.Fprintf(wiz.w, "\n  Keeping existing config.\n\n")
			return nil
		}
		fmt.Fprintf(wiz.w, "\n")
	}

	// Step 1: Remote endpoints.
	fmt.Fprintf(wiz.w, "Step 1/3 — Remote Endpoints\n")

	postsURL := wiz.prompt.String("Feed API base URL", "https://api.slingacademy.com")
	usersURL := wiz.prompt.String("User API base URL", "https://dummyjson.com")
	fmt.Fprintf(wiz.w, "\n")

	// Step 2: Paging and identity.
	fmt.Fprintf(wiz.w, "Step 2/3 — Paging\n")

	pageSize := wiz.prompt.Int("Posts per page (1-100)", 20, 1, 100)
	userID := wiz.prompt.Int("Your user id", 1, 1, 1<<31-1)
	fmt.Fprintf(wiz.w, "\n")

	// Step 3: Write config.
	fmt.Fprintf(wiz.w, "Step 3/3 — Save Configuration\n")

	cfg := &config.Config{
		PostsBaseURL:  postsURL,
		UsersBaseURL:  usersURL,
		PageSize:      pageSize,
		InitialOffset: 1,
		CurrentUserID: userID,
	}

	if err := cfg.Write(cfgPath); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(wiz.w, "  ✓ Config written to %s\n\n", cfgPath)

	fmt.Fprintf(wiz.w, "Setup complete! Browse the feed with: feedrelay feed\n\n")
	return nil
}
