// FeedRelay is a client-side feed synchronisation engine: it pages a remote
// photo feed, enriches every post with its resolved author, caches the merged
// result in SQLite, and overlays session state (likes, local comments) on top.
//
// Usage:
//
//	feedrelay setup                       # interactive first-run wizard
//	feedrelay feed [--config <path>]      # page through the enriched feed
//	feedrelay post <id> [--config ...]    # show one post with comments
//	feedrelay comments <id> [--config ..] # list a post's server comments
//	feedrelay like <id> [--config ...]    # toggle your like on a cached post
//	feedrelay comment <id> <text> [...]   # attach a session-local comment
//	feedrelay user <id> [--config ...]    # look up a user's profile
//	feedrelay status                      # show config & cache state
//	feedrelay clear-cache [--config ...]  # drop every cached post
//	feedrelay version                     # print version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/njoerd114/feedrelay/internal/cache"
	"github.com/njoerd114/feedrelay/internal/config"
	"github.com/njoerd114/feedrelay/internal/feed"
	"github.com/njoerd114/feedrelay/internal/model"
	"github.com/njoerd114/feedrelay/internal/posts"
	"github.com/njoerd114/feedrelay/internal/session"
	"github.com/njoerd114/feedrelay/internal/setup"
	"github.com/njoerd114/feedrelay/internal/telemetry"
	"github.com/njoerd114/feedrelay/internal/users"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// run dispatches to the appropriate subcommand.
func run() error {
	if len(os.Args) < 2 {
		return printUsage()
	}

	switch cmd := os.Args[1]; cmd {
	case "setup":
		return runSetup()
	case "feed":
		return runFeed(os.Args[2:])
	case "post":
		return runPost(os.Args[2:])
	case "comments":
		return runComments(os.Args[2:])
	case "like":
		return runLike(os.Args[2:])
	case "comment":
		return runComment(os.Args[2:])
	case "user":
		return runUser(os.Args[2:])
	case "status":
		return runStatus()
	case "clear-cache":
		return runClearCache(os.Args[2:])
	case "version":
		fmt.Println("feedrelay", version)
		return nil
	default:
		return fmt.Errorf("unknown command %q — run 'feedrelay' for usage", cmd)
	}
}

// printUsage shows help and suggests setup if no config exists.
func printUsage() error {
	cfgPath, _ := config.DefaultPath()
	_, cfgErr := os.Stat(cfgPath)

	fmt.Fprintln(os.Stderr, "FeedRelay — paged feed sync with offline cache")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  feedrelay setup                       Interactive first-run wizard")
	fmt.Fprintln(os.Stderr, "  feedrelay feed [--config ...]         Page through the enriched feed")
	fmt.Fprintln(os.Stderr, "  feedrelay post <id> [--config ...]    Show one post with comments")
	fmt.Fprintln(os.Stderr, "  feedrelay comments <id> [--config ..] List a post's server comments")
	fmt.Fprintln(os.Stderr, "  feedrelay like <id> [--config ...]    Toggle your like on a cached post")
	fmt.Fprintln(os.Stderr, "  feedrelay comment <id> <text> [...]   Attach a session-local comment")
	fmt.Fprintln(os.Stderr, "  feedrelay user <id> [--config ...]    Look up a user's profile")
	fmt.Fprintln(os.Stderr, "  feedrelay status                      Show config & cache state")
	fmt.Fprintln(os.Stderr, "  feedrelay clear-cache [--config ...]  Drop every cached post")
	fmt.Fprintln(os.Stderr, "  feedrelay version                     Print version")
	fmt.Fprintln(os.Stderr, "")

	if cfgErr != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Run 'feedrelay setup' to get started.")
	}

	os.Exit(1)
	return nil // unreachable
}

// --- Subcommands -------------------------------------------------------------

// runSetup launches the interactive setup wizard.
func runSetup() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	wiz := setup.NewWizard(os.Stdin, os.Stdout, logger)
	return wiz.Run()
}

// runFeed pages through the whole feed, printing every enriched post with the
// session overlay applied.
func runFeed(args []string) error {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withApp(*cfgPath, *verbose, func(ctx context.Context, app *app) error {
		stream := app.repo.PagedStream()
		for {
			page, err := stream.Next(ctx)
			if err != nil {
				return fmt.Errorf("loading feed page: %w", err)
			}
			if page == nil {
				return nil
			}
			for _, dp := range app.sess.DisplayAll(page.Posts) {
				printPost(dp)
			}
		}
	})
}

// runPost shows a single post, expanding its details to include comments.
func runPost(args []string) error {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	postID, err := parseIDArg(fs, args, "post")
	if err != nil {
		return err
	}

	return withApp(*cfgPath, *verbose, func(ctx context.Context, app *app) error {
		p, err := app.repo.GetByID(ctx, postID)
		if err != nil {
			return fmt.Errorf("loading post %d: %w", postID, err)
		}
		if p == nil {
			fmt.Printf("post %d not found\n", postID)
			return nil
		}

		app.sess.ExpandDetails(ctx, postID)
		printPost(app.sess.Display(*p))
		return nil
	})
}

// runComments prints the server comments for a post. Comments are
// best-effort, so an unreachable remote prints nothing rather than failing.
func runComments(args []string) error {
	fs := flag.NewFlagSet("comments", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	postID, err := parseIDArg(fs, args, "post")
	if err != nil {
		return err
	}

	return withApp(*cfgPath, *verbose, func(ctx context.Context, app *app) error {
		comments := app.repo.CommentsFor(ctx, postID)
		if len(comments) == 0 {
			fmt.Printf("no comments for post %d\n", postID)
			return nil
		}
		for _, c := range comments {
			fmt.Printf("[%d] %s\n", c.UserID, c.Text)
		}
		return nil
	})
}

// runLike toggles the current user's like on a cached post.
func runLike(args []string) error {
	fs := flag.NewFlagSet("like", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	postID, err := parseIDArg(fs, args, "post")
	if err != nil {
		return err
	}

	return withApp(*cfgPath, *verbose, func(ctx context.Context, app *app) error {
		app.sess.ToggleLike(ctx, postID)
		app.sess.Wait()

		if msg := app.sess.ErrorMessage(); msg != "" {
			return errors.New(msg)
		}
		fmt.Printf("toggled like on post %d\n", postID)
		return nil
	})
}

// runComment attaches a session-local comment to a post and prints the merged
// view. Local comments are never submitted to the server and live only for
// the invocation.
func runComment(args []string) error {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("expected <id> <text> arguments")
	}
	postID, err := strconv.Atoi(fs.Arg(0))
	if err != nil || postID < 1 {
		return fmt.Errorf("invalid post id %q", fs.Arg(0))
	}
	text := strings.Join(fs.Args()[1:], " ")

	return withApp(*cfgPath, *verbose, func(ctx context.Context, app *app) error {
		p, err := app.repo.GetByID(ctx, postID)
		if err != nil {
			return fmt.Errorf("loading post %d: %w", postID, err)
		}
		if p == nil {
			fmt.Printf("post %d not found\n", postID)
			return nil
		}

		app.sess.ExpandDetails(ctx, postID)
		app.sess.AddLocalComment(postID, text)
		printPost(app.sess.Display(*p))
		return nil
	})
}

// runUser looks up a single user's profile.
func runUser(args []string) error {
	fs := flag.NewFlagSet("user", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	userID, err := parseIDArg(fs, args, "user")
	if err != nil {
		return err
	}

	return withApp(*cfgPath, *verbose, func(ctx context.Context, app *app) error {
		u, err := app.users.Lookup(ctx, userID)
		if err != nil {
			return fmt.Errorf("looking up user %d: %w", userID, err)
		}
		if u == nil {
			fmt.Printf("user %d not found\n", userID)
			return nil
		}
		fmt.Print(formatUser(*u))
		return nil
	})
}

// runStatus prints the current configuration and cache state.
func runStatus() error {
	cfgPath, _ := config.DefaultPath()

	fmt.Println("FeedRelay Status")
	fmt.Println("────────────────")

	dbPath := ""
	if _, err := os.Stat(cfgPath); err == nil {
		if cfg, loadErr := config.Load(cfgPath); loadErr == nil {
			fmt.Printf("  Config:    %s ✓\n", cfgPath)
			fmt.Printf("  Feed API:  %s\n", cfg.PostsBaseURL)
			fmt.Printf("  User API:  %s\n", cfg.UsersBaseURL)
			fmt.Printf("  Page size: %d\n", cfg.PageSize)
			fmt.Printf("  User id:   %d\n", cfg.CurrentUserID)
			dbPath = cfg.CachePath
		} else {
			fmt.Printf("  Config:    %s (invalid: %v)\n", cfgPath, loadErr)
		}
	} else {
		fmt.Printf("  Config:    not found (%s)\n", cfgPath)
	}

	if dbPath == "" {
		dbPath, _ = cache.DefaultDBPath()
	}
	if info, err := os.Stat(dbPath); err == nil {
		fmt.Printf("  Cache DB:  %s (%s)\n", dbPath, humanSize(info.Size()))
	} else {
		fmt.Printf("  Cache DB:  not found\n")
	}

	return nil
}

// runClearCache drops every cached post.
func runClearCache(args []string) error {
	fs := flag.NewFlagSet("clear-cache", flag.ExitOnError)
	cfgPath, verbose := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withApp(*cfgPath, *verbose, func(ctx context.Context, app *app) error {
		if err := app.repo.Clear(ctx); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Println("cache cleared")
		return nil
	})
}

// --- Shared wiring -----------------------------------------------------------

// app bundles the wired components handed to each subcommand body.
type app struct {
	repo  *feed.Repository
	sess  *session.Session
	users *users.Adapter
}

// commonFlags registers the flags every data-path subcommand shares.
func commonFlags(fs *flag.FlagSet) (cfgPath *string, verbose *bool) {
	defaultCfg, _ := config.DefaultPath()
	cfgPath = fs.String("config", defaultCfg, "path to config.yaml")
	verbose = fs.Bool("verbose", false, "enable debug logging")
	return cfgPath, verbose
}

// parseIDArg parses flags plus one required positional <id> argument; noun
// names the id's subject in error messages ("post", "user").
func parseIDArg(fs *flag.FlagSet, args []string, noun string) (int, error) {
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if fs.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one <id> argument")
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s id %q", noun, fs.Arg(0))
	}
	return id, nil
}

// withApp loads config, wires the full stack, runs fn, and tears down.
func withApp(cfgPath string, verbose bool, fn func(context.Context, *app) error) error {
	// --- Logger --------------------------------------------------------------

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// --- Config --------------------------------------------------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config from %q: %w", cfgPath, err)
	}
	logger.Debug("config loaded",
		"posts_base_url", cfg.PostsBaseURL,
		"users_base_url", cfg.UsersBaseURL,
		"page_size", cfg.PageSize,
	)

	// --- Telemetry (optional) ------------------------------------------------

	if cfg.Telemetry != nil {
		telCfg := telemetry.Config{
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			Insecure:     cfg.Telemetry.Insecure,
			ServiceName:  cfg.Telemetry.ServiceName,
			Headers:      cfg.Telemetry.Headers,
		}
		shutdownTel, err := telemetry.Setup(context.Background(), telCfg)
		if err != nil {
			logger.Error("telemetry setup failed, continuing without telemetry", "error", err)
		} else {
			logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.OTLPEndpoint)
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTel(flushCtx); err != nil {
					logger.Error("telemetry shutdown error", "error", err)
				}
			}()
		}
	}

	// --- Cache DB ------------------------------------------------------------

	dbPath := cfg.CachePath
	if dbPath == "" {
		dbPath, err = cache.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolving cache DB path: %w", err)
		}
	}
	store, err := cache.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening cache DB at %q: %w", dbPath, err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("closing cache DB", "error", closeErr)
		}
	}()
	logger.Debug("cache DB opened", "path", dbPath)

	// --- Adapters & engine ---------------------------------------------------

	postSource := posts.NewAdapter(cfg.PostsBaseURL, logger)
	userResolver := users.NewAdapter(cfg.UsersBaseURL, logger)

	repo := feed.NewRepository(postSource, userResolver, store, cfg.PageSize, cfg.InitialOffset, logger)
	sess := session.New(repo, cfg.CurrentUserID, session.NewCounter(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	err = fn(ctx, &app{repo: repo, sess: sess, users: userResolver})
	sess.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// humanSize returns a human-readable file size string.
func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatUser renders a looked-up profile, skipping fields the lookup source
// omitted.
func formatUser(u model.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d)\n", u.DisplayName(), u.ID)
	if u.Username != "" {
		fmt.Fprintf(&b, "  username: %s\n", u.Username)
	}
	if u.Email != "" {
		fmt.Fprintf(&b, "  email:    %s\n", u.Email)
	}
	if u.Address != "" {
		fmt.Fprintf(&b, "  address:  %s\n", u.Address)
	}
	return b.String()
}

// printPost writes one merged post to stdout.
func printPost(dp model.DisplayPost) {
	liked := " "
	if dp.IsLiked {
		liked = "♥"
	}
	fmt.Printf("#%d %s %s — %s (%d likes)\n", dp.ID, liked, dp.Title, dp.UserName, dp.LikeCount)
	if dp.Description != "" {
		fmt.Printf("    %s\n", dp.Description)
	}
	for _, c := range dp.Comments {
		fmt.Printf("    > [%d] %s\n", c.UserID, c.Text)
	}
}
