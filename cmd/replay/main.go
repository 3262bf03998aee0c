package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"replay/internal/api"
	"replay/internal/auth"
	configpkg "replay/internal/config"
	"replay/internal/doctor"
	"replay/internal/gateway"
	"replay/internal/logging"
	"replay/internal/notify"
	"replay/internal/session"
	"replay/internal/store"
	themepkg "replay/internal/theme"
	"replay/internal/tui"
	"replay/internal/version"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fatal(err)
	}
}

// flags are the persistent overrides shared by every command.
type flags struct {
	BaseURL  string
	DBPath   string
	LogLevel string
	Tab      string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "replay",
		Short:         "Prop and costume sharing for university theater clubs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive app
  replay

  # Open straight on the trade tab
  replay --tab trade

  # Scriptable commands
  replay login --email me@uni.ac.kr --password secret
  replay schools --keyword yonsei
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd.Context(), f)
		},
	}

	cmd.PersistentFlags().StringVar(&f.BaseURL, "base-url", "", "API base URL (overrides config and REPLAY_BASE_URL)")
	cmd.PersistentFlags().StringVar(&f.DBPath, "db", "", "Path to the local token database")
	cmd.PersistentFlags().StringVar(&f.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&f.Tab, "tab", "", "Initial tab (home|trade|manage|community|mypage)")

	cmd.AddCommand(newLoginCmd(f))
	cmd.AddCommand(newLogoutCmd(f))
	cmd.AddCommand(newWhoamiCmd(f))
	cmd.AddCommand(newSchoolsCmd(f))
	cmd.AddCommand(newClubsCmd(f))
	cmd.AddCommand(newDoctorCmd(f))
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newThemeCmd())
	return cmd
}

// loadConfig layers file, environment and flags, in that order.
func loadConfig(f *flags) (configpkg.Config, error) {
	cfg, err := configpkg.Load()
	if err != nil {
		return configpkg.Config{}, err
	}
	configpkg.ApplyEnv(&cfg)
	if v := strings.TrimSpace(f.BaseURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(f.DBPath); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(f.LogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(f.Tab); v != "" {
		cfg.InitialTab = v
	}
	configpkg.EnsureDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return configpkg.Config{}, err
	}
	return cfg, nil
}

// deps is the wired service graph for one invocation.
type deps struct {
	cfg     configpkg.Config
	logger  *slog.Logger
	db      *store.DB
	gw      *gateway.Client
	client  *api.Client
	session *session.Store

	closeLog func() error
}

// openDeps wires storage, transport and session. Interactive runs log to the
// state file because the terminal belongs to the UI.
func openDeps(ctx context.Context, f *flags, interactive bool, stderr io.Writer) (*deps, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, err
	}
	logOpts := logging.Options{Level: cfg.Log.Level}
	if interactive {
		path, err := cfg.LogPath()
		if err != nil {
			return nil, err
		}
		logOpts.FilePath = path
	} else {
		logOpts.Console = stderr
	}
	logger, closeLog, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		_ = closeLog()
		return nil, err
	}
	db, err := store.Open(ctx, dbPath)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("open token store: %w", err)
	}

	gw := gateway.New(gateway.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		Logger:  logger.With("component", "gateway"),
	})
	client := api.NewClient(gw)
	sess := session.New(store.TokenStore{DB: db}, client, logger.With("component", "session"))
	if err := sess.Hydrate(ctx); err != nil {
		logger.Warn("token hydrate failed; starting logged out", "err", err)
	}
	return &deps{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		gw:       gw,
		client:   client,
		session:  sess,
		closeLog: closeLog,
	}, nil
}

func (d *deps) Close() error {
	err := d.db.Close()
	if cerr := d.closeLog(); err == nil {
		err = cerr
	}
	return err
}

func runApp(ctx context.Context, f *flags) error {
	d, err := openDeps(ctx, f, true, os.Stderr)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	svc := appServices(d, resolveUITheme(d.cfg, d.logger))
	if d.cfg.Notifications.Live {
		svc.Live = liveListener(gctx, g, d)
	}
	g.Go(func() error {
		defer cancel()
		return tui.RunApp(svc)
	})
	return g.Wait()
}

// liveListener returns the hook the UI calls on every login. Each listener
// stops when the UI cancels it or when the app exits, and closes its channel.
func liveListener(appCtx context.Context, g *errgroup.Group, d *deps) func(context.Context, string) <-chan api.Notification {
	logger := d.logger.With("component", "notify")
	return func(ctx context.Context, token string) <-chan api.Notification {
		out := make(chan api.Notification, 16)
		l, err := notify.New(d.cfg.API.BaseURL, token, logger)
		if err != nil {
			logger.Warn("live notifications disabled", "err", err)
			close(out)
			return out
		}
		g.Go(func() error {
			defer close(out)
			runCtx, stop := context.WithCancel(ctx)
			defer stop()
			unhook := context.AfterFunc(appCtx, stop)
			defer unhook()
			if err := l.Run(runCtx, out); err != nil {
				logger.Warn("notification socket closed", "err", err)
			}
			return nil
		})
		return out
	}
}

// appServices adapts the session and API client to the callbacks the UI runs
// inside its commands.
func appServices(d *deps, uiTheme tui.UITheme) tui.Services {
	client := d.client
	return tui.Services{
		Provider: auth.NewProvider(d.session, d.logger.With("component", "auth")),
		Login:    d.session.RequestLogin,
		Signup:   d.session.RequestSignup,
		Revoke:   d.session.Revoke,
		Profile:  client.Profile,
		Schools: func(ctx context.Context, keyword string) ([]api.School, error) {
			return client.Schools(ctx, api.ListQuery{Keyword: keyword})
		},
		Clubs: func(ctx context.Context, schoolID int64, keyword string) ([]api.Club, error) {
			return client.Clubs(ctx, schoolID, api.ListQuery{Keyword: keyword})
		},
		Notifications: func(ctx context.Context, token string) ([]api.Notification, error) {
			return client.Notifications(ctx, token, api.ListQuery{})
		},
		InitialTab: d.cfg.InitialTab,
		Version:    version.Value,
		Theme:      uiTheme,
		Logger:     d.logger.With("component", "tui"),
	}
}

func resolveUITheme(cfg configpkg.Config, logger *slog.Logger) tui.UITheme {
	palette, id, err := themepkg.LoadActivePaletteHex(cfg)
	if err != nil {
		logger.Warn("theme load failed, using default", "theme", cfg.Theme.Active, "err", err)
	}
	logger.Debug("theme resolved", "theme", id)
	resolved := themepkg.ResolveForTerminal(palette, themepkg.DetectTrueColor())
	return tui.UIThemeFromResolved(resolved)
}

func newLoginCmd(f *flags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			d, err := openDeps(cmd.Context(), f, false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()
			if err := d.session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", strings.TrimSpace(email))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newLogoutCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDeps(cmd.Context(), f, false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()
			prev, err := d.session.Logout(cmd.Context())
			if err != nil {
				return err
			}
			if prev == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			d.session.Revoke(cmd.Context(), prev)
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDeps(cmd.Context(), f, false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()
			out := cmd.OutOrStdout()
			if !d.session.IsLoggedIn() {
				fmt.Fprintln(out, "not logged in")
				return nil
			}
			if c, ok := d.session.Claims(); ok && !c.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "token expires: %s\n", c.ExpiresAt.Local().Format(time.DateTime))
			}
			p, err := d.client.Profile(cmd.Context(), d.session.Token())
			if err != nil {
				return fmt.Errorf("fetch profile: %w", err)
			}
			fmt.Fprint(out, formatProfile(p))
			return nil
		},
	}
}

func formatProfile(p api.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name:   %s\n", p.Name)
	fmt.Fprintf(&b, "email:  %s\n", p.Email)
	fmt.Fprintf(&b, "role:   %s\n", p.Role)
	if p.SchoolID != nil {
		fmt.Fprintf(&b, "school: %d\n", *p.SchoolID)
	}
	if p.ClubID != nil {
		fmt.Fprintf(&b, "club:   %d\n", *p.ClubID)
	}
	return b.String()
}

func newSchoolsCmd(f *flags) *cobra.Command {
	var keyword string
	cmd := &cobra.Command{
		Use:   "schools",
		Short: "Search registered schools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDeps(cmd.Context(), f, false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()
			schools, err := d.client.Schools(cmd.Context(), api.ListQuery{Keyword: keyword})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range schools {
				fmt.Fprintf(out, "%d\t%s\t%s\n", s.ID, s.Name, s.Region)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keyword, "keyword", "", "Filter by name")
	return cmd
}

func newClubsCmd(f *flags) *cobra.Command {
	var keyword string
	cmd := &cobra.Command{
		Use:   "clubs <school-id>",
		Short: "List the clubs of a school",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schoolID, err := parseSchoolID(args[0])
			if err != nil {
				return err
			}
			d, err := openDeps(cmd.Context(), f, false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()
			clubs, err := d.client.Clubs(cmd.Context(), schoolID, api.ListQuery{Keyword: keyword})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range clubs {
				fmt.Fprintf(out, "%d\t%s\t%s\n", c.ID, c.Name, c.Genre)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keyword, "keyword", "", "Filter by name")
	return cmd
}

func parseSchoolID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid school id %q", s)
	}
	return id, nil
}

func newDoctorCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check config, local storage and API reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDeps(cmd.Context(), f, false, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer d.Close()
			if err := doctor.Check(cmd.Context(), d.cfg, d.db, d.gw); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "doctor: ok")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Value)
		},
	}
}

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Inspect or switch the color theme",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "current",
		Short: "Print the active theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := themeCurrentLabel()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List builtin and local themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return themeList(cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "apply <theme-id>",
		Short: "Make a theme active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := themeApply(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	})
	return cmd
}

func themeCurrentLabel() (string, error) {
	cfg, err := configpkg.Load()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("active theme: %s", cfg.Theme.Active), nil
}

func themeList(out io.Writer) error {
	cfg, err := configpkg.Load()
	if err != nil {
		return err
	}
	ids, err := themepkg.ListThemeIDs()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "themes (active: %s):\n", cfg.Theme.Active)
	for _, id := range ids {
		prefix := "-"
		if id == cfg.Theme.Active {
			prefix = "*"
		}
		fmt.Fprintf(out, "%s %s\n", prefix, id)
	}
	return nil
}

func themeApply(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("theme id is required")
	}
	if err := themepkg.Exists(id); err != nil {
		return "", fmt.Errorf("unknown theme %s: %w", id, err)
	}
	cfg, err := configpkg.Load()
	if err != nil {
		return "", err
	}
	cfg.Theme.Active = id
	if err := configpkg.Save(cfg); err != nil {
		return "", err
	}
	return fmt.Sprintf("applied theme: %s", id), nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
