package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/ibhelper/config"
	"github.com/s0up4200/ibhelper/helper"
	"github.com/s0up4200/ibhelper/inkbunny"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
	client  *inkbunny.Client
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ibhelper",
	Short: "Search and inspect Inkbunny submissions from the command line",
	Long: `ibhelper talks to the Inkbunny API. It logs in with the configured
credentials (or as guest), keeps the session alive across expired sessions
and result sets, and pages through searches.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(ratingCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads .env and the configuration and builds the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging, os.Stderr)

	opts := []inkbunny.Option{
		inkbunny.WithBaseURL(cfg.Inkbunny.URL),
		inkbunny.WithTimeout(cfg.Inkbunny.Timeout),
		inkbunny.WithUserAgent(cfg.Inkbunny.UserAgent),
	}
	if cfg.Inkbunny.Throttle.RPS > 0 {
		opts = append(opts, inkbunny.WithThrottle(cfg.Inkbunny.Throttle.RPS, cfg.Inkbunny.Throttle.Burst))
	}

	client, err = inkbunny.NewClient(logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create Inkbunny client: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger. Colour is used only when
// enabled and out is a terminal.
func setupLogger(cfg config.LoggingConfig, out *os.File) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}

	color := cfg.Color && (isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()))
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    !color,
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// openSession logs in and, for guest sessions, applies the configured
// rating. The returned close func logs out and reports the session's
// request counters at debug level.
func openSession(ctx context.Context, api inkbunny.API) (*helper.Helper, *helper.LoginResult, func(), error) {
	reg := prometheus.NewRegistry()
	h := helper.New(api, logger, helper.WithMetrics(reg))

	login, err := h.Login(ctx, cfg.Inkbunny.Username, cfg.Inkbunny.Password)
	if err != nil {
		return nil, nil, nil, err
	}

	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if _, err := h.Logout(ctx); err != nil {
			logger.Warn().Err(err).Msg("Failed to log out")
		}
		logMetrics(reg)
	}

	if h.Username() == helper.GuestUsername && cfg.Rating.Any() {
		rating := helper.Rating{
			Nudity:         cfg.Rating.Nudity,
			Violence:       cfg.Rating.Violence,
			SexualThemes:   cfg.Rating.SexualThemes,
			StrongViolence: cfg.Rating.StrongViolence,
		}
		if _, err := h.Rating(ctx, rating); err != nil {
			closeFn()
			return nil, nil, nil, err
		}
		login.Rating = rating
		logger.Debug().Str("mask", rating.Mask()).Msg("Applied guest rating")
	}

	return h, login, closeFn, nil
}

func logMetrics(reg prometheus.Gatherer) {
	families, err := reg.Gather()
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to gather metrics")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			ev := logger.Debug().Str("metric", mf.GetName()).Float64("value", m.GetCounter().GetValue())
			for _, lp := range m.GetLabel() {
				ev = ev.Str(lp.GetName(), lp.GetValue())
			}
			ev.Msg("Session metrics")
		}
	}
}
