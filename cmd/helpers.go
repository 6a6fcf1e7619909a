package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simon/jobmux/internal/config"
	"github.com/simon/jobmux/internal/logging"
	"github.com/simon/jobmux/internal/mux"
	jotel "github.com/simon/jobmux/internal/otel"
	"github.com/simon/jobmux/internal/state"
	"github.com/simon/jobmux/internal/tmux"
)

var (
	flagLogLevel string
	flagDebug    bool
	flagQuiet    bool
)

// parseHostName splits "host:name" into (host, name).
// If no colon, returns ("", name).
func parseHostName(s string) (host, name string) {
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return "", s
}

// env is everything a command needs for one invocation.
type env struct {
	cfg   *config.Config
	log   *zap.Logger
	tel   *jotel.Telemetry
	store *state.Store
	out   io.Writer
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if flagDebug {
		level = "debug"
	}
	logger := newLogger(level)

	e := &env{cfg: cfg, log: logger, out: cmd.OutOrStdout()}
	if cfg.ConfigFile != "" {
		logger.Debug("loaded config", zap.String("path", cfg.ConfigFile))
	}

	e.tel, err = jotel.Init(cmd.Context(), jotel.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
	})
	if err != nil {
		// Metrics are optional; the tmux work still goes ahead.
		logger.Warn("telemetry disabled", zap.Error(err))
	}

	if cfg.Journal != config.JournalOff {
		e.store, err = e.openJournal()
		if err != nil {
			logger.Warn("journal disabled", zap.Error(err))
		}
	}
	return e, nil
}

// newLogger builds the stderr logger. An unknown level falls back to the
// default logger with a warning rather than failing the command.
func newLogger(level string) *zap.Logger {
	cfg := logging.DefaultConfig()
	cfg.Level = level
	logger, err := logging.New(cfg)
	if err != nil {
		logger = logging.NewDefault()
		logger.Warn("using default log level", zap.String("level", level), zap.Error(err))
	}
	return logger
}

func (e *env) openJournal() (*state.Store, error) {
	if e.cfg.Journal == "" {
		return state.Open()
	}
	return state.OpenPath(e.cfg.Journal)
}

// Close flushes telemetry and closes the journal. It is safe to call twice;
// commands that hand the terminal to tmux close early.
func (e *env) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.tel.Shutdown(ctx)
	e.tel = nil
	if e.store != nil {
		_ = e.store.Close()
		e.store = nil
	}
	_ = e.log.Sync()
}

// resolveExecutor returns an executor for the given host nickname.
// Empty host returns a LocalExecutor.
func (e *env) resolveExecutor(host string) (tmux.Executor, error) {
	if host == "" {
		return &tmux.LocalExecutor{}, nil
	}
	h, ok := e.cfg.Hosts[host]
	if !ok {
		return nil, fmt.Errorf("unknown host %q (add it under hosts: in %s)", host, configPathHint(e.cfg))
	}
	return &tmux.SSHExecutor{
		Nickname: host,
		Host:     h.Host,
		User:     h.User,
		SSHKey:   h.SSHKey,
	}, nil
}

func configPathHint(cfg *config.Config) string {
	if cfg.ConfigFile != "" {
		return cfg.ConfigFile
	}
	if p, err := config.Path(); err == nil {
		return p
	}
	return "the config file"
}

// reporter fans transitions out to stdout, the log, the journal and metrics.
func (e *env) reporter() mux.Reporter {
	var sinks mux.MultiReporter
	if !flagQuiet {
		out := e.out
		sinks = append(sinks, mux.ReporterFunc(func(t mux.Transition) {
			fmt.Fprintln(out, t.String())
		}))
	}
	sinks = append(sinks, logging.Reporter(e.log))
	if e.store != nil {
		log := e.log
		sinks = append(sinks, e.store.Reporter(func(err error) {
			log.Warn("journal write failed", zap.Error(err))
		}))
	}
	if e.tel != nil {
		sinks = append(sinks, e.tel.Metrics.Reporter())
	}
	return sinks
}

// connector builds a Connector for the host part of a "[host:]name" argument
// and returns the remaining name.
func (e *env) connector(arg string) (*mux.Connector, string, error) {
	host, name := parseHostName(arg)
	exec, err := e.resolveExecutor(host)
	if err != nil {
		return nil, "", err
	}
	conn := mux.NewConnector(exec,
		mux.WithReporter(e.reporter()),
		mux.WithLayout(e.cfg.MuxLayout()),
	)
	return conn, name, nil
}

// existingSession looks a session up without creating it.
func existingSession(conn *mux.Connector, name string) (*mux.Session, error) {
	sess, ok, err := conn.LookupSession(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		host := conn.Executor().HostName()
		if host != "" {
			name = host + ":" + name
		}
		return nil, fmt.Errorf("session %q not found", name)
	}
	return sess, nil
}

// newTable creates a table with consistent styling.
func newTable(w io.Writer, headers ...interface{}) table.Table {
	tbl := table.New(headers...)
	tbl.WithWriter(w)
	tbl.WithHeaderFormatter(func(format string, vals ...interface{}) string {
		return headerStyle.Render(fmt.Sprintf(format, vals...))
	})
	tbl.WithPadding(2)
	tbl.WithWidthFunc(lipgloss.Width)
	return tbl
}

var headerStyle = lipgloss.NewStyle().Bold(true)
