package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/atomicstack/tmux-tabdir/internal/app"
	"github.com/atomicstack/tmux-tabdir/internal/plugin"
)

// Config captures runtime configuration for the application.
type Config struct {
	App        app.Config
	Logging    Logging
	ConfigFile string
	Flags      map[string]string
	Args       []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

const (
	envSocketPath     = "TMUX_TABDIR_SOCKET"
	envSession        = "TMUX_TABDIR_SESSION"
	envPipeSocket     = "TMUX_TABDIR_PIPE"
	envConfigFile     = "TMUX_TABDIR_CONFIG"
	envLogFile        = "TMUX_TABDIR_LOG_FILE"
	envTrace          = "TMUX_TABDIR_TRACE"
	envUI             = "TMUX_TABDIR_UI"
	envPollInterval   = "TMUX_TABDIR_POLL_INTERVAL"
	envSeedFromTmux   = "TMUX_TABDIR_SEED_FROM_TMUX"
	envNoGit          = "TMUX_TABDIR_NO_GIT"
	envPrune          = "TMUX_TABDIR_PRUNE"
	envMaxNameWidth   = "TMUX_TABDIR_MAX_NAME_WIDTH"
	envHomeDir        = "TMUX_TABDIR_HOME_DIR"
	envCommandTimeout = "TMUX_TABDIR_COMMAND_TIMEOUT"
)

const (
	defaultPollInterval   = time.Second
	defaultCommandTimeout = 10 * time.Second
)

// Options holds the parsed flag values until Resolve turns them into a
// Config.
type Options struct {
	flags *pflag.FlagSet
	env   map[string]string

	socket         string
	session        string
	pipeSocket     string
	configFile     string
	logFile        string
	trace          bool
	ui             bool
	pollInterval   time.Duration
	seedFromTmux   bool
	noGit          bool
	prune          bool
	maxNameWidth   int
	homeDir        string
	commandTimeout time.Duration
	sets           []string
}

// Register adds the organiser's flags to flags. Defaults come from the
// TMUX_TABDIR_* variables in environ.
func Register(flags *pflag.FlagSet, environ []string) *Options {
	env := parseEnv(environ)
	o := &Options{flags: flags, env: env}

	flags.StringVar(&o.socket, "socket", envOrDefault(env, envSocketPath, ""), "path to the tmux socket (overrides environment detection)")
	flags.StringVar(&o.session, "session", envOrDefault(env, envSession, ""), "tmux session to organise (defaults to the current one)")
	flags.StringVar(&o.pipeSocket, "pipe-socket", envOrDefault(env, envPipeSocket, ""), "path of the unix socket that receives directory reports")
	flags.StringVar(&o.configFile, "config", envOrDefault(env, envConfigFile, ""), "path to the YAML configuration file")
	flags.StringVar(&o.logFile, "log-file", envOrDefault(env, envLogFile, ""), "path to the log file")
	flags.BoolVar(&o.trace, "trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	flags.BoolVar(&o.ui, "ui", envOrBool(env, envUI, false), "show the status view instead of running headless")
	flags.DurationVar(&o.pollInterval, "poll-interval", envOrDuration(env, envPollInterval, defaultPollInterval), "how often to poll tmux for layout changes")
	flags.BoolVar(&o.seedFromTmux, "seed-from-tmux", envOrBool(env, envSeedFromTmux, false), "use tmux's pane_current_path as a directory report")
	flags.BoolVar(&o.noGit, "no-git", envOrBool(env, envNoGit, false), "never run git to find worktree roots")
	flags.BoolVar(&o.prune, "prune", envOrBool(env, envPrune, false), "forget directories of panes that have closed")
	flags.IntVar(&o.maxNameWidth, "max-name-width", envOrInt(env, envMaxNameWidth, 0), "truncate tab names to this many cells (0 disables)")
	flags.StringVar(&o.homeDir, "home-dir", envOrDefault(env, envHomeDir, ""), "directory abbreviated as ~ (defaults to your home directory)")
	flags.DurationVar(&o.commandTimeout, "command-timeout", envOrDuration(env, envCommandTimeout, defaultCommandTimeout), "time limit for each git lookup")
	flags.StringArrayVar(&o.sets, "set", nil, "set a plugin configuration key (key=value, repeatable)")
	return o
}

// LoadArgs parses args against a fresh flag set. Tests use it to supply
// specific args and environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	flags := pflag.NewFlagSet("tmux-tabdir", pflag.ContinueOnError)
	flags.SetOutput(new(strings.Builder))
	opts := Register(flags, environ)
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	return opts.Resolve(flags.Args())
}

// Resolve validates the parsed flags, reads the configuration file and
// builds the plugin configuration map.
func (o *Options) Resolve(args []string) (Config, error) {
	if o.pollInterval <= 0 {
		return Config{}, fmt.Errorf("poll-interval must be > 0 (got %s)", o.pollInterval)
	}
	if o.commandTimeout <= 0 {
		return Config{}, fmt.Errorf("command-timeout must be > 0 (got %s)", o.commandTimeout)
	}
	if o.maxNameWidth < 0 {
		return Config{}, fmt.Errorf("max-name-width must be >= 0 (got %d)", o.maxNameWidth)
	}

	configFile := o.configFile
	explicit := configFile != ""
	if !explicit {
		configFile = DefaultFile(o.env)
	}
	pluginConfig, err := ReadFile(configFile)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
		pluginConfig = map[string]string{}
	}

	if o.given("prune", envPrune) {
		pluginConfig[plugin.KeyPruneClosedPanes] = strconv.FormatBool(o.prune)
	}
	if o.given("max-name-width", envMaxNameWidth) {
		pluginConfig[plugin.KeyMaxNameWidth] = strconv.Itoa(o.maxNameWidth)
	}
	if o.given("home-dir", envHomeDir) {
		pluginConfig[plugin.KeyHomeDir] = o.homeDir
	}
	for _, entry := range o.sets {
		key, value, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return Config{}, fmt.Errorf("--set %q: want key=value", entry)
		}
		pluginConfig[key] = value
	}
	if strings.TrimSpace(pluginConfig[plugin.KeyHomeDir]) == "" {
		if home, err := os.UserHomeDir(); err == nil {
			pluginConfig[plugin.KeyHomeDir] = home
		}
	}

	cfg := Config{
		App: app.Config{
			SocketPath:     o.socket,
			Session:        o.session,
			PipeSocket:     o.pipeSocket,
			PollInterval:   o.pollInterval,
			UI:             o.ui,
			SeedFromTmux:   o.seedFromTmux,
			DisableGit:     o.noGit,
			CommandTimeout: o.commandTimeout,
			Plugin:         pluginConfig,
		},
		Logging: Logging{
			FilePath: o.logFile,
			Trace:    o.trace,
		},
		ConfigFile: configFile,
		Flags: map[string]string{
			"socket":         o.socket,
			"session":        o.session,
			"pipeSocket":     o.pipeSocket,
			"config":         configFile,
			"logFile":        o.logFile,
			"trace":          strconv.FormatBool(o.trace),
			"ui":             strconv.FormatBool(o.ui),
			"pollInterval":   o.pollInterval.String(),
			"seedFromTmux":   strconv.FormatBool(o.seedFromTmux),
			"noGit":          strconv.FormatBool(o.noGit),
			"commandTimeout": o.commandTimeout.String(),
			"set":            strings.Join(o.sets, ","),
		},
		Args: append([]string(nil), args...),
	}
	return cfg, nil
}

func (o *Options) given(flagName, envKey string) bool {
	if o.flags != nil && o.flags.Changed(flagName) {
		return true
	}
	_, ok := o.env[envKey]
	return ok
}

// DefaultFile is $XDG_CONFIG_HOME/tmux-tabdir/config.yaml, falling back to
// ~/.config.
func DefaultFile(env map[string]string) string {
	base := strings.TrimSpace(env["XDG_CONFIG_HOME"])
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "tmux-tabdir", "config.yaml")
}

// ReadFile decodes a flat YAML mapping of scalar values.
func ReadFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, fs.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := raw[k].(type) {
		case nil:
			out[k] = ""
		case map[string]interface{}, []interface{}:
			return nil, fmt.Errorf("parse %s: key %q must be a scalar", path, k)
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
