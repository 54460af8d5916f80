// Command dotto runs Dotto, a two player hot-seat game of dots on a grid.
//
// With no command it opens the main menu. The other commands jump straight
// to one part of the game:
//
//	dotto play [--resume ID] [--preset NAME] [--spectate ADDR [--ngrok]]
//	dotto settings
//	dotto scores
//	dotto validate [FILES...]
//	dotto mcp [--api-url URL]
//
// Settings live in the XDG config directory and scores and unfinished games
// in the XDG data directory, unless flags say otherwise. Logs are discarded
// unless --log-file is given, so they never interleave with the prompts.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/MarshTheBacca/dotto/console"
	"github.com/MarshTheBacca/dotto/game/config"
	"github.com/MarshTheBacca/dotto/game/engine"
	"github.com/MarshTheBacca/dotto/game/scores"
	"github.com/MarshTheBacca/dotto/game/service"
	"github.com/MarshTheBacca/dotto/game/session"
	"github.com/MarshTheBacca/dotto/transport/websocket"
	"github.com/MarshTheBacca/dotto/validate"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Dotto"
)

var (
	errNoGame         = errors.New("no game was started")
	errInvalidPresets = errors.New("some presets have errors")
)

// logFile is the open --log-file, closed when the command finishes
var logFile *os.File

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newCommand builds the command tree
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "dotto",
		Usage:   "a two player game of dots on a grid",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing preset files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Usage:   "directory unfinished games are saved in (default: $XDG_DATA_HOME/dotto/sessions)",
				Sources: cli.EnvVars("DOTTO_SESSIONS_DIR"),
			},
			&cli.StringFlag{
				Name:    "settings-file",
				Usage:   "file the current settings are kept in (default: $XDG_CONFIG_HOME/dotto/settings.json)",
				Sources: cli.EnvVars("DOTTO_SETTINGS_FILE"),
			},
			&cli.StringFlag{
				Name:    "scores-file",
				Usage:   "CSV file scores are saved to (default: $XDG_DATA_HOME/dotto/scores.csv)",
				Sources: cli.EnvVars("DOTTO_SCORES_FILE"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "write logs to this file instead of discarding them",
				Sources: cli.EnvVars("DOTTO_LOG_FILE"),
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "seed board generation and pickups for a repeatable game (0 uses a random seed)",
			},
		},
		Before: setupLogging,
		After:  closeLog,
		Action: runMenu,
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "start a game straight away",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "resume", Usage: "continue the saved game with this ID"},
					&cli.StringFlag{Name: "preset", Usage: "generate the board from this preset instead of the current settings"},
					&cli.StringFlag{Name: "spectate", Usage: "serve the game to spectators on this address, e.g. :8080"},
					&cli.BoolFlag{
						Name:    "ngrok",
						Usage:   "expose the spectator server through an ngrok tunnel",
						Sources: cli.EnvVars("NGROK_ENABLED"),
					},
					&cli.StringFlag{
						Name:    "ngrok-auth",
						Usage:   "ngrok auth token",
						Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
					},
					&cli.StringFlag{
						Name:    "ngrok-domain",
						Usage:   "custom ngrok domain",
						Sources: cli.EnvVars("NGROK_DOMAIN"),
					},
				},
				Action: runPlay,
			},
			{
				Name:   "settings",
				Usage:  "edit the settings new games are generated from",
				Action: runSettings,
			},
			{
				Name:   "scores",
				Usage:  "show the table of finished games",
				Action: runScores,
			},
			{
				Name:      "validate",
				Usage:     "check preset files, or every preset in --config-dir",
				ArgsUsage: "[files...]",
				Action:    runValidate,
			},
			{
				Name:  "mcp",
				Usage: "serve saved games to an MCP client over stdio",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Usage:   "use a running spectator server instead of an internal one",
						Sources: cli.EnvVars("DOTTO_API_URL"),
					},
					&cli.DurationFlag{
						Name:  "sync-interval",
						Value: defaultSyncInterval,
						Usage: "how often saved games are reloaded from disk",
					},
				},
				Action: runMCP,
			},
		},
	}
}

// setupLogging points logrus at --log-file, or discards it
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if cmd.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	path := cmd.String("log-file")
	if path == "" {
		log.SetOutput(io.Discard)
		return ctx, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return ctx, fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	log.SetOutput(f)
	log.WithFields(log.Fields{"app": AppName, "version": Version}).Info("starting")
	return ctx, nil
}

func closeLog(ctx context.Context, cmd *cli.Command) error {
	if logFile == nil {
		return nil
	}
	log.SetOutput(io.Discard)
	err := logFile.Close()
	logFile = nil
	return err
}

// services is everything a command needs to run games
type services struct {
	game     service.GameService
	sessions *session.Manager
	configs  *config.Manager
	ledger   *scores.Ledger
}

// close saves every unfinished game so the last access times survive
func (s *services) close() {
	if err := s.sessions.SaveAllSessions(); err != nil {
		log.WithError(err).Warn("failed to save games on exit")
	}
}

// paths are the files and directories games are kept in
type paths struct {
	configDir    string
	sessionsDir  string
	settingsFile string
	scoresFile   string
}

// pathsFrom reads the path flags, filling the gaps from the XDG directories
func pathsFrom(cmd *cli.Command) (paths, error) {
	p := paths{
		configDir:   cmd.String("config-dir"),
		sessionsDir: cmd.String("sessions-dir"),
	}
	var err error
	if p.settingsFile, err = xdgPath(cmd.String("settings-file"), xdg.ConfigFile, "dotto/settings.json"); err != nil {
		return p, fmt.Errorf("failed to locate settings file: %w", err)
	}
	if p.scoresFile, err = xdgPath(cmd.String("scores-file"), xdg.DataFile, "dotto/scores.csv"); err != nil {
		return p, fmt.Errorf("failed to locate scores file: %w", err)
	}
	if p.sessionsDir == "" {
		p.sessionsDir = filepath.Join(xdg.DataHome, "dotto", "sessions")
	}
	return p, nil
}

// initializeServices wires the session, config and score stores into the
// game service. A non-nil hub is told about every change.
func initializeServices(p paths, hub *websocket.Hub) (*services, error) {
	persistence, err := session.NewFilePersistence(p.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}
	sessions := session.NewManagerWithPersistence(persistence)
	if err := sessions.LoadPersistedSessions(); err != nil {
		log.WithError(err).Warn("failed to load persisted sessions")
	}

	s := &services{
		sessions: sessions,
		configs:  config.NewManager(p.configDir, p.settingsFile),
		ledger:   scores.NewLedger(p.scoresFile),
	}
	var notifier service.Notifier
	if hub != nil {
		notifier = hub
	}
	s.game = service.NewGameService(s.sessions, s.configs, s.ledger, notifier)

	log.WithFields(log.Fields{
		"settings": p.settingsFile,
		"scores":   p.scoresFile,
		"sessions": p.sessionsDir,
		"presets":  p.configDir,
	}).Debug("services initialised")
	return s, nil
}

// servicesFor resolves cmd's paths and initialises the services
func servicesFor(cmd *cli.Command, hub *websocket.Hub) (*services, error) {
	p, err := pathsFrom(cmd)
	if err != nil {
		return nil, err
	}
	return initializeServices(p, hub)
}

// xdgPath returns override when set, otherwise asks xdg for rel
func xdgPath(override string, locate func(string) (string, error), rel string) (string, error) {
	if override != "" {
		return override, nil
	}
	return locate(rel)
}

// rngFromSeed returns nil for seed 0 so each game is seeded afresh
func rngFromSeed(seed int64) engine.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// stdin and stdout are the root command's streams, which tests replace
func stdin(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func newConsole(cmd *cli.Command, s *services) *console.App {
	return console.NewApp(s.game, stdin(cmd), stdout(cmd), rngFromSeed(cmd.Int64("seed")))
}

// quiet treats running out of input as a normal way to leave
func quiet(err error) error {
	if errors.Is(err, console.ErrInputClosed) {
		return nil
	}
	return err
}

func runMenu(ctx context.Context, cmd *cli.Command) error {
	s, err := servicesFor(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()
	return newConsole(cmd, s).Run(ctx)
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	var hub *websocket.Hub
	addr := cmd.String("spectate")
	if addr != "" {
		hub = websocket.NewHub()
	}

	s, err := servicesFor(cmd, hub)
	if err != nil {
		return err
	}
	defer s.close()
	app := newConsole(cmd, s)

	if hub != nil {
		sv, err := startSpectatorServer(ctx, s, hub, addr, tunnelOptions{
			enabled:   cmd.Bool("ngrok"),
			authToken: cmd.String("ngrok-auth"),
			domain:    cmd.String("ngrok-domain"),
		})
		if err != nil {
			return err
		}
		defer sv.stop()
		fmt.Fprintf(stdout(cmd), "Spectators can watch at %s\n", sv.publicURL())
	}

	if id := cmd.String("resume"); id != "" {
		err = app.Resume(ctx, id)
	} else {
		err = app.NewGame(ctx, cmd.String("preset"))
	}
	if errors.Is(err, console.ErrCancelled) {
		return errNoGame
	}
	return quiet(err)
}

func runSettings(ctx context.Context, cmd *cli.Command) error {
	s, err := servicesFor(cmd, nil)
	if err != nil {
		return err
	}
	return quiet(newConsole(cmd, s).EditSettings(ctx))
}

func runScores(ctx context.Context, cmd *cli.Command) error {
	s, err := servicesFor(cmd, nil)
	if err != nil {
		return err
	}
	return newConsole(cmd, s).ShowScores(ctx)
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	var results []validate.Result
	if cmd.Args().Len() == 0 {
		dir := cmd.String("config-dir")
		found, err := validate.Dir(dir)
		if err != nil {
			return fmt.Errorf("failed to read preset directory %s: %w", dir, err)
		}
		results = found
	} else {
		for _, path := range cmd.Args().Slice() {
			results = append(results, validate.File(path))
		}
	}

	if !validate.Report(stdout(cmd), results) {
		return errInvalidPresets
	}
	return nil
}
