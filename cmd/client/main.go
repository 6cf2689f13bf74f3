package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"chatbuysell/internal/adapter/api"
	"chatbuysell/internal/adapter/tui"
	"chatbuysell/pkg/config"
	"chatbuysell/pkg/logger"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "chatbuysell",
		Usage:   "Post what you want to buy or sell and chat with your matches",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "backend-url",
				Usage:   "Chat backend base `URL`",
				EnvVars: []string{"BACKEND_URL"},
			},
			&cli.StringFlag{
				Name:    "login-url",
				Usage:   "Provider sign-in `URL` (defaults to <backend-url>/auth/facebook)",
				EnvVars: []string{"LOGIN_URL"},
			},
			&cli.StringFlag{
				Name:    "callback-addr",
				Usage:   "Listen `ADDR` of the local sign-in callback receiver",
				EnvVars: []string{"CALLBACK_ADDR"},
			},
			&cli.StringFlag{
				Name:    "session-db",
				Usage:   "Local session database `FILE`",
				EnvVars: []string{"SESSION_DB_PATH"},
			},
			&cli.StringFlag{
				Name:    "send-failure-policy",
				Usage:   "What to do with a message that failed to send: retain or mark-failed",
				EnvVars: []string{"SEND_FAILURE_POLICY"},
			},
			&cli.IntFlag{
				Name:    "page-size",
				Usage:   "Number of matches requested per search",
				EnvVars: []string{"MATCH_PAGE_SIZE"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Write logs to `FILE`",
				EnvVars: []string{"LOG_FILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Action: runClient,
		Commands: []*cli.Command{
			{
				Name:   "whoami",
				Usage:  "Print the signed-in user stored on this machine",
				Action: runWhoAmI,
			},
			{
				Name:   "logout",
				Usage:  "Forget the signed-in user stored on this machine",
				Action: runLogout,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("backend-url") {
		cfg.BackendURL = c.String("backend-url")
		if !c.IsSet("login-url") {
			cfg.LoginURL = cfg.BackendURL + "/auth/facebook"
		}
	}
	if c.IsSet("login-url") {
		cfg.LoginURL = c.String("login-url")
	}
	if c.IsSet("callback-addr") {
		cfg.CallbackAddr = c.String("callback-addr")
	}
	if c.IsSet("session-db") {
		cfg.SessionDBPath = c.String("session-db")
	}
	if c.IsSet("send-failure-policy") {
		cfg.SendFailurePolicy = c.String("send-failure-policy")
	}
	if c.IsSet("page-size") {
		cfg.MatchPageSize = c.Int("page-size")
	}
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, nil
}

func runClient(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logFile, err := logger.OpenFile(cfg.LogFile, cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.close()

	server := api.NewServer(client.session, cfg.LoginURL, client.limiter)
	go func() {
		if err := api.Serve(ctx, server, cfg.CallbackAddr); err != nil {
			logger.Error("Callback receiver stopped: %v", err)
			client.notifier.Error("Sign-in is unavailable: could not listen on " + cfg.CallbackAddr)
		}
	}()

	program := tea.NewProgram(
		tui.NewModel(ctx, client.dependencies()),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	stop := tui.Watch(program, client.view)
	defer stop()

	go func() {
		if err := client.session.Restore(ctx); err != nil {
			logger.Warn("Restore failed, continuing signed out: %v", err)
		}
	}()

	logger.Info("chatbuysell %s started against %s", version, cfg.BackendURL)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runWhoAmI(c *cli.Context) error {
	client, closeAll, err := offlineApp(c)
	if err != nil {
		return err
	}
	defer closeAll()

	if err := client.session.Restore(c.Context); err != nil {
		return err
	}
	identity := client.session.Current()
	if identity == nil {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s (%s)\n", identity.DisplayName(), identity.ID)
	return nil
}

func runLogout(c *cli.Context) error {
	client, closeAll, err := offlineApp(c)
	if err != nil {
		return err
	}
	defer closeAll()

	if err := client.session.Restore(c.Context); err != nil {
		return err
	}
	if err := client.session.Logout(c.Context); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}

// offlineApp wires the client without starting the receiver or the UI.
func offlineApp(c *cli.Context) (*app, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logFile, err := logger.OpenFile(cfg.LogFile, cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	client, err := newApp(c.Context, cfg)
	if err != nil {
		logFile.Close()
		return nil, nil, err
	}
	return client, func() {
		client.close()
		logFile.Close()
	}, nil
}
