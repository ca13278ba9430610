package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/serviya/serviya-go/internal/client/api"
	"github.com/serviya/serviya-go/internal/client/config"
	"github.com/serviya/serviya-go/internal/client/credentials"
	"github.com/serviya/serviya-go/internal/client/services"
	"github.com/serviya/serviya-go/internal/cryptox"
	"github.com/serviya/serviya-go/internal/logging"

	_ "modernc.org/sqlite"
)

// App holds the wired client: configuration, credential store, API client,
// and the auth service. One App instance serves one command invocation.
type App struct {
	config      *config.Config
	store       *credentials.Store
	api         *api.Client
	authService services.AuthService
	log         logging.Logger
	reader      *bufio.Reader
	out         io.Writer
}

// NewApp opens the local credential database, derives the store key from
// the keyfile, and wires the API client and services on top.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	db, err := credentials.OpenDatabase(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	secret, salt, err := cryptox.LoadOrCreateKeyfile(cfg.KeyfilePath)
	if err != nil {
		return nil, fmt.Errorf("error loading keyfile: %w", err)
	}
	key := cryptox.DeriveStoreKey(secret, salt)

	repo := credentials.NewSQLiteRepository(db, key)
	store := credentials.NewStore(repo, log)
	apiClient := api.New(cfg, store, log)
	as := services.NewAuthService(apiClient, store, cfg.TokenLifetime, log)

	return &App{
		config:      cfg,
		store:       store,
		api:         apiClient,
		authService: as,
		log:         log,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

// Run dispatches a single command. args is the raw command line after the
// program name; configuration flags are skipped when locating the command.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := splitCommand(args)

	switch cmd {
	case "login":
		return a.Login(ctx)
	case "register":
		return a.Register(ctx)
	case "status":
		return a.Status(ctx)
	case "upload":
		return a.Upload(ctx, rest)
	case "logout":
		return a.Logout(ctx)
	case "", "help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Usage: serviya [flags] <command>")
	fmt.Fprintln(a.out, "Commands: login, register, status, upload <path>..., logout")
}

// valueFlags are configuration flags that consume the following argument.
var valueFlags = map[string]struct{}{
	"-a": {}, "-k": {}, "-t": {}, "-r": {}, "-d": {}, "-c": {}, "-config": {},
}

// splitCommand returns the first non-flag argument as the command and every
// later non-flag argument as its positional arguments.
func splitCommand(args []string) (string, []string) {
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if _, ok := valueFlags[arg]; ok {
				i++
			}
			continue
		}
		positional = append(positional, arg)
	}
	if len(positional) == 0 {
		return "", nil
	}
	return positional[0], positional[1:]
}
