package main

import (
	"Relay/ai"
	"Relay/bot"
	"Relay/core"
	"Relay/holder"
	"Relay/lib/sl"
	"Relay/relay"
	"Relay/storage"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "relay",
	Short:         "Telegram assistant with daily request quotas",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot until SIGINT or SIGTERM",
	RunE:  runServe,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Zero every daily counter once and exit",
	RunE:  runReset,
}

var userCmd = &cobra.Command{
	Use:   "user <id>",
	Short: "Print the stored record of one user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUser,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "config.yml", "path to config file")
	rootCmd.AddCommand(serveCmd, resetCmd, userCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "loading .env:", err)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	conf, log, err := setup()
	if err != nil {
		return err
	}
	log.With(
		slog.String("config", configPath),
		slog.String("env", conf.Env),
		slog.String("model", conf.Chat.Model),
		slog.String("storage", conf.Storage.Driver),
	).Info("starting relay bot")

	keeper := holder.NewQuotaKeeper(openStorage(conf, log), log)
	pipeline := relay.NewPipeline(keeper, relay.Adapters{
		Chat:   ai.NewChat(conf.Chat, log),
		Search: ai.NewSearch(conf.Search, log),
		Image:  ai.NewImage(conf.Image.BaseURL),
	}, conf.Limits, log)

	tgBot, err := bot.NewTgBot(conf, pipeline, log)
	if err != nil {
		_ = keeper.Close()
		return fmt.Errorf("creating telegram: %w", err)
	}

	reset := holder.NewDailyReset(keeper, conf.ResetInterval, log)
	reset.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := tgBot.Start(); err != nil {
			log.Error("bot stopped with error", sl.Err(err))
		}
	}()

	log.Info("bot started")

	sig := <-sigChan
	log.Info("received signal, shutting down", slog.String("signal", sig.String()))

	tgBot.Stop()
	reset.Stop()
	if err := keeper.Close(); err != nil {
		log.Error("closing storage", sl.Err(err))
	}

	log.Info("shutdown complete")
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	conf, log, err := setup()
	if err != nil {
		return err
	}
	keeper := holder.NewQuotaKeeper(openStorage(conf, log), log)
	defer keeper.Close()

	outcome := holder.NewDailyReset(keeper, conf.ResetInterval, log).RunOnce(cmd.Context())
	if outcome != core.OutcomeOK {
		return fmt.Errorf("daily reset: %s", outcome)
	}
	return nil
}

func runUser(cmd *cobra.Command, args []string) error {
	userId, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}
	conf, log, err := setup()
	if err != nil {
		return err
	}
	keeper := holder.NewQuotaKeeper(openStorage(conf, log), log)
	defer keeper.Close()

	user, outcome := keeper.Lookup(cmd.Context(), userId)
	if outcome != core.OutcomeOK {
		return fmt.Errorf("lookup user %d: %s", userId, outcome)
	}
	if user == nil {
		return fmt.Errorf("user %d not found", userId)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:       %d\n", user.UserId)
	fmt.Fprintf(out, "username: %s\n", user.Username)
	fmt.Fprintf(out, "name:     %s %s\n", user.FirstName, user.LastName)
	fmt.Fprintf(out, "today:    %d of %d\n", user.DailyRequests, conf.Limits.DailyRequests)
	fmt.Fprintf(out, "total:    %d\n", user.TotalRequests)
	fmt.Fprintf(out, "created:  %s\n", user.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "active:   %s\n", user.LastActiveAt.Format(time.RFC3339))
	return nil
}

func setup() (*core.Config, *slog.Logger, error) {
	conf, err := core.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return conf, setupLogger(conf.Env), nil
}

// openStorage falls back to memory when the configured backend cannot be reached
func openStorage(conf *core.Config, log *slog.Logger) storage.QuotaStorage {
	var (
		store storage.QuotaStorage
		err   error
	)
	switch conf.Storage.Driver {
	case core.DriverSqlite:
		store, err = storage.NewSqliteStorage(conf.Sqlite.Path, log)
	case core.DriverMongo:
		store, err = storage.NewMongoStorage(conf.Mongo.URI(), conf.Mongo.Database, log)
	case core.DriverRedis:
		store, err = storage.NewRedisStorage(conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB, log)
	default:
		log.Info("using in-memory storage")
		return storage.NewMemoryStorage()
	}
	if err != nil {
		log.With(
			slog.String("driver", conf.Storage.Driver),
		).Error("falling back to memory", sl.Err(err))
		return storage.NewMemoryStorage()
	}
	log.Info("storage ready", slog.String("driver", conf.Storage.Driver))
	return store
}

func setupLogger(env string) *slog.Logger {
	// prod and anything unknown log at info
	level := slog.LevelInfo
	if env == envLocal || env == envDev {
		level = slog.LevelDebug
	}

	return slog.New(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}),
	)
}
