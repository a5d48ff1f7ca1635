// Command modbot runs the SHOP - REPLACE community bot and its REST API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"

	"github.com/shop-replace/modbot/internal/api"
	"github.com/shop-replace/modbot/internal/bot"
	"github.com/shop-replace/modbot/internal/cache"
	"github.com/shop-replace/modbot/internal/config"
	"github.com/shop-replace/modbot/internal/database"
	"github.com/shop-replace/modbot/internal/discord"
	"github.com/shop-replace/modbot/internal/influx"
	"github.com/shop-replace/modbot/internal/logging"
	"github.com/shop-replace/modbot/internal/mods"
	"github.com/shop-replace/modbot/internal/otel"
	"github.com/shop-replace/modbot/internal/registry"
	"github.com/shop-replace/modbot/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "modbot:", err)
		os.Exit(1)
	}
}

func run() error {
	sessionStart := time.Now()

	configDir := os.Getenv("MODBOT_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	if err := config.Load(configDir); err != nil {
		return err
	}

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs directory: %w", err)
	}
	logFile, err := os.OpenFile(logging.LogFilePath(logsDir, sessionStart), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	otelCfg := otel.Config{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  "modbot",
		BatchTimeout: 5 * time.Second,
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
	if otelCfg.Enabled {
		otelFile, err := os.OpenFile(filepath.Join(logsDir, "modbot.otel.json"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("opening otel log file: %w", err)
		}
		defer otelFile.Close()
		otelCfg.LogWriter = otelFile
		otelCfg.MetricWriter = otelFile
		otelCfg.MetricInterval = time.Minute
	}
	otelProvider, err := otel.New(otelCfg)
	if err != nil {
		return fmt.Errorf("initializing otel: %w", err)
	}

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logFile, viper.GetString("logLevel"), otelProvider.LoggerProvider())
	logger := slogManager.Logger()

	zlog := zerolog.New(logFile).With().Timestamp().Logger()

	dbManager := database.NewManager(zlog)
	if err := dbManager.Connect(); err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer dbManager.Close()
	if err := dbManager.Setup(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	st := store.New(dbManager.DB)

	reg, err := registry.New(config.RegistryChannels())
	if err != nil {
		return fmt.Errorf("building channel registry: %w", err)
	}

	guildID := viper.GetString("discord.guildId")
	session, err := discord.New(viper.GetString("discord.token"))
	if err != nil {
		return err
	}

	publisher := mods.NewPublisher(session, logger)
	scanner := mods.NewScanner(session, reg, guildID, logger)

	members := cache.NewMemberCache(viper.GetDuration("membership.cacheTTL"))
	bump := bot.NewBumpManager(session, viper.GetDuration("bump.interval"), logger)
	tickets := bot.NewTicketService(session, st, guildID, viper.GetString("tickets.categoryId"), logger)
	rules := bot.NewRulesService(session, st, members, guildID, viper.GetString("rules.roleId"), logger)

	b := bot.New(session, guildID, bump, tickets, rules, logger)
	if err := b.Start(); err != nil {
		return err
	}
	defer func() {
		if err := b.Stop(); err != nil {
			logger.Warn("Error closing discord session", "error", err)
		}
	}()

	if viper.GetBool("rules.postPrompt") {
		if err := rules.PostPrompt(viper.GetString("rules.channelId")); err != nil {
			logger.Warn("Failed to post rules prompt", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if viper.GetBool("influx.enabled") {
		influxManager := influx.NewManager(zlog, filepath.Join(logsDir, "influx_backup.gz"))
		if err := influxManager.Connect(); err != nil {
			logger.Warn("InfluxDB unavailable", "error", err)
		} else {
			defer influxManager.Close()
			reporter := influx.NewReporter(influxManager, st, guildID)
			go reporter.Run(ctx, viper.GetDuration("influx.interval"))
		}
	}

	if err := registerGauges(otelProvider, st); err != nil {
		logger.Warn("Failed to register metrics", "error", err)
	}

	server := api.New(publisher, scanner, st, logger, b.Ready)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe(viper.GetString("http.port"))
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := otelProvider.Shutdown(flushCtx); err != nil {
		logger.Warn("Error shutting down otel", "error", err)
	}
	if err := slogManager.Flush(flushCtx); err != nil {
		logger.Warn("Error flushing logs", "error", err)
	}

	return nil
}

// registerGauges exposes the bot's activity counters as observable gauges.
func registerGauges(provider *otel.Provider, st *store.Store) error {
	meter := provider.Meter("modbot")

	_, err := meter.Int64ObservableGauge("tickets.open",
		metric.WithDescription("Number of open support tickets"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			n, err := st.CountOpenTickets()
			if err != nil {
				return err
			}
			o.Observe(n)
			return nil
		}))
	if err != nil {
		return err
	}

	_, err = meter.Int64ObservableGauge("downloads.total",
		metric.WithDescription("Number of download links served"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			n, err := st.CountDownloads()
			if err != nil {
				return err
			}
			o.Observe(n)
			return nil
		}))
	return err
}
