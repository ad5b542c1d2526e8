package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/controlroom/internal/assistant"
	"github.com/MarcoPoloResearchLab/controlroom/internal/auth"
	"github.com/MarcoPoloResearchLab/controlroom/internal/command"
	"github.com/MarcoPoloResearchLab/controlroom/internal/config"
	"github.com/MarcoPoloResearchLab/controlroom/internal/database"
	"github.com/MarcoPoloResearchLab/controlroom/internal/gateway"
	"github.com/MarcoPoloResearchLab/controlroom/internal/logging"
	"github.com/MarcoPoloResearchLab/controlroom/internal/planner"
	"github.com/MarcoPoloResearchLab/controlroom/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile      string
	tokenSubject string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "controlroom",
		Short: "Control Room productivity dashboard",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
		SilenceUsage: true,
	}

	setupFlags(rootCmd)

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServer(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate()
			},
		},
		issueTokenCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func issueTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Print an operator session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssueToken(cmd)
		},
	}
	cmd.Flags().StringVar(&tokenSubject, "subject", auth.DefaultOperator, "Token subject")
	return cmd
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-url", defaults.GetString("database.url"), "SQLite path or postgres:// url")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", defaults.GetString("log.format"), "Log format (json, console)")
	cmd.PersistentFlags().String("openai-model", defaults.GetString("openai.model"), "OpenAI chat model for the AI gateway")
	cmd.PersistentFlags().String("timezone", defaults.GetString("timezone"), "Timezone for dates without an offset")
	cmd.PersistentFlags().String("signing-secret", "", "Operator session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.url", "database-url")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.format", "log-format")
	bindFlag(cmd, "openai.model", "openai-model")
	bindFlag(cmd, "timezone", "timezone")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	// A missing .env file is not an error; real environment variables win.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("controlroom")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func loadRuntime() (config.AppConfig, *zap.Logger, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return config.AppConfig{}, nil, err
	}
	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogFormat)
	if err != nil {
		return config.AppConfig{}, nil, err
	}
	return appConfig, logger, nil
}

func openDatabase(appConfig config.AppConfig, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.Open(appConfig.DatabaseURL, database.Options{
		MaxOpenConns:    appConfig.MaxOpenConns,
		ConnMaxIdleTime: appConfig.ConnMaxIdleTime,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = sqlDB.Close() }, nil
}

func runMigrate() error {
	appConfig, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	_, closeDB, err := openDatabase(appConfig, logger)
	if err != nil {
		return err
	}
	closeDB()
	logger.Info("schema is up to date", zap.String("dialect", database.Dialect(appConfig.DatabaseURL)))
	return nil
}

func runIssueToken(cmd *cobra.Command) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if !appConfig.AuthEnabled() {
		return errors.New("auth.signing_secret is not set; operator sessions are disabled")
	}
	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.AuthSigningSecret),
		Issuer:        auth.DefaultIssuer,
		Audience:      auth.DefaultAudience,
		TokenTTL:      appConfig.AuthTokenTTL,
	})
	if err != nil {
		return err
	}
	token, expiresIn, err := issuer.IssueOperatorToken(cmd.Context(), tokenSubject)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires in %s; open /session?token=<token> to start a browser session\n", time.Duration(expiresIn)*time.Second)
	return nil
}

func runServer(ctx context.Context) error {
	appConfig, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, closeDB, err := openDatabase(appConfig, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	plannerService, err := planner.NewService(planner.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: planner.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	aiGateway := gateway.New(gateway.Config{
		Completer: gateway.NewOpenAICompleter(gateway.OpenAIConfig{
			APIKey:  appConfig.OpenAIAPIKey,
			BaseURL: appConfig.OpenAIBaseURL,
			Model:   appConfig.OpenAIModel,
		}),
		Planner:  plannerService,
		Location: appConfig.Location,
		Logger:   logger,
	})

	chat := assistant.New(assistant.Config{
		Provider:       assistant.NewGeminiClient(appConfig.GeminiBaseURL, nil),
		DemoProbeDelay: appConfig.AssistantDemoDelay,
		Logger:         logger,
	})

	realtime := server.NewRealtimeDispatcher()
	terminal := command.NewRouter(command.RouterConfig{
		Mutator:  plannerService,
		Chatter:  chat,
		Executor: aiGateway,
		Notifier: realtime,
		Clock:    time.Now,
		Location: appConfig.Location,
		Logger:   logger,
	})

	var sessions server.SessionValidator
	if appConfig.AuthEnabled() {
		validator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
			SigningSecret: []byte(appConfig.AuthSigningSecret),
			Issuer:        auth.DefaultIssuer,
			Audience:      auth.DefaultAudience,
			CookieName:    appConfig.SessionCookieName,
		})
		if err != nil {
			return err
		}
		sessions = validator
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Planner:            plannerService,
		Terminal:           terminal,
		Gateway:            aiGateway,
		Assistant:          chat,
		Sessions:           sessions,
		Realtime:           realtime,
		Logger:             logger,
		AllowedOrigins:     appConfig.AllowedOrigins,
		SettingsCookieName: appConfig.SettingsCookieName,
		OpenAIConfigured:   appConfig.OpenAIAPIKey != "",
		Location:           appConfig.Location,
	})
	if err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open event streams end when shutdown begins.
	httpServer.RegisterOnShutdown(realtime.Close)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.Bool("auth_enabled", appConfig.AuthEnabled()),
			zap.Bool("openai_configured", appConfig.OpenAIAPIKey != ""),
		)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
