package main

import (
	"context"
	"database/sql"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/blogboard/internal/common"
	"github.com/sushihentaime/blogboard/internal/mailservice"
	"github.com/sushihentaime/blogboard/internal/postservice"
	"github.com/sushihentaime/blogboard/internal/userservice"
)

type application struct {
	config      *Config
	logger      *slog.Logger
	postService *postservice.PostService
	userService *userservice.UserService
	mailService *mailservice.MailService
	broker      *common.MessageBroker
	templates   map[string]*template.Template
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app, cleanup, err := newApplication(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize the application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	if app.mailService != nil {
		err = app.mailService.NotifyPostCreated()
		if err != nil {
			logger.Error("failed to start post notifications", slog.String("error", err.Error()))
		}
	}

	err = app.serve()
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		cleanup()
		os.Exit(1)
	}
}

// newApplication connects every backend named by cfg. The returned cleanup
// closes them in reverse order and is safe to call more than once.
func newApplication(cfg *Config, logger *slog.Logger) (*application, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		closers = nil
	}

	fail := func(err error) (*application, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	templates, err := newTemplateCache()
	if err != nil {
		return fail(err)
	}

	var (
		store postservice.Store
		db    *sql.DB
	)

	switch cfg.StoreDriver {
	case driverPostgREST:
		store, err = postservice.NewRESTStore(cfg.StoreURL, cfg.StoreKey, 10*time.Second)
		if err != nil {
			return fail(err)
		}

	case driverPostgres, driverPgx:
		dsn, err := common.PostgresDSN(cfg.StoreURL, cfg.StoreKey)
		if err != nil {
			return fail(err)
		}

		if cfg.StoreDriver == driverPgx {
			pool, err := common.NewPool(ctx, dsn, int32(cfg.DBMaxOpenConns), cfg.DBMaxIdleTime)
			if err != nil {
				return fail(fmt.Errorf("failed to connect to the database: %w", err))
			}
			closers = append(closers, pool.Close)
			store = postservice.NewPoolModel(pool)
		}

		if cfg.StoreDriver == driverPostgres || cfg.UserStore == backendPostgres {
			db, err = common.NewDB(dsn, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBMaxIdleTime)
			if err != nil {
				return fail(fmt.Errorf("failed to connect to the database: %w", err))
			}
			closers = append(closers, func() { common.CloseDB(db) })
		}

		if store == nil {
			store = postservice.NewPostModel(db)
		}
	}

	var credentials userservice.CredentialStore = userservice.NewMemoryCredentials()
	if cfg.UserStore == backendPostgres {
		credentials = userservice.NewUserModel(db)
	}

	var sessions userservice.SessionStore
	switch cfg.SessionStore {
	case backendRedis:
		client, err := userservice.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { client.Close() })
		sessions = userservice.NewRedisSessions(client)
	default:
		sessions = userservice.NewCacheSessions(common.NewCache(cfg.SessionTTL, 10*time.Minute))
	}

	app := &application{
		config:      cfg,
		logger:      logger,
		userService: userservice.NewUserService(credentials, sessions, cfg.SessionTTL),
		templates:   templates,
	}

	// events and notifications are optional
	var producer common.MessageProducer
	if cfg.MQHost != "" {
		broker, err := common.NewMessageBroker(common.AMQPURI(cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort))
		if err != nil {
			return fail(fmt.Errorf("failed to connect to the message broker: %w", err))
		}
		closers = append(closers, func() { broker.Close() })

		err = common.SetupPostExchange(broker)
		if err != nil {
			return fail(fmt.Errorf("failed to setup the post exchange: %w", err))
		}

		app.broker = broker
		producer = broker

		if cfg.MailHost != "" && cfg.NotifyEmail != "" {
			mailer := mailservice.NewMailer(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPassword, cfg.MailSender)
			app.mailService = mailservice.NewMailService(broker, mailer, cfg.NotifyEmail, logger)
			closers = append(closers, app.mailService.Close)
		}
	}

	app.postService = postservice.NewPostService(store, producer, logger)

	return app, cleanup, nil
}
