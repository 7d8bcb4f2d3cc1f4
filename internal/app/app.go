package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	_ "time/tzdata" // scheduler timezones in minimal containers

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"oleotrax/certificate-portal/internal/certificates"
	"oleotrax/certificate-portal/internal/config"
	"oleotrax/certificate-portal/pkg/awsclient"
	"oleotrax/certificate-portal/pkg/notify"
	"oleotrax/certificate-portal/pkg/security"
	"oleotrax/certificate-portal/pkg/storage"
)

// App holds the wired collaborators shared by the API and the worker
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Service   *certificates.Service
	Authority *security.TokenAuthority

	closers []func() error
}

// New wires the certificate service from configuration. Each optional
// collaborator is enabled only when its settings are present.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	layout, err := cfg.Certificate.Layout()
	if err != nil {
		return nil, fmt.Errorf("invalid certificate layout: %w", err)
	}

	repo, err := a.openRepository()
	if err != nil {
		a.Close()
		return nil, err
	}

	var awsCfg *aws.Config
	if cfg.Storage.Bucket != "" || cfg.Email.FromAddress != "" || cfg.Events.TopicARN != "" {
		loaded, err := awsclient.LoadConfig(ctx, awsclient.Options{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.Endpoint,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		awsCfg = &loaded
	}

	opts := certificates.ServiceOptions{
		Bucket:  cfg.Storage.Bucket,
		LinkTTL: cfg.Storage.LinkTTL,
	}
	switch {
	case cfg.Storage.Bucket != "":
		opts.Store = storage.NewS3Client(*awsCfg)
		logger.Info("Archiving certificates to S3", zap.String("bucket", cfg.Storage.Bucket))
	case cfg.Storage.LocalDir != "":
		store, err := storage.NewLocalStore(cfg.Storage.LocalDir)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts.Store = store
		opts.Bucket = "certificates"
		logger.Info("Archiving certificates to disk", zap.String("dir", cfg.Storage.LocalDir))
	default:
		logger.Info("Certificate archive disabled")
	}

	if cfg.Email.FromAddress != "" {
		opts.Mailer = notify.NewSESMailer(*awsCfg, cfg.Email.FromAddress, cfg.Email.FromName, logger)
	}
	if cfg.Events.TopicARN != "" {
		opts.Events = notify.NewSNSPublisher(*awsCfg, cfg.Events.TopicARN, logger)
	}

	if cfg.Security.JWTSecret != "" {
		authority, err := security.NewTokenAuthority(cfg.Security.JWTSecret, cfg.Security.JWTIssuer)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Authority = authority
	} else {
		logger.Warn("JWT_SECRET not set, register endpoints are unauthenticated")
	}

	composer := certificates.NewComposer(layout, logger)
	a.Service = certificates.NewService(composer, repo, opts, logger)
	return a, nil
}

func (a *App) openRepository() (certificates.Repository, error) {
	dbCfg := a.Config.Database
	if dbCfg.Host == "" {
		a.Logger.Warn("DATABASE_HOST not set, keeping the register in memory")
		return certificates.NewMemoryRepository(), nil
	}

	a.Logger.Info("Connecting to database",
		zap.String("host", dbCfg.Host),
		zap.String("db_name", dbCfg.DBName))

	db, err := gorm.Open(postgres.Open(dbCfg.GetDatabaseURL()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(dbCfg.MaxConnections)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.MaxLifetime)
	a.closers = append(a.closers, sqlDB.Close)

	return certificates.NewGormRepository(db)
}

// Router builds the gin engine with every route
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(a.Logger))

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, Accept, Origin, X-Request-Id")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Issuance-ID, X-Content-SHA256, X-Delivery-Status")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	var auth gin.HandlerFunc
	if a.Authority != nil {
		auth = a.Authority.BearerRequired()
	}
	handler := certificates.NewHandler(a.Service, auth, a.Logger)
	handler.RegisterFormRoutes(router)
	handler.RegisterRoutes(router.Group("/api/v1"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})
	return router
}

// Scheduler builds the monthly register job
func (a *App) Scheduler() (*certificates.RegisterScheduler, error) {
	return certificates.NewRegisterScheduler(a.Service, certificates.SchedulerConfig{
		Schedule:   a.Config.Scheduler.Schedule,
		Timezone:   a.Config.Scheduler.Timezone,
		Recipients: a.Config.Scheduler.Recipients,
	}, a.Logger)
}

// Close releases the database pool
func (a *App) Close() error {
	var errs []error
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
