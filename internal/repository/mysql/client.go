package mysql

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dart94/utm-whatsapp-tracker/internal/config"
	"github.com/dart94/utm-whatsapp-tracker/internal/domain"
)

// Client wraps the MySQL connection
type Client struct {
	db     *gorm.DB
	config *config.MySQL
	log    *zap.Logger
}

// NewClient creates a new MySQL client with the given configuration
func NewClient(ctx context.Context, cfg *config.MySQL, log *zap.Logger) (*Client, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	log.Info("Connecting to MySQL",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("database", cfg.Database))

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		log.Error("Failed to connect to MySQL", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", zap.Error(err))
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	log.Info("MySQL connection established successfully")

	return &Client{db: db, config: cfg, log: log}, nil
}

// DB returns the underlying gorm handle
func (c *Client) DB() *gorm.DB {
	return c.db
}

// InitSchema creates or migrates the clicks and campaigns tables
func (c *Client) InitSchema(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&domain.Click{}, &domain.Campaign{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	c.log.Info("MySQL schema initialized successfully")
	return nil
}

// Ping checks if the MySQL connection is alive
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the MySQL connection
func (c *Client) Close() error {
	c.log.Info("Closing MySQL connection")
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		c.log.Error("Error closing MySQL connection", zap.Error(err))
		return err
	}
	return nil
}
