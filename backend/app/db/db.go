package db

import (
	"fmt"
	"strings"
	"time"

	"apnaghar/backend/app/models"
	"apnaghar/backend/global"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// Dialector picks the gorm driver for cfg.Driver. SQLite connections always
// enable foreign keys so rooms cannot outlive their owner.
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "apnaghar.db"
		}
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return sqlite.Open(path + sep + "_foreign_keys=on&_busy_timeout=5000"), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func Connect(cfg Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(gormWriter{}, logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
}

// Migrate creates or updates the users and rooms tables.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&models.User{}, &models.Room{}); err != nil {
		return err
	}
	return backfillSearchKeys(gdb)
}

// backfillSearchKeys fills the search keys of rooms stored before the keys
// existed.
func backfillSearchKeys(gdb *gorm.DB) error {
	var stale []models.Room
	return gdb.Where("city_key IS NULL OR city_key = '' OR area_key IS NULL OR area_key = ''").
		FindInBatches(&stale, 200, func(*gorm.DB, int) error {
			for i := range stale {
				stale[i].SetSearchKeys()
				if err := gdb.Model(&stale[i]).UpdateColumns(map[string]any{
					"city_key": stale[i].CityKey,
					"area_key": stale[i].AreaKey,
				}).Error; err != nil {
					return err
				}
			}
			return nil
		}).Error
}

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	global.Logger.Warn().Str("component", "gorm").Msgf(format, args...)
}
