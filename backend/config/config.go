package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DB struct {
	Driver string // sqlite or mysql
	Path   string // sqlite file or DSN
	Host   string
	Port   int
	User   string
	Pass   string
	Name   string
}

type Session struct {
	Secret     string
	Issuer     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type Media struct {
	Driver     string // local or cloudinary
	LocalDir   string
	Cloudinary Cloudinary
}

type Templates struct {
	Dir   string
	Watch bool
}

type Log struct {
	Level  string
	Format string
}

type RateLimit struct {
	RPS   float64
	Burst int
}

type Config struct {
	Host           string
	Port           int
	DB             DB
	Session        Session
	Redis          Redis
	Media          Media
	Templates      Templates
	Log            Log
	RateLimit      RateLimit
	MaxUploadBytes int64
}

// Addr is the listen address built from Host and Port.
func (c *Config) Addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

// New returns a viper instance with every default registered and
// APNAGHAR_* environment overrides enabled. Callers may bind flags to it
// before passing it to FromViper.
func New(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("apnaghar")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("backend.host", "127.0.0.1")
	v.SetDefault("backend.port", 5000)
	v.SetDefault("backend.db.driver", "sqlite")
	v.SetDefault("backend.db.path", "apnaghar.db")
	v.SetDefault("backend.db.host", "127.0.0.1")
	v.SetDefault("backend.db.port", 3306)
	v.SetDefault("backend.db.user", "root")
	v.SetDefault("backend.db.pass", "")
	v.SetDefault("backend.db.name", "apnaghar")
	v.SetDefault("backend.session.secret", "")
	v.SetDefault("backend.session.issuer", "")
	v.SetDefault("backend.session.ttl_min", 0)
	v.SetDefault("backend.session.cookie_name", "apnaghar_session")
	v.SetDefault("backend.session.secure", false)
	v.SetDefault("backend.redis.addr", "")
	v.SetDefault("backend.redis.password", "")
	v.SetDefault("backend.redis.db", 0)
	v.SetDefault("backend.media.driver", "local")
	v.SetDefault("backend.media.local.dir", "uploads")
	v.SetDefault("backend.media.cloudinary.cloud_name", "")
	v.SetDefault("backend.media.cloudinary.api_key", "")
	v.SetDefault("backend.media.cloudinary.api_secret", "")
	v.SetDefault("backend.media.cloudinary.folder", "apnaghar")
	v.SetDefault("backend.templates.dir", "")
	v.SetDefault("backend.templates.watch", false)
	v.SetDefault("backend.log.level", "info")
	v.SetDefault("backend.log.format", "console")
	v.SetDefault("backend.ratelimit.rps", 2)
	v.SetDefault("backend.ratelimit.burst", 20)
	v.SetDefault("backend.upload.max_bytes", 10<<20)
	return v
}

// Load reads the yaml file at path (a missing file is not an error) and
// applies defaults and environment overrides.
func Load(path string) (*Config, error) {
	return FromViper(New(path))
}

func FromViper(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Host: v.GetString("backend.host"),
		Port: v.GetInt("backend.port"),
		DB: DB{
			Driver: strings.ToLower(v.GetString("backend.db.driver")),
			Path:   v.GetString("backend.db.path"),
			Host:   v.GetString("backend.db.host"),
			Port:   v.GetInt("backend.db.port"),
			User:   v.GetString("backend.db.user"),
			Pass:   v.GetString("backend.db.pass"),
			Name:   v.GetString("backend.db.name"),
		},
		Session: Session{
			Secret:     v.GetString("backend.session.secret"),
			Issuer:     v.GetString("backend.session.issuer"),
			TTL:        time.Duration(v.GetInt("backend.session.ttl_min")) * time.Minute,
			CookieName: v.GetString("backend.session.cookie_name"),
			Secure:     v.GetBool("backend.session.secure"),
		},
		Redis: Redis{
			Addr:     v.GetString("backend.redis.addr"),
			Password: v.GetString("backend.redis.password"),
			DB:       v.GetInt("backend.redis.db"),
		},
		Media: Media{
			Driver:   strings.ToLower(v.GetString("backend.media.driver")),
			LocalDir: v.GetString("backend.media.local.dir"),
			Cloudinary: Cloudinary{
				CloudName: v.GetString("backend.media.cloudinary.cloud_name"),
				APIKey:    v.GetString("backend.media.cloudinary.api_key"),
				APISecret: v.GetString("backend.media.cloudinary.api_secret"),
				Folder:    v.GetString("backend.media.cloudinary.folder"),
			},
		},
		Templates: Templates{
			Dir:   v.GetString("backend.templates.dir"),
			Watch: v.GetBool("backend.templates.watch"),
		},
		Log: Log{
			Level:  v.GetString("backend.log.level"),
			Format: v.GetString("backend.log.format"),
		},
		RateLimit: RateLimit{
			RPS:   v.GetFloat64("backend.ratelimit.rps"),
			Burst: v.GetInt("backend.ratelimit.burst"),
		},
		MaxUploadBytes: v.GetInt64("backend.upload.max_bytes"),
	}

	if cfg.Session.Secret == "" {
		cfg.Session.Secret = "dev-secret"
	}
	if cfg.Session.Issuer == "" {
		cfg.Session.Issuer = "apnaghar"
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}

	switch cfg.DB.Driver {
	case "sqlite", "mysql":
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}
	switch cfg.Media.Driver {
	case "local":
	case "cloudinary":
		c := cfg.Media.Cloudinary
		if c.CloudName == "" || c.APIKey == "" || c.APISecret == "" {
			return nil, errors.New("cloudinary media driver requires cloud_name, api_key and api_secret")
		}
	default:
		return nil, fmt.Errorf("unsupported media driver %q", cfg.Media.Driver)
	}
	return cfg, nil
}
