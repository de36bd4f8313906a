package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Log struct {
	Level string
	JSON  bool

	// File 非空时启用文件写入 + lumberjack 切割
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Storage 两个桶的本地根目录；BaseURL 拼公共对象地址
type Storage struct {
	PublicRoot     string `mapstructure:"public_root"`
	RestrictedRoot string `mapstructure:"restricted_root"`
	BaseURL        string `mapstructure:"base_url"`
}

// UploadLimit 单类文件的约束
type UploadLimit struct {
	MaxBytes int64    `mapstructure:"max_bytes"`
	Mimes    []string `mapstructure:"mimes"`
}

type Uploads struct {
	RegistrationDoc UploadLimit `mapstructure:"registration_doc"`
	Logo            UploadLimit `mapstructure:"logo"`
	Banner          UploadLimit `mapstructure:"banner"`
	BenefitIcon     UploadLimit `mapstructure:"benefit_icon"`
}

// Onboarding 必填字段集做成显式配置，不同部署可调
type Onboarding struct {
	Required []string `mapstructure:"required"`
}

type Config struct {
	App        App
	Log        Log
	JWT        JWT
	DB         DB
	Redis      Redis      `mapstructure:"redis"`
	Storage    Storage    `mapstructure:"storage"`
	Uploads    Uploads    `mapstructure:"uploads"`
	Onboarding Onboarding `mapstructure:"onboarding"`
}

func Load(path string) *Config {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("read config: %v", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		log.Fatalf("unmarshal config: %v", err)
	}
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if len(c.Onboarding.Required) == 0 {
		// 与最初的建表约束一致
		c.Onboarding.Required = []string{"name", "registration_number", "registration_document", "industry"}
	}
	def := func(l *UploadLimit, maxBytes int64, mimes ...string) {
		if l.MaxBytes == 0 {
			l.MaxBytes = maxBytes
		}
		if len(l.Mimes) == 0 {
			l.Mimes = mimes
		}
	}
	def(&c.Uploads.RegistrationDoc, 5<<20, "application/pdf")
	def(&c.Uploads.Logo, 3<<20, "image/png", "image/jpeg", "image/webp")
	def(&c.Uploads.Banner, 5<<20, "image/png", "image/jpeg", "image/webp")
	def(&c.Uploads.BenefitIcon, 1<<20, "image/svg+xml")
}
