package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig            `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig          `mapstructure:"database"` // 数据库配置
	Sync     SyncConfig              `mapstructure:"sync"`     // 摄取调度配置
	Sources  map[string]SourceConfig `mapstructure:"sources"`  // 各来源清单独立配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig 数据库配置（postgres 为主，sqlite 供本地文件库模式）
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`            // postgres/sqlite
	DSN             string        `mapstructure:"dsn"`               // 连接DSN或sqlite文件路径
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// SyncConfig 摄取调度配置
type SyncConfig struct {
	SourceOrder []string `mapstructure:"source_order"` // 固定摄取顺序
	BatchSize   int      `mapstructure:"batch_size"`   // 每事务实体条数
	CacheDir    string   `mapstructure:"cache_dir"`    // 已下载清单缓存目录
}

// SourceConfig 单个来源清单的独立配置
type SourceConfig struct {
	URL           string `mapstructure:"url"`            // 清单发布地址
	LocalFilename string `mapstructure:"local_filename"` // 缓存文件名
	Timeout       int    `mapstructure:"timeout"`        // 下载超时（秒）
	RetryCount    int    `mapstructure:"retry_count"`    // 重试次数
	Proxy         string `mapstructure:"proxy"`          // 代理地址
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SANCTIONS_PROXY"); v != "" {
		for name, sc := range cfg.Sources {
			sc.Proxy = v
			cfg.Sources[name] = sc
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Sync.BatchSize <= 0 {
		cfg.Sync.BatchSize = 200
	}
	if cfg.Sync.CacheDir == "" {
		cfg.Sync.CacheDir = "downloaded_lists"
	}
	if len(cfg.Sync.SourceOrder) == 0 {
		cfg.Sync.SourceOrder = []string{"ofac", "un", "eu", "uk"}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
}
