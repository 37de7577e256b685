package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Offline   OfflineConfig   `mapstructure:"offline"`
	Game      GameConfig      `mapstructure:"game"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// WebSocketConfig WebSocket配置
type WebSocketConfig struct {
	Path            string        `mapstructure:"path"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	MaxMessageSize  int64         `mapstructure:"max_message_size"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	PongTimeout     time.Duration `mapstructure:"pong_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// StorageConfig 离线状态持久化配置
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // memory, file, database
	Path   string `mapstructure:"path"`   // file 驱动的目录
	Cache  bool   `mapstructure:"cache"`  // 是否在存储前加一层内存缓存
}

// OfflineConfig 离线模式配置
type OfflineConfig struct {
	Enabled       bool   `mapstructure:"enabled"` // 默认是否启用离线模式
	Forced        bool   `mapstructure:"forced"`  // 强制离线，不允许切换
	StateKey      string `mapstructure:"state_key"`
	ModeKey       string `mapstructure:"mode_key"`
	SchemaVersion int    `mapstructure:"schema_version"`
}

// GameConfig 游戏配置
type GameConfig struct {
	StartingMoonrocks int    `mapstructure:"starting_moonrocks"`
	MaxGamesPerPack   int    `mapstructure:"max_games_per_pack"`
	RNG               string `mapstructure:"rng"`  // secure, deterministic
	Seed              uint64 `mapstructure:"seed"` // 仅 deterministic 使用
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Addr 返回HTTP监听地址
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化全局配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = newViper(configPath)

		if err = readConfig(v); err != nil {
			return
		}

		c := &Config{}
		if err = v.Unmarshal(c); err != nil {
			return
		}
		if err = c.Validate(); err != nil {
			return
		}
		cfg = c
	})

	return err
}

// Load 读取一份独立的配置（不影响全局实例）
func Load(configPath string) (*Config, error) {
	vp := newViper(configPath)
	if err := readConfig(vp); err != nil {
		return nil, err
	}

	c := &Config{}
	if err := vp.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// newViper 创建带默认值与环境变量绑定的viper实例
func newViper(configPath string) *viper.Viper {
	vp := viper.New()

	if configPath != "" {
		vp.SetConfigFile(configPath)
	} else {
		vp.SetConfigName("config")
		vp.SetConfigType("yaml")
		vp.AddConfigPath("./config")
		vp.AddConfigPath(".")
	}

	// 环境变量前缀：MOONBAG_GAME_STARTING_MOONROCKS
	vp.SetEnvPrefix("MOONBAG")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	setDefaults(vp)
	return vp
}

// readConfig 读取配置文件，文件不存在时使用默认配置
func readConfig(vp *viper.Viper) error {
	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
	}
	return nil
}

// setDefaults 设置默认配置值
func setDefaults(vp *viper.Viper) {
	vp.SetDefault("server.host", "0.0.0.0")
	vp.SetDefault("server.port", 8080)
	vp.SetDefault("server.mode", "development")
	vp.SetDefault("server.read_timeout", "30s")
	vp.SetDefault("server.write_timeout", "30s")
	vp.SetDefault("server.shutdown_timeout", "10s")

	vp.SetDefault("database.driver", "sqlite")
	vp.SetDefault("database.dsn", "./data/moonbag.db")
	vp.SetDefault("database.max_idle_conns", 10)
	vp.SetDefault("database.max_open_conns", 100)
	vp.SetDefault("database.conn_max_lifetime", "1h")
	vp.SetDefault("database.log_level", "warn")
	vp.SetDefault("database.auto_migrate", true)

	vp.SetDefault("websocket.path", "/ws")
	vp.SetDefault("websocket.read_buffer_size", 1024)
	vp.SetDefault("websocket.write_buffer_size", 1024)
	vp.SetDefault("websocket.max_message_size", 8192)
	vp.SetDefault("websocket.ping_interval", "30s")
	vp.SetDefault("websocket.pong_timeout", "60s")
	vp.SetDefault("websocket.write_timeout", "10s")

	vp.SetDefault("storage.driver", "database")
	vp.SetDefault("storage.path", "./data/offline")
	vp.SetDefault("storage.cache", true)

	vp.SetDefault("offline.enabled", true)
	vp.SetDefault("offline.forced", false)
	vp.SetDefault("offline.state_key", "moonbag-offline-state")
	vp.SetDefault("offline.mode_key", "moonbag-offline-mode")
	vp.SetDefault("offline.schema_version", 1)

	vp.SetDefault("game.starting_moonrocks", 100)
	vp.SetDefault("game.max_games_per_pack", 10)
	vp.SetDefault("game.rng", "secure")
	vp.SetDefault("game.seed", 0)

	vp.SetDefault("metrics.enabled", true)
	vp.SetDefault("metrics.path", "/metrics")
	vp.SetDefault("metrics.namespace", "moonbag")

	vp.SetDefault("log.level", "info")
	vp.SetDefault("log.format", "json")
	vp.SetDefault("log.output", "stdout")
	vp.SetDefault("log.file.path", "./logs")
	vp.SetDefault("log.file.filename", "moonbag.log")
	vp.SetDefault("log.file.max_size", 100)
	vp.SetDefault("log.file.max_age", 30)
	vp.SetDefault("log.file.max_backups", 7)
	vp.SetDefault("log.file.compress", true)
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "file", "database":
	default:
		return fmt.Errorf("不支持的存储驱动: %s", c.Storage.Driver)
	}

	switch c.Game.RNG {
	case "secure", "deterministic":
	default:
		return fmt.Errorf("不支持的随机数来源: %s", c.Game.RNG)
	}

	if c.Game.StartingMoonrocks < 0 {
		return fmt.Errorf("初始月岩不能为负数: %d", c.Game.StartingMoonrocks)
	}
	if c.Game.MaxGamesPerPack <= 0 {
		return fmt.Errorf("每个卡包的游戏数必须大于0: %d", c.Game.MaxGamesPerPack)
	}
	if c.Offline.StateKey == "" || c.Offline.ModeKey == "" {
		return fmt.Errorf("离线存储键不能为空")
	}
	return nil
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	if v == nil {
		return
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}
		if err := newCfg.Validate(); err != nil {
			fmt.Printf("配置重载校验失败: %v\n", err)
			return
		}

		mu.Lock()
		cfg = newCfg
		mu.Unlock()

		if callback != nil {
			callback(newCfg)
		}

		fmt.Printf("配置已重新加载: %s\n", e.Name)
	})
}
