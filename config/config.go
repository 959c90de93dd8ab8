package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"priority-delivery/pkg/geo"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Priority  PriorityConfig  `mapstructure:"priority"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Geo       GeoConfig       `mapstructure:"geo"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
	CORS         CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig 数据库配置
// driver 为 postgres（生产）或 sqlite（本地演示 / 测试）
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 管理员认证配置
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	AdminUsername     string        `mapstructure:"admin_username"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"` // bcrypt
	OTPTTL            time.Duration `mapstructure:"otp_ttl"`
	OTPLength         int           `mapstructure:"otp_length"`
	OTPEcho           bool          `mapstructure:"otp_echo"` // 演示模式：登录响应直接回显验证码
	LoginRateLimit    int           `mapstructure:"login_rate_limit"`
	LoginRateWindow   time.Duration `mapstructure:"login_rate_window"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PriorityConfig 评分参数
type PriorityConfig struct {
	FeedbackMultiplier float64 `mapstructure:"feedback_multiplier"`
}

// LifecycleConfig 配送状态推进配置
type LifecycleConfig struct {
	AdvanceInterval time.Duration `mapstructure:"advance_interval"` // 0 表示不启用定时推进
	AdvanceOnTrack  bool          `mapstructure:"advance_on_track"` // 查询订单列表时顺带推进一步
}

// GeoConfig 地名坐标表
type GeoConfig struct {
	Locations       map[string]geo.Coordinate `mapstructure:"locations"`
	DefaultSender   string                    `mapstructure:"default_sender"`
	DefaultReceiver string                    `mapstructure:"default_receiver"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "priority_delivery")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.sqlite_path", "database.db")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "30m")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.otp_ttl", "5m")
	v.SetDefault("auth.otp_length", 6)
	v.SetDefault("auth.otp_echo", true)
	v.SetDefault("auth.login_rate_limit", 10)
	v.SetDefault("auth.login_rate_window", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("priority.feedback_multiplier", 1.0)

	v.SetDefault("lifecycle.advance_interval", "0s")
	v.SetDefault("lifecycle.advance_on_track", false)

	v.SetDefault("geo.locations", map[string]interface{}{
		"bengaluru": map[string]interface{}{"lat": 12.9716, "lon": 77.5946},
		"chennai":   map[string]interface{}{"lat": 13.0827, "lon": 80.2707},
	})
	v.SetDefault("geo.default_sender", "bengaluru")
	v.SetDefault("geo.default_receiver", "chennai")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("PRIORITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Auth.AdminPasswordHash == "" {
		return fmt.Errorf("配置校验失败: auth.admin_password_hash 不能为空")
	}
	if c.Auth.OTPLength < 4 || c.Auth.OTPLength > 10 {
		return fmt.Errorf("配置校验失败: auth.otp_length 必须在 4-10 之间")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("配置校验失败: db.driver 仅支持 postgres 或 sqlite，当前为 %q", c.Database.Driver)
	}
	if c.Priority.FeedbackMultiplier <= 0 {
		return fmt.Errorf("配置校验失败: priority.feedback_multiplier 必须大于 0")
	}
	if c.Lifecycle.AdvanceInterval < 0 {
		return fmt.Errorf("配置校验失败: lifecycle.advance_interval 不能为负")
	}
	for _, name := range []string{c.Geo.DefaultSender, c.Geo.DefaultReceiver} {
		if _, ok := c.Geo.Locations[strings.ToLower(name)]; !ok {
			return fmt.Errorf("配置校验失败: 默认地点 %q 未在 geo.locations 中登记", name)
		}
	}
	return nil
}
