// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"bazaar/internal/pkg/logger"
)

// Config 是整个服务的运行时配置。
// 来源优先级：CONFIG_PATH 指向的 yaml 文件 > 环境变量 > 内置默认值。
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`

		Cart struct {
			// 单行购物车条目的数量上限
			MaxQuantityPerLine int `yaml:"maxQuantityPerLine"`
			// 游客购物车过期时间
			GuestCartTTL time.Duration `yaml:"guestCartTTL"`
		} `yaml:"cart"`

		Idempotency struct {
			LockTTL time.Duration `yaml:"lockTTL"`
		} `yaml:"idempotency"`

		Cache struct {
			L1TTL time.Duration `yaml:"l1TTL"`
			L2TTL time.Duration `yaml:"l2TTL"`
		} `yaml:"cache"`
	} `yaml:"app"`

	Infra struct {
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers           []string `yaml:"brokers"`
			InvalidationTopic string   `yaml:"invalidationTopic"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Upload struct {
			BaseURL string `yaml:"baseURL"`
		} `yaml:"upload"`
		Nacos struct {
			Enabled   bool   `yaml:"enabled"`
			Addrs     string `yaml:"addrs"`
			Namespace string `yaml:"namespace"`
			Group     string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`
}

var currentConfig atomic.Pointer[Config]

// Init 加载配置。必须在 StartService 之前调用一次。
func Init() {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Logger().Fatal().Err(err).Str("path", path).Msg("failed to read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			logger.Logger().Fatal().Err(err).Str("path", path).Msg("failed to parse config file")
		}
	}

	applyEnvOverrides(cfg)
	currentConfig.Store(cfg)
}

// GetCurrentConfig 返回当前生效的配置。
func GetCurrentConfig() *Config {
	cfg := currentConfig.Load()
	if cfg == nil {
		// Init 未被调用时退回默认值，主要方便测试
		return defaultConfig()
	}
	return cfg
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "marketplace-service"
	cfg.App.Port = 8080
	cfg.App.Cart.MaxQuantityPerLine = 100
	cfg.App.Cart.GuestCartTTL = 14 * 24 * time.Hour
	cfg.App.Idempotency.LockTTL = 5 * time.Second
	cfg.App.Cache.L1TTL = 30 * time.Second
	cfg.App.Cache.L2TTL = 5 * time.Minute
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/bazaar?parseTime=true"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Kafka.InvalidationTopic = "cache-invalidation-topic"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Upload.BaseURL = "http://localhost:8090"
	cfg.Infra.Nacos.Addrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("MYSQL_DSN"); ok {
		cfg.Infra.Mysql.DSN = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		cfg.Infra.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		cfg.Infra.Kafka.Brokers = splitNonEmpty(v)
	}
	if v, ok := os.LookupEnv("JAEGER_ENDPOINT"); ok {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v, ok := os.LookupEnv("UPLOAD_BASE_URL"); ok {
		cfg.Infra.Upload.BaseURL = v
	}
	if v, ok := os.LookupEnv("NACOS_SERVER_ADDRS"); ok {
		cfg.Infra.Nacos.Enabled = true
		cfg.Infra.Nacos.Addrs = v
	}
	if v, ok := os.LookupEnv("NACOS_NAMESPACE"); ok {
		cfg.Infra.Nacos.Namespace = v
	}
	if v, ok := os.LookupEnv("NACOS_GROUP"); ok {
		cfg.Infra.Nacos.Group = v
	}
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
