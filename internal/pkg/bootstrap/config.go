// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是订单服务的全部配置，对应 configs/order-service.yaml
type Config struct {
	App       AppConfig       `yaml:"app"`
	Infra     InfraConfig     `yaml:"infra"`
	Services  ServicesConfig  `yaml:"services"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Store     StoreConfig     `yaml:"store"`
}

type AppConfig struct {
	Name           string               `yaml:"name"`
	Port           int                  `yaml:"port"`
	LogLevel       string               `yaml:"logLevel"`
	StatusSchedule StatusScheduleConfig `yaml:"statusSchedule"`
}

// StatusScheduleConfig 控制下单后自动推进状态的延迟
type StatusScheduleConfig struct {
	OnTheWayDelay  time.Duration `yaml:"onTheWayDelay"`
	DeliveredDelay time.Duration `yaml:"deliveredDelay"`
}

type InfraConfig struct {
	Jaeger JaegerConfig `yaml:"jaeger"`
	Kafka  KafkaConfig  `yaml:"kafka"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	Redis  RedisConfig  `yaml:"redis"`
	Nacos  NacosConfig  `yaml:"nacos"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        TopicConfig `yaml:"topics"`
}

type TopicConfig struct {
	OrderCreatedNotification string `yaml:"orderCreatedNotification"`
	OrderCreatedDelivery     string `yaml:"orderCreatedDelivery"`
	StatusChanged            string `yaml:"statusChanged"`
	RestaurantPayout         string `yaml:"restaurantPayout"`
	StatusUpdate             string `yaml:"statusUpdate"`
	DeadLetter               string `yaml:"deadLetter"`
}

type MySQLConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Database     string        `yaml:"database"`
	MaxOpenConns int           `yaml:"maxOpenConns"`
	MaxIdleConns int           `yaml:"maxIdleConns"`
	ConnMaxLife  time.Duration `yaml:"connMaxLife"`
}

type RedisConfig struct {
	Addrs        string `yaml:"addrs"`
	JobKeyPrefix string `yaml:"jobKeyPrefix"`
}

type NacosConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServerAddrs string `yaml:"serverAddrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

// ServicesConfig 是下游服务的静态地址 (未启用 Nacos 时使用)
type ServicesConfig struct {
	Restaurant string        `yaml:"restaurant"`
	Payment    string        `yaml:"payment"`
	Delivery   string        `yaml:"delivery"`
	Timeout    time.Duration `yaml:"timeout"`
}

type SchedulerConfig struct {
	PollInterval time.Duration `yaml:"pollInterval"`
	BatchSize    int           `yaml:"batchSize"`
	LeaseTimeout time.Duration `yaml:"leaseTimeout"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // mysql | memory
}

// Init 从 CONFIG_PATH (默认 configs/order-service.yaml) 加载配置并应用环境变量覆盖。
func Init() (*Config, error) {
	return LoadConfig(getEnv("CONFIG_PATH", "configs/order-service.yaml"))
}

// LoadConfig 读取 YAML 文件；文件不存在时使用默认值。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:     "order-service",
			Port:     8000,
			LogLevel: "info",
			StatusSchedule: StatusScheduleConfig{
				OnTheWayDelay:  time.Minute,
				DeliveredDelay: 3 * time.Minute,
			},
		},
		Infra: InfraConfig{
			Jaeger: JaegerConfig{Endpoint: "http://localhost:14268/api/traces"},
			Kafka: KafkaConfig{
				Brokers:       []string{"localhost:9092"},
				ConsumerGroup: "order-service-status-consumer",
				Topics: TopicConfig{
					OrderCreatedNotification: "order-created-notification",
					OrderCreatedDelivery:     "order-created-delivery",
					StatusChanged:            "status-changed-notification",
					RestaurantPayout:         "restaurant-payout",
					StatusUpdate:             "order-status-update",
					DeadLetter:               "order-status-update-dlt",
				},
			},
			MySQL: MySQLConfig{
				Host:         "localhost",
				Port:         3306,
				User:         "root",
				Database:     "orders",
				MaxOpenConns: 20,
				MaxIdleConns: 10,
				ConnMaxLife:  30 * time.Minute,
			},
			Redis: RedisConfig{Addrs: "localhost:6379", JobKeyPrefix: "order-status-jobs"},
			Nacos: NacosConfig{ServerAddrs: "localhost:8848", Group: "DEFAULT_GROUP"},
		},
		Services: ServicesConfig{
			Restaurant: "http://localhost:8001",
			Payment:    "http://localhost:8002",
			Delivery:   "http://localhost:8003",
			Timeout:    5 * time.Second,
		},
		Scheduler: SchedulerConfig{
			PollInterval: time.Second,
			BatchSize:    50,
			LeaseTimeout: 30 * time.Second,
		},
		Store: StoreConfig{Driver: "mysql"},
	}
}

// Validate 检查会导致运行期异常的配置
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port <= 0 {
		errs = append(errs, fmt.Errorf("app.port must be positive"))
	}
	if c.App.StatusSchedule.OnTheWayDelay <= 0 || c.App.StatusSchedule.DeliveredDelay <= 0 {
		errs = append(errs, fmt.Errorf("app.statusSchedule delays must be positive"))
	}
	if c.App.StatusSchedule.DeliveredDelay <= c.App.StatusSchedule.OnTheWayDelay {
		errs = append(errs, fmt.Errorf("app.statusSchedule.deliveredDelay must be longer than onTheWayDelay"))
	}
	if len(c.Infra.Kafka.Brokers) == 0 {
		errs = append(errs, fmt.Errorf("infra.kafka.brokers is empty"))
	}
	if c.Scheduler.BatchSize <= 0 || c.Scheduler.PollInterval <= 0 || c.Scheduler.LeaseTimeout <= 0 {
		errs = append(errs, fmt.Errorf("scheduler settings must be positive"))
	}
	switch c.Store.Driver {
	case "mysql", "memory":
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not supported", c.Store.Driver))
	}
	return errors.Join(errs...)
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = port
		}
	}
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	cfg.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", cfg.Infra.Redis.Addrs)
	cfg.Infra.MySQL.Host = getEnv("MYSQL_HOST", cfg.Infra.MySQL.Host)
	cfg.Infra.MySQL.User = getEnv("MYSQL_USER", cfg.Infra.MySQL.User)
	cfg.Infra.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Infra.MySQL.Password)
	cfg.Infra.MySQL.Database = getEnv("MYSQL_DATABASE", cfg.Infra.MySQL.Database)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
	if v, ok := os.LookupEnv("NACOS_ENABLED"); ok {
		cfg.Infra.Nacos.Enabled = v == "true"
	}
	cfg.Services.Restaurant = getEnv("RESTAURANT_SERVICE_URL", cfg.Services.Restaurant)
	cfg.Services.Payment = getEnv("PAYMENT_SERVICE_URL", cfg.Services.Payment)
	cfg.Services.Delivery = getEnv("DELIVERY_SERVICE_URL", cfg.Services.Delivery)
	cfg.Store.Driver = getEnv("STORE_DRIVER", cfg.Store.Driver)
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
