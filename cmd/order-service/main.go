// cmd/order-service/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"mtogo/internal/pkg/bootstrap"
	"mtogo/internal/pkg/constants"
	"mtogo/internal/pkg/httpclient"
	"mtogo/internal/pkg/logger"
	"mtogo/internal/pkg/mq"
	"mtogo/internal/pkg/nacos"
	"mtogo/internal/pkg/redis"
	"mtogo/internal/pkg/tracing"
	"mtogo/internal/service/order/application"
	"mtogo/internal/service/order/domain"
	"mtogo/internal/service/order/infrastructure"
	"mtogo/internal/service/order/infrastructure/adapter"
	"mtogo/internal/service/order/interfaces"

	"go.opentelemetry.io/otel"
)

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	if err := run(); err != nil {
		logger.Ctx(context.Background()).Error().Err(err).Msg("🚨 order-service exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := bootstrap.Init()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.App.Name, cfg.App.LogLevel)
	ctx := context.Background()

	// 1. 初始化核心技术组件
	tp, err := tracing.InitTracerProvider(cfg.App.Name, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		return fmt.Errorf("init tracer provider: %w", err)
	}
	closers := []func(context.Context) error{tp.Shutdown}
	tracer := otel.Tracer(cfg.App.Name)

	var nacosClient *nacos.Client
	var resolver httpclient.Resolver = httpclient.StaticResolver{
		constants.RestaurantService: cfg.Services.Restaurant,
		constants.PaymentService:    cfg.Services.Payment,
		constants.DeliveryService:   cfg.Services.Delivery,
	}
	if cfg.Infra.Nacos.Enabled {
		nacosClient, err = nacos.NewNacosClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			return fmt.Errorf("init nacos client: %w", err)
		}
		resolver = nacosClient
	}
	httpClient := httpclient.NewClient(tracer, resolver, cfg.Services.Timeout)

	// 2. 存储
	repo, closeRepo, err := newOrderRepository(ctx, cfg)
	if err != nil {
		return err
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}

	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
	if err != nil {
		return fmt.Errorf("init redis client: %w", err)
	}
	closers = append(closers, func(context.Context) error { return redisClient.Close() })

	scheduler, err := adapter.NewSchedulerRedisAdapter(redisClient, cfg.Infra.Redis.JobKeyPrefix)
	if err != nil {
		return err
	}

	// 3. 消息
	kafkaCfg := cfg.Infra.Kafka
	eventWriter := mq.NewKafkaWriter(kafkaCfg.Brokers, "")
	publisher := adapter.NewEventKafkaAdapter(eventWriter, kafkaCfg.Topics, kafkaCfg.Brokers)

	// 4. 应用服务
	appSvc := application.NewOrderApplicationService(repo, application.Ports{
		Baskets:     adapter.NewBasketHTTPAdapter(httpClient),
		Payments:    adapter.NewPaymentHTTPAdapter(httpClient),
		Restaurants: adapter.NewRestaurantHTTPAdapter(httpClient),
		Deliveries:  adapter.NewDeliveryHTTPAdapter(httpClient),
		Publisher:   publisher,
		Scheduler:   scheduler,
	}, tracer, application.WithStatusSchedule(cfg.App.StatusSchedule.OnTheWayDelay, cfg.App.StatusSchedule.DeliveredDelay))

	// 5. 驱动适配器
	dltWriter := mq.NewKafkaWriter(kafkaCfg.Brokers, "")
	closers = append(closers, func(context.Context) error { return dltWriter.Close() })
	consumer := interfaces.NewStatusUpdateConsumer(
		mq.NewKafkaReader(kafkaCfg.Brokers, kafkaCfg.Topics.StatusUpdate, kafkaCfg.ConsumerGroup),
		kafkaCfg.Topics.StatusUpdate,
		appSvc,
		mq.NewFailureHandler(dltWriter, kafkaCfg.Topics.DeadLetter),
		tracer,
	)
	worker := interfaces.NewStatusJobWorker(scheduler, appSvc, tracer,
		cfg.Scheduler.PollInterval, cfg.Scheduler.BatchSize, cfg.Scheduler.LeaseTimeout)
	httpHandler := interfaces.NewOrderHandler(appSvc, tracer)

	return bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: cfg.App.Name,
		Port:        cfg.App.Port,
		Nacos:       nacosClient,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			httpHandler.RegisterRoutes(appCtx.Router)
		},
		// 生产者最先启动、最后停止，消费者停止前产生的事件都能发出
		Components: []bootstrap.Component{publisher, consumer, worker},
		Closers:    closers,
	})
}

// newOrderRepository 按 store.driver 选择订单存储
func newOrderRepository(ctx context.Context, cfg *bootstrap.Config) (domain.OrderRepository, func(context.Context) error, error) {
	switch cfg.Store.Driver {
	case "memory":
		logger.Ctx(ctx).Warn().Msg("Using in-memory order store, orders will not survive a restart")
		return infrastructure.NewMemoryOrderRepository(), nil, nil
	default:
		db, err := infrastructure.OpenMySQL(ctx, cfg.Infra.MySQL)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		return infrastructure.NewGormOrderRepository(db), infrastructure.CloseDB(db), nil
	}
}
