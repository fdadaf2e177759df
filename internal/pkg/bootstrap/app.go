// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"mtogo/internal/pkg/logger"
	"mtogo/internal/pkg/nacos"
	"mtogo/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Component 是随服务一起启动、关停的后台组件 (消费者、worker、生产者)。
// Start 必须立即返回，长期运行的循环放在组件自己的 goroutine 里。
type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

type AppCtx struct {
	Router chi.Router
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	Nacos            *nacos.Client       // 为 nil 时不做服务注册
	RegisterHandlers func(appCtx AppCtx) // 一个函数，允许每个服务注册自己独特的 HTTP 路由
	Components       []Component
	// Closers 在所有组件停止后按逆序执行 (tracer provider、数据库连接等)
	Closers []func(ctx context.Context) error
}

// StartService 封装了通用启动和优雅关停逻辑，阻塞直到收到 SIGINT/SIGTERM 或 HTTP 服务异常退出。
func StartService(info AppInfo) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 启动后台组件，失败时回滚已启动的部分。
	// 组件只由 Stop 停止，收到信号时先摘流量再按逆序停组件。
	componentCtx := context.WithoutCancel(ctx)
	started := make([]Component, 0, len(info.Components))
	for _, c := range info.Components {
		if err := c.Start(componentCtx); err != nil {
			stopComponents(started)
			runClosers(info.Closers)
			return fmt.Errorf("start component %T: %w", c, err)
		}
		started = append(started, c)
	}

	// 2. 注册路由
	router := chi.NewRouter()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Router: router})
	}
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(info.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 3. 服务注册
	var ip string
	if info.Nacos != nil {
		var err error
		if ip, err = utils.GetOutboundIP(); err != nil {
			stopComponents(started)
			runClosers(info.Closers)
			return fmt.Errorf("get outbound ip: %w", err)
		}
		if err := info.Nacos.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			stopComponents(started)
			runClosers(info.Closers)
			return fmt.Errorf("register with nacos: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Ctx(gctx).Info().Int("port", info.Port).Msgf("✅ %s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", server.Addr, err)
		}
		return nil
	})

	// 4. 优雅关停：先摘流量，再停 HTTP，再停组件，最后释放基础设施
	g.Go(func() error {
		<-gctx.Done()
		logger.Ctx(context.Background()).Info().Msgf("Shutting down service %s...", info.ServiceName)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if info.Nacos != nil {
			if err := info.Nacos.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
				logger.Ctx(shutdownCtx).Error().Err(err).Msg("Error deregistering from Nacos")
			}
			info.Nacos.Close()
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Ctx(shutdownCtx).Error().Err(err).Msg("Error shutting down http server")
		}

		stopComponents(started)
		runClosers(info.Closers)
		return nil
	})

	err := g.Wait()
	logger.Ctx(context.Background()).Info().Msgf("🛑 Service %s shut down.", info.ServiceName)
	return err
}

func stopComponents(components []Component) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(components) - 1; i >= 0; i-- {
		components[i].Stop(ctx)
	}
}

func runClosers(closers []func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("Error releasing resource")
		}
	}
}
