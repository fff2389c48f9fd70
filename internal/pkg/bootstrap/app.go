// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/nacos"
	"bazaar/internal/pkg/tracing"
	"bazaar/internal/pkg/utils"
)

// AppCtx 传递给路由注册回调的上下文。
type AppCtx struct {
	Mux *http.ServeMux
}

// AppInfo 包含启动一个服务所需的特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx) // 每个服务注册自己的 HTTP 路由

	// OnShutdown 在 HTTP 服务器关闭前按注册顺序的逆序执行，
	// 用于关闭 Kafka 消费者、Redis 连接等组件。
	OnShutdown []func(ctx context.Context)
}

// StartService 封装通用的启动和优雅关停逻辑。
func StartService(info AppInfo) {
	cfg := GetCurrentConfig()
	logger.Init(info.ServiceName)

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// 2. 服务注册（可选）
	var namingClient *nacos.Client
	var registeredIP string
	if cfg.Infra.Nacos.Enabled {
		namingClient, err = nacos.NewClient(cfg.Infra.Nacos.Addrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		registeredIP, err = utils.GetOutboundIP()
		if err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to get outbound ip")
		}
		if err := namingClient.Register(info.ServiceName, registeredIP, info.Port); err != nil {
			logger.Logger().Fatal().Err(err).Msg("failed to register service with nacos")
		}
	}

	// 3. 创建并启动 HTTP Server
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.Logger().Info().Int("port", info.Port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger().Fatal().Err(err).Msg("http server failed")
		}
	}()

	// 4. 阻塞等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger().Info().Msgf("shutting down %s", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 5. 清理操作按后进先出执行
	if namingClient != nil {
		if err := namingClient.Deregister(info.ServiceName, registeredIP, info.Port); err != nil {
			logger.Logger().Error().Err(err).Msg("error deregistering from nacos")
		}
	}

	for i := len(info.OnShutdown) - 1; i >= 0; i-- {
		info.OnShutdown[i](ctx)
	}

	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("error shutting down tracer provider")
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("error shutting down http server")
	}

	logger.Logger().Info().Msgf("%s gracefully shut down", info.ServiceName)
}
