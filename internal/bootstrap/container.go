package bootstrap

import (
	"context"
	"net/http"

	"propintel-console/internal/config"
	"propintel-console/internal/console"
	"propintel-console/internal/controller"
	"propintel-console/internal/pkg/logger"
	"propintel-console/internal/repository/memory"
	"propintel-console/internal/service"
	"propintel-console/internal/websocket"
	"propintel-console/pkg/analysis"
	"propintel-console/pkg/capture"
	pktNats "propintel-console/pkg/nats"
	"propintel-console/pkg/tiles"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	ConsoleController controller.IConsoleController
	HealthController  controller.IHealthController

	EventService  service.IEventService
	Coordinator   *console.Coordinator
	WebSocketHub  *websocket.Hub
	NatsPublisher *pktNats.Publisher

	Logger logger.ILogger
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.IsProduction())

	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)

	wsLogger := logger.NewIsolatedLogger(cfg.App.WSLogFilePath)
	wsHub := websocket.NewHub(wsLogger)

	var mirror service.EventMirror
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "NATS mirror disabled", map[string]interface{}{"url": cfg.App.NatsURL, "error": err.Error()})
		} else {
			natsPub, mirror = pub, pub
		}
	}

	eventService := service.NewEventService(pubSub, cfg.Console.EventTopic, wsHub, mirror, sysLogger)

	httpClient := &http.Client{Timeout: cfg.Analysis.HTTPTimeout}
	clients := []analysis.Client{
		analysis.NewClient(analysis.KindRoof, analysis.ServiceConfig{
			BaseURL: cfg.Analysis.Roof.BaseURL,
			Token:   cfg.Analysis.Roof.Token,
		}, httpClient),
		analysis.NewClient(analysis.KindConstruction, analysis.ServiceConfig{
			BaseURL: cfg.Analysis.Construction.BaseURL,
			Token:   cfg.Analysis.Construction.Token,
		}, httpClient),
	}

	frames := capture.NewFrameStore()
	catalogue := tiles.NewCatalogue(tiles.Bases{
		Flood:   cfg.Tiles.FloodBaseURL,
		Slosh:   cfg.Tiles.SloshBaseURL,
		Fema:    cfg.Tiles.FemaBaseURL,
		Imagery: cfg.Imagery.BaseURL,
	})

	coordinator := console.New(
		console.Config{
			MinBoxSize:   cfg.Console.MinBoxSize,
			CloseEpsilon: cfg.Console.CloseEpsilon,
			RoofMinZoom:  cfg.Console.RoofMinZoom,
			Tracker: analysis.TrackerConfig{
				PollInterval: cfg.Analysis.PollInterval,
				PollTimeout:  cfg.Analysis.PollTimeout,
			},
		},
		clients,
		capture.NewFrameRasterizer(frames),
		catalogue,
		eventService, // IEventService implements console.Notifier
		sysLogger,
	)

	imageryRepo := memory.NewImageryRepository(cfg.Imagery.CacheTTL)
	imageryService := service.NewImageryService(cfg.Imagery.BaseURL, cfg.Imagery.Token, imageryRepo, catalogue, sysLogger)
	tileService := service.NewTileService(cfg.Tiles.HealthURL)

	return &Container{
		ConsoleController: controller.NewConsoleController(coordinator, frames, catalogue, imageryService, wsHub, sysLogger),
		HealthController:  controller.NewHealthController(tileService, wsHub),

		EventService:  eventService,
		Coordinator:   coordinator,
		WebSocketHub:  wsHub,
		NatsPublisher: natsPub,

		Logger: sysLogger,
	}
}

// Close stops the jobs and releases external connections.
func (c *Container) Close() {
	c.Coordinator.Close()
	if c.NatsPublisher != nil {
		c.NatsPublisher.Close()
	}
	_ = c.Logger.Sync()
}
