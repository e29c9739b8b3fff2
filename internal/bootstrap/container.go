package bootstrap

import (
	"context"
	"fmt"

	"document-hub-be/internal/config"
	"document-hub-be/internal/controller"
	"document-hub-be/internal/handler"
	"document-hub-be/internal/pkg/apperror"
	"document-hub-be/internal/pkg/logger"
	"document-hub-be/internal/repository/memory"
	"document-hub-be/internal/service"
	"document-hub-be/internal/websocket"
	"document-hub-be/pkg/checklist"
	"document-hub-be/pkg/dispatch"
	pktNats "document-hub-be/pkg/nats"
	"document-hub-be/pkg/storage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	ChecklistController controller.IChecklistController
	WorkspaceController controller.IWorkspaceController
	UploadController    controller.IUploadController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	UploadStreamHandler *handler.UploadStreamHandler
	WebSocketHub        *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires every dependency. Errors are configuration errors and
// must stop the process.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	catalog, err := loadCatalog(cfg.App.CatalogPath)
	if err != nil {
		return nil, err
	}
	sysLogger.Info("Bootstrap", "Checklist catalog loaded", map[string]interface{}{
		"items":  catalog.Len(),
		"source": catalogSource(cfg.App.CatalogPath),
	})

	backend, err := storage.NewBackend(ctx, cfg.StorageBackendConfig())
	if err != nil {
		return nil, apperror.Wrap(apperror.KindConfiguration, "bootstrap.NewContainer", err)
	}
	backend = storage.WithTimeout(backend, cfg.Storage.Timeout)
	sysLogger.Info("Bootstrap", "Storage backend ready", map[string]interface{}{
		"provider": backend.Name(),
		"bucket":   cfg.Storage.Bucket,
	})

	defaultMode, err := storage.ParseConflictMode(cfg.Storage.DefaultConflictMode)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindConfiguration, "bootstrap.NewContainer", err)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)

	c := &Container{Logger: sysLogger}
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// NATS is optional; without it results only reach websocket listeners.
	var eventPublisher service.EventPublisher
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			eventPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Infrastructure
	sessionRepo := memory.NewSessionRepository(cfg.Auth.SessionTTL)

	wsLogger := logger.NewIsolatedLogger(cfg.App.StreamLogFilePath)
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()
	c.closers = append(c.closers, wsHub.Stop)

	dispatcher := dispatch.New(backend, sysLogger, cfg.Upload.Concurrency)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Events.UploadResultTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Events.UploadResultTopic,
		wsHub, // Hub implements ResultDelivery
		eventPublisher,
		wsLogger,
	)

	workspaceService := service.NewWorkspaceService(
		catalog,
		sessionRepo,
		dispatcher,
		publisherService,
		service.WorkspaceOptions{
			JWTSecret:    cfg.Auth.JWTSecret,
			SessionTTL:   cfg.Auth.SessionTTL,
			MaxFileBytes: cfg.Upload.MaxFileBytes,
			DefaultMode:  defaultMode,
		},
		sysLogger,
	)
	uploadService := service.NewUploadService(
		dispatcher,
		publisherService,
		cfg.Upload.MaxFileBytes,
		defaultMode,
		sysLogger,
	)

	// 5. Controllers
	c.ChecklistController = controller.NewChecklistController(workspaceService)
	c.WorkspaceController = controller.NewWorkspaceController(workspaceService, cfg.Auth.JWTSecret)
	c.UploadController = controller.NewUploadController(uploadService, cfg.Auth.JWTSecret)
	c.UploadStreamHandler = handler.NewUploadStreamHandler(wsHub, sessionRepo, cfg.Auth.JWTSecret, wsLogger)
	c.WebSocketHub = wsHub
	c.ConsumerService = consumerService

	return c, nil
}

// Close releases background resources in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

func loadCatalog(path string) (*checklist.Catalog, error) {
	if path == "" {
		return checklist.Default()
	}
	catalog, err := checklist.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load checklist catalog: %w", err)
	}
	return catalog, nil
}

func catalogSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
