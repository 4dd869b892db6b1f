package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/reasonableperson/etrial-manager/api/controllers"
	"github.com/reasonableperson/etrial-manager/api/middlewares"
	"github.com/reasonableperson/etrial-manager/api/models"
	"github.com/reasonableperson/etrial-manager/api/notifyhub"
	"github.com/reasonableperson/etrial-manager/batch"
	"github.com/reasonableperson/etrial-manager/notify"
	"github.com/reasonableperson/etrial-manager/tool"
	"github.com/reasonableperson/etrial-manager/types"
)

// selfAPIPrefix groups the loopback-only routes. They are never CORS-enabled.
const selfAPIPrefix = "/api/self/v1"

// Server hosts the document backend, the local self API and the page
// sessions that feed dropped files into the upload coordinator.
type Server struct {
	cfg         types.AppConfig
	hub         *notifyhub.Hub
	docs        *models.DocumentStore
	coordinator *batch.Coordinator
	forwarder   *notify.Forwarder
	ctx         context.Context
	cancel      context.CancelFunc

	mu     sync.RWMutex
	engine *gin.Engine
	server *http.Server
}

// NewServer wires the store, hub and coordinator. uploader transmits the
// files of every batch, normally a *transfer.Client pointed at cfg.Target.
func NewServer(cfg types.AppConfig, uploader batch.Uploader) (*Server, error) {
	docs, err := models.NewDocumentStore(cfg.DocsDir, cfg.MetadataPath)
	if err != nil {
		return nil, err
	}
	models.InitBatchRegistry(cfg.BatchTTL)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		hub:       notifyhub.New(),
		forwarder: notify.NewForwarder(cfg.NotifySocket),
		docs:      docs,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.coordinator = batch.NewCoordinator(uploader, batch.Config{
		Observer:    batch.Observers{s.hub, s.forwarder},
		TaskTimeout: cfg.TaskTimeout,
		OnComplete: func(b *batch.Batch) {
			s.hub.Reload("batch " + b.ID() + " complete")
		},
	})
	return s, nil
}

// StartBatch starts one batch and keeps it reachable through the self API.
func (s *Server) StartBatch(files []types.DroppedFile) *batch.Batch {
	b := s.coordinator.StartBatch(s.ctx, files)
	models.RegisterBatch(b)
	return b
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middlewares.AllowAllCORS(selfAPIPrefix + "/"))

	docCtrl := controllers.NewDocumentController(s.docs, s.hub)
	batchCtrl := controllers.NewBatchController(s.StartBatch)

	engine.POST("/upload", docCtrl.HandleUpload)
	engine.POST("/documents/add", docCtrl.HandleUpload)
	engine.POST("/documents/:action/:row/:col", docCtrl.HandleDocumentMatrix)
	engine.POST("/users/:action/:row/:col", docCtrl.HandleUserMatrix)
	engine.POST("/identify/:hash/:arg", docCtrl.HandleIdentify)
	engine.POST("/publish/:hash/:group", docCtrl.HandlePublish)
	engine.POST("/recall/:hash/:group", docCtrl.HandleRecall)
	engine.POST("/delete/:hash", docCtrl.HandleDelete)
	engine.POST("/settings/sftp/grant/:name", docCtrl.HandleGrant)
	engine.GET("/api/documents", docCtrl.HandleList)

	self := engine.Group(selfAPIPrefix, middlewares.OnlyAllowLocal)
	{
		self.GET("/status", controllers.UserStatus(s.hub.Len))
		self.GET("/notify-ws", notifyhub.HandleNotifyWS(s.hub, func(files []types.DroppedFile) {
			s.StartBatch(files)
		}))
		self.POST("/upload-batch", batchCtrl.UserUploadBatch)
		self.GET("/batch/:id", batchCtrl.UserGetBatch)
		self.POST("/batch/:id/cancel/:task", batchCtrl.UserCancelTask)
		self.GET("/create-qr-code", controllers.GenerateQRCode)
	}
	return engine
}

// Handler returns the routed engine, building it on first use.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = s.setupRoutes()
	}
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:    s.cfg.Listen,
		Handler: handler,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on %s (uploads go to %s%s)", s.cfg.Listen, s.cfg.Target, s.cfg.UploadPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and aborts running uploads.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	defer s.forwarder.Close(notify.SocketTimeout)
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
