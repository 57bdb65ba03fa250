package servers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/services"
)

type Server struct {
	Router          *gin.Engine
	PostgresDB      *gorm.DB
	WorkflowService *services.WorkflowService
	CleanupService  *services.CleanupService
}

func (s *Server) Start(port string) error {
	return s.Router.Run(":" + port)
}

func (s *Server) Use(middleware gin.HandlerFunc) {
	s.Router.Use(middleware)
}

func NewServer(db *gorm.DB, workflowService *services.WorkflowService, cleanupService *services.CleanupService) *Server {
	app := gin.Default()

	return &Server{
		Router:          app,
		PostgresDB:      db,
		WorkflowService: workflowService,
		CleanupService:  cleanupService,
	}
}
