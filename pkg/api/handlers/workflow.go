package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/api/dtos"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

type WorkflowService interface {
	Submit(ctx context.Context, request entities.DeploymentRequest) (*entities.WorkflowRun, error)
	GetRun(id string) (*entities.WorkflowRun, error)
	ListRuns(stage entities.Stage, limit int) ([]*entities.WorkflowRun, error)
}

type WorkflowHandler struct {
	WorkflowService WorkflowService
}

// Create godoc
// @Summary      Start a release workflow
// @Description  Resolves the deployment stage from the trigger and queues the run.
// @Tags         workflows
// @Accept       json
// @Produce      json
// @Param        request  body      dtos.CreateWorkflowRequest  true  "Trigger"
// @Success      202      {object}  dtos.CreateWorkflowResponse
// @Failure      400      {object}  dtos.ErrorResponse
// @Failure      500      {object}  dtos.ErrorResponse
// @Router       /workflows [post]
func (h *WorkflowHandler) Create(c *gin.Context) {
	var request dtos.CreateWorkflowRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: err.Error()})
		return
	}

	if err := request.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: err.Error()})
		return
	}

	run, err := h.WorkflowService.Submit(c.Request.Context(), request.ToDeploymentRequest())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dtos.CreateWorkflowResponse{
		Message: "OK",
		RunID:   run.ID.String(),
		Stage:   run.Stage,
		Status:  run.Status,
	})
}

// GetRunByID godoc
// @Summary      Get a workflow run
// @Tags         workflows
// @Produce      json
// @Param        id   path      string  true  "Run ID"
// @Success      200  {object}  entities.WorkflowRun
// @Failure      400  {object}  dtos.ErrorResponse
// @Failure      404  {object}  dtos.ErrorResponse
// @Router       /workflows/{id} [get]
func (h *WorkflowHandler) GetRunByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: "id is required"})
		return
	}

	run, err := h.WorkflowService.GetRun(id)
	if err != nil {
		writeError(c, err)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, dtos.ErrorResponse{Error: "workflow run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetRuns godoc
// @Summary      List workflow runs
// @Tags         workflows
// @Produce      json
// @Param        stage  query     string  false  "staging, production or none"
// @Param        limit  query     int     false  "Maximum number of runs"
// @Success      200    {object}  map[string][]entities.WorkflowRun
// @Failure      400    {object}  dtos.ErrorResponse
// @Router       /workflows [get]
func (h *WorkflowHandler) GetRuns(c *gin.Context) {
	var stage entities.Stage
	if raw := c.Query("stage"); raw != "" {
		stage = entities.Stage(raw)
		if stage != entities.StageNone {
			parsed, ok := entities.ParseStage(raw)
			if !ok {
				c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: "invalid stage " + raw})
				return
			}
			stage = parsed
		}
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = v
	}

	runs, err := h.WorkflowService.ListRuns(stage, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func NewWorkflowHandler(service WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{WorkflowService: service}
}
