package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/api/dtos"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

type CleanupService interface {
	Cleanup(ctx context.Context, endpointName, confirmationToken string) (*entities.CleanupResult, error)
	ListEndpoints(ctx context.Context) ([]*entities.Endpoint, error)
}

type EndpointHandler struct {
	CleanupService CleanupService
}

// Cleanup godoc
// @Summary      Delete an endpoint and its configuration
// @Description  Requires the confirmation token DELETE. Deleting an absent endpoint is a no-op.
// @Tags         endpoints
// @Accept       json
// @Produce      json
// @Param        name     path      string                       true  "Endpoint name"
// @Param        request  body      dtos.CleanupEndpointRequest  true  "Confirmation"
// @Success      200      {object}  entities.CleanupResult
// @Failure      400      {object}  dtos.ErrorResponse
// @Failure      502      {object}  dtos.ErrorResponse
// @Router       /endpoints/{name}/cleanup [post]
func (h *EndpointHandler) Cleanup(c *gin.Context) {
	var request dtos.CleanupEndpointRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.CleanupService.Cleanup(c.Request.Context(), c.Param("name"), request.Confirm)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetEndpoints godoc
// @Summary      List inference endpoints
// @Tags         endpoints
// @Produce      json
// @Success      200  {object}  map[string][]entities.Endpoint
// @Failure      502  {object}  dtos.ErrorResponse
// @Router       /endpoints [get]
func (h *EndpointHandler) GetEndpoints(c *gin.Context) {
	endpoints, err := h.CleanupService.ListEndpoints(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"endpoints": endpoints})
}

func NewEndpointHandler(service CleanupService) *EndpointHandler {
	return &EndpointHandler{CleanupService: service}
}
