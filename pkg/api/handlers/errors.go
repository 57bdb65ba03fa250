package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sagemaker-mlops/release-orchestrator/pkg/api/dtos"
	"github.com/sagemaker-mlops/release-orchestrator/pkg/domain/entities"
)

// statusFor maps a workflow error kind to the HTTP status returned for it.
func statusFor(kind entities.ErrorKind) int {
	switch kind {
	case entities.ErrorKindConfiguration, entities.ErrorKindConfirmationMismatch:
		return http.StatusBadRequest
	case entities.ErrorKindApprovalRequired:
		return http.StatusConflict
	case entities.ErrorKindTimeout:
		return http.StatusGatewayTimeout
	case entities.ErrorKindInfrastructure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	kind, ok := entities.KindOf(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, dtos.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(statusFor(kind), dtos.ErrorResponse{Error: err.Error(), ErrorKind: kind})
}
