package cloud

import (
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"
)

// isNotFound reports whether err means the requested resource does not
// exist. Most SageMaker Describe calls signal this with a ValidationException
// rather than ResourceNotFound.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var rnf *types.ResourceNotFound
	if errors.As(err, &rnf) {
		return true
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ResourceNotFound", "ResourceNotFoundException", "NoSuchKey", "NotFound":
		return true
	case "ValidationException":
		msg := strings.ToLower(apiErr.ErrorMessage())
		return strings.Contains(msg, "could not find") || strings.Contains(msg, "does not exist")
	}
	return false
}
