package cloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
)

type RuntimeAPI interface {
	InvokeEndpoint(ctx context.Context, in *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// EndpointInvoker sends inference requests to hosted endpoints.
type EndpointInvoker struct {
	api RuntimeAPI
}

func NewEndpointInvoker(cfg aws.Config) *EndpointInvoker {
	return &EndpointInvoker{api: sagemakerruntime.NewFromConfig(cfg)}
}

func NewEndpointInvokerWithAPI(api RuntimeAPI) *EndpointInvoker {
	return &EndpointInvoker{api: api}
}

func (i *EndpointInvoker) InvokeEndpoint(ctx context.Context, name, contentType string, body []byte) ([]byte, error) {
	out, err := i.api.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(name),
		ContentType:  aws.String(contentType),
		Accept:       aws.String(contentType),
		Body:         body,
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}
