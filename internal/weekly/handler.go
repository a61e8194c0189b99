package weekly

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spiffcs/repobot/internal/log"
)

// Reporter produces the report body.
type Reporter interface {
	Generate(ctx context.Context) (string, error)
}

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":      "*",
	"Access-Control-Allow-Credentials": "true",
}

// Handler adapts r to an API Gateway proxy handler. A failed report answers
// 400 with an empty body.
func Handler(r Reporter) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		resp := events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    corsHeaders,
		}
		body, err := r.Generate(ctx)
		if err != nil {
			log.Error("failed to generate weekly report", "error", err)
			resp.StatusCode = http.StatusBadRequest
			return resp, nil
		}
		resp.Body = body
		return resp, nil
	}
}
