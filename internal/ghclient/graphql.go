package ghclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spiffcs/repobot/internal/httpjson"
	"github.com/spiffcs/repobot/internal/log"
)

// graphqlRequest represents a GraphQL request payload.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse represents a generic GraphQL response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// GraphQLError is returned when the API answers with errors and no data, or
// with errors to a caller that decodes nothing.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// Query executes a GraphQL document and decodes the data object into out.
//
// Errors reported alongside usable data are logged and otherwise ignored,
// matching how partial results from aliased queries are treated. With a nil
// out any reported error is returned.
func (c *Client) Query(ctx context.Context, query string, vars map[string]any, out any) error {
	var resp graphqlResponse
	err := httpjson.Do(ctx, c.httpClient, httpjson.Request{
		Method: http.MethodPost,
		URL:    c.graphqlURL,
		Body:   graphqlRequest{Query: query, Variables: vars},
	}, &resp)
	if err != nil {
		return fmt.Errorf("GraphQL request failed: %w", err)
	}

	if log.IsTrace() {
		log.Trace("GraphQL response", "data", string(resp.Data))
	}

	hasData := len(resp.Data) > 0 && string(resp.Data) != "null"
	if len(resp.Errors) > 0 {
		// Callers that discard the data cannot tell a partial result from a
		// failed mutation, so errors are fatal for them.
		if !hasData || out == nil {
			gqlErr := &GraphQLError{}
			for _, e := range resp.Errors {
				gqlErr.Messages = append(gqlErr.Messages, e.Message)
			}
			return gqlErr
		}
		for _, e := range resp.Errors {
			log.Debug("GraphQL error", "message", e.Message, "type", e.Type)
		}
	}

	if out == nil || !hasData {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse GraphQL response: %w", err)
	}
	return nil
}
