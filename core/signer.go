package core

import (
	"context"
	"fmt"
	"strings"
)

type BearerTokenSigner struct{}

func (BearerTokenSigner) Sign(_ context.Context, req *TransportRequest, cred CredentialPair) error {
	if req == nil {
		return fmt.Errorf("core: transport request is required")
	}
	token := strings.TrimSpace(cred.AccessToken)
	if token == "" {
		return fmt.Errorf("core: access token is required for bearer signing")
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers["Authorization"] = "Bearer " + token
	return nil
}

// bearerToken extracts the token a request was signed with.
func bearerToken(req TransportRequest) string {
	value := strings.TrimSpace(req.Headers["Authorization"])
	if len(value) > len("Bearer ") && strings.EqualFold(value[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(value[len("Bearer "):])
	}
	return ""
}
