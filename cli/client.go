package cli

import (
	"crypto/tls"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/frankonly/zkmerkle/api"
)

var apiClient *api.StateClient

// Client news or returns a state client
func Client() *api.StateClient {
	if apiClient == nil {
		creds := insecure.NewCredentials()
		if secureConn {
			creds = credentials.NewTLS(&tls.Config{})
		}

		conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(creds))
		if err != nil {
			log.Fatalf("failed to connect with %s: %v", endpoint, err)
		}

		apiClient = api.NewStateClient(conn)
	}

	return apiClient
}
