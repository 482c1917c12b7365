package kubernetes

import (
	"fmt"
	"os"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// Client wraps the clientset used to run tenant database workloads.
type Client struct {
	Clientset *kubernetes.Clientset
}

// NewClient creates a Kubernetes client against the kubectl proxy address
// from K8S_PROXY_URL, defaulting to the local proxy.
func NewClient() (*Client, error) {
	host := os.Getenv("K8S_PROXY_URL")
	if host == "" {
		host = "http://localhost:8001"
	}

	// The proxy handles authentication, so the REST config stays bare.
	config := &rest.Config{
		Host: host,
		TLSClientConfig: rest.TLSClientConfig{
			Insecure: true,
		},
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kubernetes client: %v", err)
	}

	return &Client{Clientset: clientset}, nil
}
