package services

import (
	"context"
	"log"

	"github.com/craftsite-simple/config"
)

// DatabaseProvisioner creates and tears down isolated per-tenant databases.
// The tenant key is derived deterministically from (ownerID, projectID), so
// the same pair always resolves to the same logical database.
type DatabaseProvisioner interface {
	// Provision creates the database and returns its connection ref.
	// "Already exists" is a conflict, not a reuse: a collision on a derived
	// name means a caller bug.
	Provision(ctx context.Context, tenantKey string) (string, error)

	// Teardown drops the database. A missing resource counts as success.
	Teardown(ctx context.Context, tenantKey string) error
}

// NewDatabaseProvisionerFromEnv selects the provisioner backend by
// configuration. Defaults to the hosted DBaaS API; PROVISIONER_BACKEND can
// switch to the in-cluster Kubernetes backend.
func NewDatabaseProvisionerFromEnv() DatabaseProvisioner {
	backend := config.GetEnv("PROVISIONER_BACKEND", "dbaas")
	switch backend {
	case "kubernetes":
		log.Println("🗄️ Using Kubernetes database provisioner")
		return NewKubernetesProvisioner()
	default:
		log.Println("🗄️ Using DBaaS database provisioner")
		return NewDBaaSProvisioner()
	}
}
