package services

import (
	"context"
	"log"

	"github.com/craftsite-simple/config"
)

// PublishResult describes where a published site lives.
type PublishResult struct {
	// RepoRef identifies the publish target so later updates and teardown
	// can address it.
	RepoRef string `json:"repoRef"`

	// PublicURL is the address visitors use to reach the site.
	PublicURL string `json:"publicUrl"`
}

// SitePublisher pushes rendered site content to a hosting target.
type SitePublisher interface {
	// Publish creates a new target when existingTarget is empty, otherwise
	// updates the named target in place. Repeated publishes to the same
	// target must keep the same RepoRef.
	Publish(ctx context.Context, ownerID, templateID, content, existingTarget string) (*PublishResult, error)

	// Teardown removes the publish target. A missing target counts as
	// success.
	Teardown(ctx context.Context, repoRef string) error
}

// NewSitePublisherFromEnv selects the publisher backend by configuration.
// Defaults to git hosting; PUBLISHER_BACKEND=object-storage switches to the
// bucket-based backend.
func NewSitePublisherFromEnv() SitePublisher {
	backend := config.GetEnv("PUBLISHER_BACKEND", "git")
	switch backend {
	case "object-storage":
		log.Println("🚀 Using object-storage site publisher")
		return NewObjectStoragePublisher()
	default:
		log.Println("🚀 Using git site publisher")
		return NewGitPublisher()
	}
}
