package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/craftsite-simple/config"
	"github.com/craftsite-simple/utils"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStoragePublisher serves sites out of an S3-compatible store, one
// bucket per publish target with the rendered page stored as index.html.
type ObjectStoragePublisher struct {
	endpoint string
	useSSL   bool
	client   *minio.Client
}

// NewObjectStoragePublisher connects to the configured object store.
func NewObjectStoragePublisher() *ObjectStoragePublisher {
	endpoint := config.GetEnv("MINIO_ENDPOINT", "localhost:9000")
	useSSL := config.GetEnv("MINIO_USE_SSL", "false") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: useSSL,
	})
	if err != nil {
		// Log error but continue - publishes will fail gracefully
		log.Printf("Warning: Could not create object storage client: %v", err)
	}

	return &ObjectStoragePublisher{
		endpoint: endpoint,
		useSSL:   useSSL,
		client:   client,
	}
}

// Publish uploads the site content as index.html in the target bucket,
// creating the bucket with public read access on first publish.
func (p *ObjectStoragePublisher) Publish(ctx context.Context, ownerID, templateID, content, existingTarget string) (*PublishResult, error) {
	if p.client == nil {
		return nil, utils.NewError(utils.ErrConfiguration, "object storage client is not initialized")
	}

	bucket := existingTarget
	if bucket == "" {
		bucket = utils.GeneratePublishTargetName(ownerID)
	}

	exists, err := p.client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, utils.WrapError(utils.ErrPublish, "failed to check site bucket", err)
	}
	if !exists {
		log.Printf("Creating site bucket: %s", bucket)
		if err := p.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, utils.WrapError(utils.ErrPublish, "failed to create site bucket", err)
		}
		policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
		if err := p.client.SetBucketPolicy(ctx, bucket, policy); err != nil {
			return nil, utils.WrapError(utils.ErrPublish, "failed to set site bucket policy", err)
		}
	}

	reader := strings.NewReader(content)
	_, err = p.client.PutObject(ctx, bucket, "index.html", reader, int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/html",
	})
	if err != nil {
		return nil, utils.WrapError(utils.ErrPublish, "failed to upload site content", err)
	}

	scheme := "http"
	if p.useSSL {
		scheme = "https"
	}
	publicURL := fmt.Sprintf("%s://%s/%s/index.html", scheme, p.endpoint, bucket)
	log.Printf("✅ Site published: %s", publicURL)

	return &PublishResult{RepoRef: bucket, PublicURL: publicURL}, nil
}

// Teardown removes the site object and its bucket. Missing resources count
// as already removed.
func (p *ObjectStoragePublisher) Teardown(ctx context.Context, repoRef string) error {
	if p.client == nil {
		return utils.NewError(utils.ErrConfiguration, "object storage client is not initialized")
	}

	log.Printf("Deleting site bucket: %s", repoRef)

	err := p.client.RemoveObject(ctx, repoRef, "index.html", minio.RemoveObjectOptions{})
	if err != nil && !isBucketMissing(err) {
		return utils.WrapError(utils.ErrPublish, "failed to remove site content", err)
	}

	if err := p.client.RemoveBucket(ctx, repoRef); err != nil && !isBucketMissing(err) {
		return utils.WrapError(utils.ErrPublish, "failed to remove site bucket", err)
	}
	return nil
}

func isBucketMissing(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchBucket" || code == "NoSuchKey"
}
