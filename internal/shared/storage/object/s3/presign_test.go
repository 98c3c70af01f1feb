package s3

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func offlineStore(t *testing.T) *Store {
	t.Helper()
	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider("AKID", "SECRET", "")),
	}
	return NewWithClient(s3.NewFromConfig(cfg), "bucket", "uploads")
}

func TestPresignPutOffline(t *testing.T) {
	store := offlineStore(t)

	raw, err := store.PresignPut(context.Background(), "documents/user/doc/file.pdf", "application/pdf", 15*time.Minute)
	if err != nil {
		t.Fatalf("presign put: %v", err)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if !strings.Contains(parsed.Path, "uploads/documents/user/doc/file.pdf") {
		t.Fatalf("prefix missing from presigned path: %s", parsed.Path)
	}
	if parsed.Query().Get("X-Amz-SignedHeaders") == "" {
		t.Fatalf("expected X-Amz-SignedHeaders in %s", raw)
	}
	if parsed.Query().Get("X-Amz-Expires") != "900" {
		t.Fatalf("expected 900s expiry, got %s", parsed.Query().Get("X-Amz-Expires"))
	}
}

func TestPresignGetOffline(t *testing.T) {
	store := offlineStore(t)

	raw, err := store.PresignGet(context.Background(), "documents/user/doc/file.pdf", time.Hour)
	if err != nil {
		t.Fatalf("presign get: %v", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if parsed.Query().Get("X-Amz-Expires") != "3600" {
		t.Fatalf("expected 3600s expiry, got %s", parsed.Query().Get("X-Amz-Expires"))
	}
}
