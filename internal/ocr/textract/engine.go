package textract

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"documind-backend/internal/ocr"
)

// Engine implements ocr.Engine using Amazon Textract against objects that
// already live in S3.
type Engine struct {
	client *textract.Client
	bucket string
	prefix string
}

// New creates a Textract-backed OCR engine reading from the given bucket.
func New(ctx context.Context, region, bucket, prefix string) (*Engine, error) {
	if bucket == "" {
		return nil, fmt.Errorf("textract engine requires an s3 bucket")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Engine{
		client: textract.NewFromConfig(cfg),
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
	}, nil
}

// DetectText runs synchronous text detection over the stored object and
// aggregates LINE/WORD blocks plus the mean block confidence.
func (e *Engine) DetectText(ctx context.Context, storageKey string, contentType string) (ocr.Result, error) {
	objectKey := storageKey
	if e.prefix != "" {
		objectKey = e.prefix + "/" + strings.TrimLeft(storageKey, "/")
	}

	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: aws.String(e.bucket),
				Name:   aws.String(objectKey),
			},
		},
	})
	if err != nil {
		return ocr.Result{}, fmt.Errorf("textract detect bucket=%s key=%s: %w", e.bucket, objectKey, err)
	}

	var (
		lines     []string
		wordCount int
		confSum   float64
		confCount int
	)
	for _, block := range out.Blocks {
		if block.Confidence != nil {
			confSum += float64(*block.Confidence)
			confCount++
		}
		switch block.BlockType {
		case types.BlockTypeLine:
			if block.Text != nil {
				lines = append(lines, *block.Text)
			}
		case types.BlockTypeWord:
			wordCount++
		}
	}

	text := strings.Join(lines, "\n")
	if strings.TrimSpace(text) == "" {
		return ocr.Result{}, ocr.ErrEmptyOutput
	}

	confidence := 0.0
	if confCount > 0 {
		confidence = confSum / float64(confCount)
	}

	return ocr.Result{
		Text:       text,
		LineCount:  len(lines),
		WordCount:  wordCount,
		Confidence: confidence,
	}, nil
}

var _ ocr.Engine = (*Engine)(nil)
