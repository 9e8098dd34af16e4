package services

import (
	"bytes"
	"context"
	"fmt"
	"os"

	appContext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	"github.com/little-lingo/tutor_api/model"
	"github.com/little-lingo/tutor_api/shared"
)

// ArchiveService copies conversations into object storage before they
// are deleted. It stays disabled unless MINIO_ENDPOINT is configured.
type ArchiveService struct {
	appContext.DefaultService

	client *minio.Client
	bucket string

	endpoint  string
	accessKey string
	secretKey string
	useSSL    bool
}

const ARCHIVE_SVC = "archive_svc"

func (svc ArchiveService) Id() string {
	return ARCHIVE_SVC
}

func (svc *ArchiveService) Enabled() bool {
	return svc.client != nil
}

func (svc *ArchiveService) Configure(ctx *appContext.Context) error {
	svc.endpoint = os.Getenv("MINIO_ENDPOINT")
	svc.accessKey = os.Getenv("MINIO_ACCESS_KEY")
	svc.secretKey = os.Getenv("MINIO_SECRET_KEY")
	svc.useSSL = os.Getenv("MINIO_USE_SSL") == "true"

	svc.bucket = os.Getenv("MINIO_BUCKET")
	if svc.bucket == "" {
		svc.bucket = "conversation-archive"
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *ArchiveService) Start() error {
	if svc.endpoint == "" {
		log.Info("Conversation archive disabled, MINIO_ENDPOINT not set")
		return nil
	}

	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(svc.accessKey, svc.secretKey, ""),
		Secure: svc.useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to minio: %w", err)
	}
	svc.client = client

	return svc.ensureBucket(context.Background())
}

func (svc *ArchiveService) Shutdown() {
}

func (svc *ArchiveService) ensureBucket(ctx context.Context) error {
	exists, err := svc.client.BucketExists(ctx, svc.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := svc.client.MakeBucket(ctx, svc.bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
		log.WithFields(log.Fields{"bucket": svc.bucket}).Info("Archive bucket created")
	}
	return nil
}

// ArchiveConversation writes the transcript and its summary, if any, as
// one JSON object under transcripts/{conversation_id}.json.
func (svc *ArchiveService) ArchiveConversation(ctx context.Context, transcript *model.ConversationTranscript, summary *model.ConversationSummary) error {
	if svc.client == nil {
		return nil
	}

	record := map[string]interface{}{
		"transcript": transcript,
		"summary":    summary,
	}
	raw, err := sonic.Marshal(record)
	if err != nil {
		return shared.NewStoreError("archive_encode", svc.bucket, transcript.ConversationID, err)
	}

	objectName := fmt.Sprintf("transcripts/%s.json", transcript.ConversationID)
	_, err = svc.client.PutObject(ctx, svc.bucket, objectName, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return shared.NewStoreError("archive_put", svc.bucket, transcript.ConversationID, err)
	}

	log.WithFields(log.Fields{
		"conversation_id": transcript.ConversationID,
		"object":          objectName,
	}).Info("Conversation archived")
	return nil
}
