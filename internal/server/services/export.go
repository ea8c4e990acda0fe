package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	sc "github.com/dmitrijs2005/gophagenda/internal/server/config"
	"github.com/dmitrijs2005/gophagenda/internal/server/models"
	"github.com/dmitrijs2005/gophagenda/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Bundle is the export document: the caller's ciphertext rows, ready to be
// re-imported or decrypted offline with the account password.
type Bundle struct {
	UsernameHashed             string               `json:"usernameHashed"`
	ExportedAt                 time.Time            `json:"exportedAt"`
	PrivateKeyEncryptedArmored string               `json:"privateKeyEncryptedArmored"`
	PublicKeyArmored           string               `json:"publicKeyArmored"`
	MetadataEncryptedSigned    string               `json:"metadataEncryptedSigned"`
	Requests                   []*models.Invitation `json:"requests"`
	Responses                  []*models.Invitation `json:"responses"`
}

// ExportService writes account bundles to S3-compatible storage and hands
// out short-lived presigned download links.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *ExportService {
	return &ExportService{db: db, repomanager: m, config: cfg}
}

func exportKey(usernameHashed string, now time.Time) string {
	return fmt.Sprintf("exports/%s/%d/%02d/%02d/%s.json", usernameHashed, now.Year(), now.Month(), now.Day(), uuid.NewString())
}

func (s *ExportService) collect(ctx context.Context, usernameHashed string) (*Bundle, error) {
	accounts := s.repomanager.Accounts(s.db)
	invitations := s.repomanager.Invitations(s.db)

	b := &Bundle{UsernameHashed: usernameHashed, ExportedAt: time.Now().UTC()}
	var err error
	if b.PrivateKeyEncryptedArmored, err = accounts.PrivateKeyEncryptedArmored(ctx, usernameHashed); err != nil {
		return nil, err
	}
	if b.PublicKeyArmored, err = accounts.PublicKeyArmored(ctx, usernameHashed); err != nil {
		return nil, err
	}
	if b.MetadataEncryptedSigned, err = accounts.Metadata(ctx, usernameHashed); err != nil {
		return nil, err
	}
	if b.Requests, err = invitations.Requests(ctx, usernameHashed); err != nil {
		return nil, err
	}
	if b.Responses, err = invitations.Responses(ctx, usernameHashed); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *ExportService) s3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Export uploads the caller's bundle and returns a presigned GET URL.
// It returns ErrorNotFound when export is not configured.
func (s *ExportService) Export(ctx context.Context, usernameHashed string) (string, error) {
	if !s.config.ExportEnabled() {
		return "", common.ErrorNotFound
	}

	bundle, err := s.collect(ctx, usernameHashed)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("marshal bundle: %w", err)
	}

	client, err := s.s3Client(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := exportKey(usernameHashed, bundle.ExportedAt)

	if err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return "", fmt.Errorf("upload bundle: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.ExportURLTTL))
	if err != nil {
		return "", fmt.Errorf("presign bundle: %w", err)
	}
	return req.URL, nil
}
