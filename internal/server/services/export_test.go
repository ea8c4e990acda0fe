package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	sc "github.com/dmitrijs2005/gophagenda/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportConfig() *sc.Config {
	return &sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "agenda-exports",
		ExportURLTTL:   5 * time.Minute,
	}
}

type s3Calls struct {
	bucket, key string
	body        []byte
	presigned   bool
}

func stubS3(t *testing.T, putErr, presignErr error) *s3Calls {
	t.Helper()
	origLoad, origNew, origPut, origPre, origGet := loadDefaultAWSConfig, newS3ClientFromConfig, putObject, newS3PresignClient, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig, newS3ClientFromConfig, putObject, newS3PresignClient, presignGetObject = origLoad, origNew, origPut, origPre, origGet
	})

	calls := &s3Calls{}
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{Region: lo.Region}, nil
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		calls.bucket, calls.key = aws.ToString(in.Bucket), aws.ToString(in.Key)
		b, err := io.ReadAll(in.Body)
		require.NoError(t, err)
		calls.body = b
		return putErr
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		calls.presigned = true
		assert.Equal(t, calls.key, aws.ToString(in.Key))
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		assert.Equal(t, 5*time.Minute, po.Expires)
		if presignErr != nil {
			return nil, presignErr
		}
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/" + calls.bucket + "/" + calls.key + "?X-Amz-Signature=x"}, nil
	}
	return calls
}

func exportStore() *store {
	st := newStore()
	st.accounts[aliceHashed] = *newAccount(aliceHashed)
	return st
}

func TestExport_UploadsBundleAndPresigns(t *testing.T) {
	calls := stubS3(t, nil, nil)
	svc := NewExportService(nil, &fakeManager{exportStore()}, exportConfig())

	url, err := svc.Export(context.Background(), aliceHashed)
	require.NoError(t, err)

	assert.Equal(t, "agenda-exports", calls.bucket)
	assert.True(t, strings.HasPrefix(calls.key, "exports/"+aliceHashed+"/"))
	assert.True(t, strings.HasSuffix(calls.key, ".json"))
	assert.True(t, calls.presigned)
	assert.Contains(t, url, calls.key)

	var b Bundle
	require.NoError(t, json.Unmarshal(calls.body, &b))
	assert.Equal(t, aliceHashed, b.UsernameHashed)
	assert.Equal(t, privateKey, b.PrivateKeyEncryptedArmored)
	assert.Equal(t, message, b.MetadataEncryptedSigned)
	assert.NotNil(t, b.Requests)
}

func TestExport_Disabled(t *testing.T) {
	cfg := exportConfig()
	cfg.S3Bucket = ""
	svc := NewExportService(nil, &fakeManager{exportStore()}, cfg)

	_, err := svc.Export(context.Background(), aliceHashed)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestExport_Errors(t *testing.T) {
	t.Run("unknown account", func(t *testing.T) {
		stubS3(t, nil, nil)
		svc := NewExportService(nil, &fakeManager{newStore()}, exportConfig())
		_, err := svc.Export(context.Background(), aliceHashed)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("upload fails", func(t *testing.T) {
		calls := stubS3(t, errors.New("bucket gone"), nil)
		svc := NewExportService(nil, &fakeManager{exportStore()}, exportConfig())
		_, err := svc.Export(context.Background(), aliceHashed)
		assert.ErrorContains(t, err, "upload bundle")
		assert.False(t, calls.presigned)
	})

	t.Run("presign fails", func(t *testing.T) {
		stubS3(t, nil, errors.New("clock skew"))
		svc := NewExportService(nil, &fakeManager{exportStore()}, exportConfig())
		_, err := svc.Export(context.Background(), aliceHashed)
		assert.ErrorContains(t, err, "presign bundle")
	})

	t.Run("aws config fails", func(t *testing.T) {
		stubS3(t, nil, nil)
		loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
			return aws.Config{}, errors.New("no creds")
		}
		svc := NewExportService(nil, &fakeManager{exportStore()}, exportConfig())
		_, err := svc.Export(context.Background(), aliceHashed)
		assert.EqualError(t, err, "no creds")
	})
}
