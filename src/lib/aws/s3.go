package aws

import (
	"context"
	"eventpass/src/lib"
	"fmt"
	"log"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func S3UploadAsset(ctx context.Context, client *s3.Client, bucket, key, f string) error {
	file, err := os.Open(f)
	if err != nil {
		log.Printf("Could not open file to upload: %s\n", err.Error())
		return err
	}
	defer file.Close()
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		log.Printf("Could not put object to S3 bucket: %s\n", err.Error())
		return err
	}
	err = s3.NewObjectExistsWaiter(client).Wait(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, time.Minute)
	if err != nil {
		log.Printf("Failed attempt to wait for object %s to exist: %s\n", key, err.Error())
		return err
	}
	log.Printf("Added object '%s' to bucket '%s'", key, bucket)
	return nil
}

func S3PresignAsset(ctx context.Context, client *s3.Client, bucket, key string, ttl time.Duration) (string, error) {
	pre := s3.NewPresignClient(client)
	r, err := pre.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = ttl
	})
	if err != nil {
		log.Printf("Could not generate presigned URL for object [%s]: %s\n", key, err.Error())
		return "", err
	}
	return r.URL, nil
}

// S3QRStore renders QR images to a scratch directory and keeps them in S3.
// The returned asset path is the object key.
type S3QRStore struct {
	Client  *s3.Client
	Bucket  string
	TempDir string
}

func (s *S3QRStore) Render(ctx context.Context, ticketCode, token string) (string, error) {
	if s.Client == nil || s.Bucket == "" {
		return "", fmt.Errorf("s3 asset store is not configured")
	}
	name := lib.QRAssetName(ticketCode)
	local, err := lib.RenderQRFile(s.TempDir, name, token)
	if err != nil {
		return "", err
	}
	defer os.Remove(local)
	key := path.Join("tickets", name)
	if err := S3UploadAsset(ctx, s.Client, s.Bucket, key, local); err != nil {
		return "", err
	}
	return key, nil
}
