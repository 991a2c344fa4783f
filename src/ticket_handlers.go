package main

import (
	"context"
	"errors"
	"eventpass/src/config"
	"eventpass/src/lib"
	awslib "eventpass/src/lib/aws"
	"eventpass/src/models"
	"eventpass/src/types"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type ticketFinder interface {
	GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error)
}

// assetLocation is either a local file or a URL the client is sent to.
type assetLocation struct {
	File string
	URL  string
}

type assetLinker interface {
	Locate(ctx context.Context, t *models.Ticket) (*assetLocation, error)
}

func newAssetLinker(cfg config.App, rdb redis.Cmdable) assetLinker {
	if cfg.AssetStore == "s3" {
		return &s3AssetLinker{
			client: lib.AWSGetS3Client(),
			bucket: cfg.S3Bucket,
			rdb:    rdb,
			ttl:    15 * time.Minute,
		}
	}
	return localAssetLinker{}
}

type localAssetLinker struct{}

func (localAssetLinker) Locate(_ context.Context, t *models.Ticket) (*assetLocation, error) {
	return &assetLocation{File: t.QRAssetPath}, nil
}

// s3AssetLinker presigns QR objects and caches the URL in redis for half
// its lifetime.
type s3AssetLinker struct {
	client *s3.Client
	bucket string
	rdb    redis.Cmdable
	ttl    time.Duration
}

func (l *s3AssetLinker) Locate(ctx context.Context, t *models.Ticket) (*assetLocation, error) {
	key := fmt.Sprintf("ticket:qr:%s", t.TicketCode)
	if l.rdb != nil {
		url, err := l.rdb.Get(ctx, key).Result()
		if err == nil {
			return &assetLocation{URL: url}, nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("[tickets] redis lookup %s: %s\n", key, err.Error())
		}
	}
	url, err := awslib.S3PresignAsset(ctx, l.client, l.bucket, t.QRAssetPath, l.ttl)
	if err != nil {
		return nil, err
	}
	if l.rdb != nil {
		if err := l.rdb.SetEx(ctx, key, url, l.ttl/2).Err(); err != nil {
			log.Printf("[tickets] redis cache %s: %s\n", key, err.Error())
		}
	}
	return &assetLocation{URL: url}, nil
}

func ticketHandlers(g *gin.RouterGroup, s *server) *gin.RouterGroup {
	g.GET("/tickets/:code/qr", func(ctx *gin.Context) {
		var params types.TicketCodeParams
		if err := ctx.ShouldBindUri(&params); err != nil {
			abortWithBindError(ctx, err)
			return
		}
		ticket, err := s.tickets.GetTicketByCode(ctx.Request.Context(), params.Code)
		if err != nil {
			abortWithError(ctx, err)
			return
		}
		loc, err := s.assets.Locate(ctx.Request.Context(), ticket)
		if err != nil {
			log.Printf("[tickets] locate QR for %s: %s\n", ticket.TicketCode, err.Error())
			abortWithError(ctx, err)
			return
		}
		if loc.URL != "" {
			ctx.Redirect(http.StatusFound, loc.URL)
			return
		}
		ctx.File(loc.File)
	})
	return g
}
