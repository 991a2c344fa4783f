package boot

import (
	"context"
	"eventpass/src/common"
	"eventpass/src/config"
	"eventpass/src/db"
	"eventpass/src/lib"
	awslib "eventpass/src/lib/aws"
	"eventpass/src/lib/gateway"
	"eventpass/src/lib/mailer"
	"eventpass/src/lib/qrtoken"
	"eventpass/src/models"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(models.All()...)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// Services is everything the HTTP layer and background jobs call into.
type Services struct {
	Store      *db.Store
	Gateway    gateway.Gateway
	Signer     *qrtoken.Signer
	Tickets    *common.TicketIssuer
	Reconciler *common.Reconciler
	Verifier   *common.Verifier
	Bookings   *common.BookingService
	Sweep      *common.AbsentSweep
	Redis      redis.Cmdable
}

func NewServices(ctx context.Context, cfg config.App, gdb *gorm.DB) (*Services, error) {
	signer, err := NewSigner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gw, err := gateway.New(gateway.Config{
		Provider:       cfg.Gateway,
		BaseURL:        cfg.GatewayBaseURL,
		KeyID:          cfg.GatewayKeyID,
		KeySecret:      cfg.GatewayKeySecret,
		WebhookSecret:  cfg.GatewayWebhookSecret,
		StripeKey:      cfg.StripeSecretKey,
		PublishableKey: cfg.StripePublishableKey,
		StripeWebhook:  cfg.StripeWebhookSecret,
	})
	if err != nil {
		return nil, err
	}

	var rdb redis.Cmdable
	var sessions common.ScanSessions
	if c := lib.GetRedisClient(); c != nil {
		rdb = c
		sessions = lib.NewScanSessionStore(c, cfg.ScanSessionTTL)
	}

	store := db.NewStore(gdb)
	tickets := common.NewTicketIssuer(store, signer, NewRenderer(cfg))
	verifier := common.NewVerifier(store, signer, sessions)
	if pc := lib.GetPusherClient(); pc != nil {
		verifier.WithFeed(lib.NewPusherFeed(pc))
	}
	return &Services{
		Store:   store,
		Gateway: gw,
		Signer:  signer,
		Tickets: tickets,
		Reconciler: common.NewReconciler(store, gw, tickets, common.ReconcilerOptions{
			GatewayTimeout: cfg.GatewayTimeout,
			Notifier: &common.MailNotifier{
				Mailer:   mailer.New(cfg),
				Events:   store,
				From:     cfg.MailFrom,
				FromName: cfg.MailFromName,
				BaseURL:  cfg.AppHost,
			},
		}),
		Verifier: verifier,
		Bookings: common.NewBookingService(store),
		Sweep:    common.NewAbsentSweep(verifier, rdb, 5*time.Minute),
		Redis:    rdb,
	}, nil
}

// NewSigner builds the ticket signer. Secrets come from Secrets Manager when
// QR_SECRETS_ID is set and from the environment otherwise.
func NewSigner(ctx context.Context, cfg config.App) (*qrtoken.Signer, error) {
	secrets := cfg.QRSecrets()
	if cfg.QRSecretsID != "" {
		loaded, err := lib.LoadQRSecrets(ctx, lib.AWSGetSecretsManagerClient(), cfg.QRSecretsID)
		if err != nil {
			return nil, err
		}
		secrets = loaded
	}
	return qrtoken.NewSigner(secrets, cfg.QRMaxAge)
}

func NewRenderer(cfg config.App) common.QRRenderer {
	if cfg.AssetStore == "s3" {
		return &awslib.S3QRStore{
			Client:  lib.AWSGetS3Client(),
			Bucket:  cfg.S3Bucket,
			TempDir: cfg.AssetDir,
		}
	}
	return &lib.LocalQRStore{Dir: cfg.AssetDir}
}

func InitScheduler(sweep *common.AbsentSweep, every time.Duration) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	if _, err := sweep.Schedule(every); err != nil {
		log.Printf("Error scheduling mark-absent sweep: %s\n", err.Error())
		return
	}
	log.Println("Jobs in queue:", len(sched.Jobs()))
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}

// InitEmailWorker delivers ticket e-mails queued by the sqs mailer.
func InitEmailWorker(ctx context.Context, cfg config.App) {
	if !cfg.EmailWorker {
		return
	}
	awslib.NewSQSConsumer(lib.AWSGetSQSClient(), cfg.EmailQueue, mailer.DeliverQueued).Listen(ctx)
}
