package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intern_certify_v1/certificate"
	"intern_certify_v1/config"
	"intern_certify_v1/controller"
	"intern_certify_v1/mailer"
	"intern_certify_v1/middleware"
	"intern_certify_v1/notifier"
	"intern_certify_v1/queue"
	"intern_certify_v1/repository"
	"intern_certify_v1/routes"
	"intern_certify_v1/scheduler"
	"intern_certify_v1/storage"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.LoadConfig()
	middleware.InitAuth(cfg.SecretKey, cfg.SessionTTL)
	if cfg.SecretKey == "" {
		log.Println("Warning: SECRET_KEY is not set, logins will fail")
	}

	if err := middleware.ConnectDB(cfg); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	db := middleware.DBConn

	interns := repository.NewInternRepository(db, cfg.InternCodePrefix)
	coordinators := repository.NewCoordinatorRepository(db)
	templates := repository.NewTemplateRepository(db)
	emailTemplates := repository.NewEmailTemplateRepository(db)
	activity := repository.NewActivityRepository(db)
	admins := repository.NewAdminRepository(db)

	renderer := certificate.NewChromeRenderer(certificate.ChromeOptions{
		OutputDir: cfg.CertificatesDir,
		PoolSize:  cfg.RendererPoolSize,
		Timeout:   cfg.RenderTimeout,
		ExecPath:  cfg.ChromePath,
	})
	defer renderer.Close()

	var sender certificate.Mailer
	pool, err := mailer.NewSMTPPool(cfg)
	if err != nil {
		log.Printf("[MAILER] disabled: %v", err)
	} else {
		defer pool.Close()
		sender = mailer.NewSender(emailTemplates, pool, cfg.MailFromName, cfg.MailFrom, cfg.SMTPTimeout)
	}

	issuer := certificate.NewIssuer(interns, templates, renderer, sender, certificate.Options{
		FrontendURL: cfg.FrontendURL,
		Location:    cfg.Location(),
	})

	uploader, err := storage.NewCloudinaryUploader(cfg.CloudinaryURL)
	if err != nil {
		log.Printf("[UPLOAD] disabled: %v", err)
	} else if uploader != nil {
		issuer.WithUploader(uploader)
	}

	if producer := queue.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaUsername, cfg.KafkaPassword); producer != nil {
		defer producer.Close()
		issuer.WithPublisher(producer)
	}

	fbApp, err := config.InitializeFirebase(cfg.FirebaseCredentials)
	if err != nil {
		log.Printf("[PUSH] disabled: %v", err)
	} else if fbApp != nil {
		pusher, err := notifier.NewFirebasePusher(context.Background(), fbApp, coordinators)
		if err != nil {
			log.Printf("[PUSH] disabled: %v", err)
		} else {
			issuer.WithPusher(pusher)
		}
	}

	jobOpts := scheduler.Options{
		Schedule: cfg.CompletionSchedule,
		Location: cfg.Location(),
	}
	var resetCodes controller.ResetCodeStore = controller.NewMemoryResetCodes()
	rdb, err := middleware.InitRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Printf("[SWEEP] redis unavailable, running without a distributed lock: %v", err)
	} else if rdb != nil {
		defer rdb.Close()
		jobOpts.Locker = scheduler.NewRedisLocker(rdb, "intern-certify:completion-sweep", time.Hour)
		resetCodes = controller.NewRedisResetCodes(rdb)
	}
	job := scheduler.NewCompletionJob(interns, issuer, jobOpts)
	if err := job.Start(); err != nil {
		log.Fatalf("Scheduler failed to start: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:      "intern-certify",
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	corsConfig := cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization," + middleware.RequestIDHeader,
	}
	if cfg.FrontendURL != "" {
		corsConfig.AllowOrigins = cfg.FrontendURL
		corsConfig.AllowCredentials = true
	}
	app.Use(cors.New(corsConfig))

	routes.AppRoutes(app, routes.Handlers{
		Auth:            controller.NewAuthHandler(coordinators, admins, cfg.CookieSecure),
		Interns:         controller.NewInternHandler(interns, activity, issuer),
		Activity:        controller.NewActivityHandler(activity),
		Coordinators:    controller.NewCoordinatorHandler(coordinators),
		Templates:       controller.NewTemplateHandler(templates, issuer),
		AdminInterns:    controller.NewAdminInternHandler(interns),
		Public:          controller.NewPublicHandler(interns, templates, issuer, cfg.CertificatesDir),
		Sweep:           controller.NewSweepHandler(job),
		Reset:           controller.NewPasswordResetHandler(coordinators, resetCodes, sender),
		CertificatesDir: cfg.CertificatesDir,
	})

	go func() {
		log.Printf("Server is running on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	job.Stop()
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}
