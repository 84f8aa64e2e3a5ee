package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	config "voice-order/configs"
	database "voice-order/internal/pkg/db"
	"voice-order/internal/pkg/logger"
	"voice-order/internal/pkg/rabbitmq"
	"voice-order/internal/pkg/redis"
	s3aws "voice-order/internal/pkg/storage/s3"
	"voice-order/internal/pkg/validation"
	serverApp "voice-order/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger.Setup()

	env, err := config.GetEnv()
	if err != nil {
		logger.Error.Println("Error getting environment", err)
		panic(err)
	}
	gin.SetMode(env.AppEnv.GinMode())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Setup Redis
	redisClient, err := setupRedis(ctx, env)
	if err != nil {
		logger.Error.Println("Error setting up Redis", err)
		return
	}

	// Setup RabbitMQ
	rabbit, err := setupRabbitMQ(ctx, env)
	if err != nil {
		logger.Error.Println("Error setting up RabbitMQ", err)
		_ = redisClient.Close()
		return
	}

	// Setup Database
	db, err := setupDB(env, redisClient)
	if err != nil {
		logger.Error.Println("Error setting up Database", err)
		_ = rabbit.Close()
		_ = redisClient.Close()
		return
	}

	// Setup S3 (optional)
	storage := setupS3(ctx, env, redisClient)

	// Setup Server
	setupServer(&config.SetupServerDto{
		Ctx:    ctx,
		Cancel: cancel,
		Env:    env,
		Db:     db,
		Rds:    redisClient,
		Rb:     rabbit,
		S3:     storage,
	})
}

func setupRedis(ctx context.Context, env *config.Config) (*redis.Client, error) {
	return redis.Setup(ctx, &redis.Config{
		Host:     env.RedisHost,
		Username: env.RedisUser,
		Port:     env.RedisPort,
		Password: env.RedisPass,
		PoolSize: env.RedisPoolSize,
	})
}

func setupRabbitMQ(ctx context.Context, env *config.Config) (*rabbitmq.ConnectionManager, error) {
	return rabbitmq.NewConnectionManager(ctx, &rabbitmq.Config{
		Username: env.RabbitUser,
		Password: env.RabbitPass,
		Host:     env.RabbitHost,
		Port:     env.RabbitPort,
	})
}

func setupDB(env *config.Config, rds *redis.Client) (*database.Database, error) {
	return database.Setup(&database.Config{
		Host:      env.DBHost,
		Port:      env.DBPort,
		User:      env.DBUser,
		Password:  env.DBPass,
		Database:  env.DBName,
		SSLMode:   "disable",
		Driver:    database.DriverEnum(env.DBDriver),
		Cache:     env.DBCache,
		Rds:       rds,
		CacheTime: time.Minute,
	})
}

// setupS3 returns nil when no bucket is configured or the bucket cannot be
// reached; recordings are then simply not archived.
func setupS3(ctx context.Context, env *config.Config, rds redis.IRedis) s3aws.Is3 {
	if env.AWSBucketName == "" {
		logger.Info.Println("AWS_BUCKET_NAME not set, recording archive disabled")
		return nil
	}

	client, err := s3aws.NewS3Client(ctx, s3aws.S3Config{
		AWSRegion:          env.AWSRegion,
		AWSAccessKeyID:     env.AWSAccessKeyID,
		AWSSecretAccessKey: env.AWSSecretAccessKey,
	}, env.AWSBucketName, rds)
	if err != nil {
		logger.Warning.Printf("Recording archive disabled: %v", err)
		return nil
	}
	return client
}

func setupServer(payload *config.SetupServerDto) {
	env := payload.Env
	ctx := payload.Ctx

	defer func() {
		payload.Cancel()
		if err := payload.Rb.Close(); err != nil {
			logger.Error.Println("Error closing RabbitMQ", err)
		}
		if err := payload.Db.Close(); err != nil {
			logger.Error.Println("Error closing Database", err)
		}
		_ = payload.Rds.Close()
	}()

	if err := validation.Setup(); err != nil {
		logger.Error.Println("Failed to setup validation")
		panic(err)
	}

	pool, err := serverApp.NewTaskPool(env.WorkerPool)
	if err != nil {
		logger.Error.Println("Failed to setup task pool", err)
		return
	}
	defer pool.Release()

	publisher, err := rabbitmq.NewPublisher(ctx, payload.Rb)
	if err != nil {
		logger.Warning.Printf("Transaction audit disabled: %v", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	services := serverApp.NewServices(payload, publisher, pool)

	e := gin.New()
	e.Use(gin.Recovery())
	serverApp.Setup(e, payload, services)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", env.AppPort),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.HTTP.Println("========= Server Started =========")
		logger.HTTP.Println("=========", env.AppPort, "=========")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if env.AppEnv.RunsWorkers() {
		g.Go(func() error {
			return serverApp.InitWorker(gctx, payload.Rb, services.Transaction)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.HTTP.Println("========= Server Shutting Down =========")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error.Println(err)
	}
}
