package main

import (
	"log"
	"os"

	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/oxydem/authgate/adapters/directory"
	"github.com/oxydem/authgate/adapters/events"
	"github.com/oxydem/authgate/adapters/store"
	"github.com/oxydem/authgate/adapters/tokenizer"
	"github.com/oxydem/authgate/config"
	"github.com/oxydem/authgate/ports"
	"github.com/oxydem/authgate/service"
	"github.com/oxydem/authgate/transport/http"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := watermill.NewStdLogger(false, false)

	// Generate a new ECDSA key pair (you would normally load this from somewhere secure)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}

	sealKey, err := sealKeyFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to load seal key: %v", err)
	}
	sealer, err := service.NewSealer(sealKey)
	if err != nil {
		log.Fatalf("Failed to create sealer: %v", err)
	}

	var (
		kvStore  ports.Store
		eventPub ports.EventPublisher
	)
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient := redis.NewClient(opts)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			logger,
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}

		kvStore = store.NewRedisStore(redisClient)
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		kvStore = store.NewMemoryStore()
		eventPub = events.NewWatermillPublisher(gochannel.NewGoChannel(gochannel.Config{}, logger))
	}

	users := directory.NewMemoryDirectory()
	for _, seed := range cfg.Users {
		if err := users.AddUser(seed.ID, seed.Email, seed.Name, seed.Password); err != nil {
			log.Fatalf("Failed to seed user %s: %v", seed.Email, err)
		}
	}

	tokens := tokenizer.NewJWTTokenizer(privateKey, cfg.Auth.Issuer, cfg.TokenTTL())

	authService := service.NewAuthService(
		service.AuthServiceConfig{
			Issuer:            cfg.Auth.Issuer,
			MaxLoginAttempts:  cfg.Auth.MaxLoginAttempts,
			LoginWindow:       cfg.LoginWindow(),
			PendingSessionTTL: cfg.PendingSessionTTL(),
		},
		users,
		tokens,
		eventPub,
		kvStore,
		sealer,
		logger,
	)

	// Setup Gin router
	router := http.SetupRouter(authService)

	// Start server
	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func sealKeyFromConfig(cfg *config.Config) ([]byte, error) {
	if cfg.Auth.SealKey != "" {
		return cfg.SealKeyBytes()
	}
	key := make([]byte, service.SealKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
