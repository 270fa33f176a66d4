package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/psds-microservice/escalation-service/internal/config"
	"github.com/psds-microservice/escalation-service/internal/database"
	"github.com/psds-microservice/escalation-service/internal/handler"
	"github.com/psds-microservice/escalation-service/internal/kafka"
	"github.com/psds-microservice/escalation-service/internal/knowledge"
	"github.com/psds-microservice/escalation-service/internal/router"
	"github.com/psds-microservice/escalation-service/internal/service"
	"github.com/psds-microservice/escalation-service/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

// API приложение: HTTP сервер и процесс-scoped хендлы внешних сервисов
// (Mongo, поисковый индекс, Kafka). Конструируются один раз на старте и
// передаются в компоненты явно.
type API struct {
	cfg      *config.Config
	httpSrv  *http.Server
	mongoCli *mongo.Client
	producer *kafka.Producer
}

// NewAPI создаёт приложение для режима api.
func NewAPI(ctx context.Context, cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	mongoCli, err := database.Open(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	db := mongoCli.Database(cfg.Mongo.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	embedder := knowledge.NewOpenAIEmbedder(cfg.Knowledge.OpenAIAPIKey, cfg.Knowledge.EmbeddingModel)
	search, err := knowledge.NewClient(embedder)
	if err != nil {
		return nil, fmt.Errorf("knowledge: %w", err)
	}
	if _, err := os.Stat(cfg.Knowledge.IndexPath); err == nil {
		if err := search.Load(cfg.Knowledge.IndexPath); err != nil {
			return nil, fmt.Errorf("knowledge: %w", err)
		}
		log.Printf("knowledge: loaded %d chunks from %s", search.Count(), cfg.Knowledge.IndexPath)
	} else {
		log.Printf("knowledge: index %s not found, every question will escalate (run index-docs)", cfg.Knowledge.IndexPath)
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)

	ticketStore := store.NewTicketStore(db)
	logStore := store.NewLowScoreLogStore(db)

	escalationSvc := service.NewEscalationService(ticketStore, search, producer, cfg.ScoreThreshold)
	ticketSvc := service.NewTicketService(ticketStore, producer)
	lowScoreSvc := service.NewLowScoreService(search, logStore, cfg.LowScoreThreshold)

	h := router.Handlers{
		Chat:     handler.NewChatHandler(escalationSvc),
		Ticket:   handler.NewTicketHandler(ticketSvc),
		LowScore: handler.NewLowScoreHandler(lowScoreSvc),
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		httpSrv:  httpSrv,
		mongoCli: mongoCli,
		producer: producer,
	}, nil
}

// Run запускает HTTP сервер, блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.httpSrv.Addr)
	log.Printf("  Swagger UI:    %s/swagger", base)
	log.Printf("  Swagger spec:  %s/swagger/openapi.json", base)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  Chat:          POST %s/chat", base)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		log.Printf("kafka: close: %v", err)
	}
	if err := a.mongoCli.Disconnect(shutdownCtx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}
