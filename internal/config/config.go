package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	Mongo struct {
		URI      string
		Database string
	}

	// Knowledge — настройки поиска по базе знаний. IndexPath указывает на
	// коллекцию, сохранённую командой index-docs; EmbeddingModel и APIKey —
	// для провайдера эмбеддингов.
	Knowledge struct {
		IndexPath      string
		EmbeddingModel string
		OpenAIAPIKey   string
	}

	// ScoreThreshold — порог релевантности основного потока /chat (ниже —
	// создаём тикет). LowScoreThreshold — порог легаси-потока /ask (ниже —
	// просим клиента отдельно залогировать вопрос). Пороги независимы.
	ScoreThreshold    float64
	LowScoreThreshold float64

	KafkaBrokers     []string
	KafkaTopicTicket string
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:           getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:          firstEnv("APP_PORT", "HTTP_PORT", "8098"),
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ScoreThreshold:    getEnvFloat("SCORE_THRESHOLD", 0.5),
		LowScoreThreshold: getEnvFloat("LOW_SCORE_THRESHOLD", 0.1),
		KafkaTopicTicket:  getEnv("KAFKA_TOPIC_TICKET", ""),
	}
	cfg.Mongo.URI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	cfg.Mongo.Database = getEnv("MONGO_DATABASE", "escalation_service")
	cfg.Knowledge.IndexPath = getEnv("KNOWLEDGE_INDEX_PATH", "data/knowledge.gob.gz")
	cfg.Knowledge.EmbeddingModel = getEnv("EMBEDDING_MODEL", "text-embedding-3-small")
	cfg.Knowledge.OpenAIAPIKey = getEnv("OPENAI_API_KEY", "")
	cfg.KafkaBrokers = splitBrokers(getEnv("KAFKA_BROKERS", ""))
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		return errors.New("config: MONGO_URI and MONGO_DATABASE are required")
	}
	if c.AppEnv == "production" && c.Knowledge.OpenAIAPIKey == "" {
		return errors.New("config: in production OPENAI_API_KEY is required")
	}
	if c.ScoreThreshold <= 0 || c.ScoreThreshold > 1 {
		return errors.New("config: SCORE_THRESHOLD must be in (0, 1]")
	}
	if c.LowScoreThreshold <= 0 || c.LowScoreThreshold > 1 {
		return errors.New("config: LOW_SCORE_THRESHOLD must be in (0, 1]")
	}
	return nil
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitBrokers разбивает строку брокеров "host1:9092,host2:9092" на слайс.
func splitBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
