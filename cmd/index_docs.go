package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/psds-microservice/escalation-service/internal/config"
	"github.com/psds-microservice/escalation-service/internal/knowledge"
	"github.com/spf13/cobra"
)

var indexDocsCmd = &cobra.Command{
	Use:   "index-docs <file>",
	Short: "Chunk a knowledge-base document, embed it and persist the search index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexDocs,
}

// Офлайновая загрузка базы знаний: режем документ на фрагменты эвристикой
// «заголовок или вопрос начинает новый фрагмент», эмбеддим и сохраняем
// коллекцию в файл, который подхватит режим api.
func runIndexDocs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Knowledge.OpenAIAPIKey == "" {
		return fmt.Errorf("index-docs: OPENAI_API_KEY is required")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	chunks := knowledge.ChunkText(string(data))
	if len(chunks) == 0 {
		return fmt.Errorf("index-docs: no chunks extracted from %s", args[0])
	}
	log.Printf("index-docs: extracted %d chunks from %s", len(chunks), args[0])

	embedder := knowledge.NewOpenAIEmbedder(cfg.Knowledge.OpenAIAPIKey, cfg.Knowledge.EmbeddingModel)
	client, err := knowledge.NewClient(embedder)
	if err != nil {
		return fmt.Errorf("knowledge: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()
	if err := client.Index(ctx, chunks); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}

	if dir := filepath.Dir(cfg.Knowledge.IndexPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}
	if err := client.Persist(cfg.Knowledge.IndexPath); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	log.Printf("index-docs: wrote %d chunks to %s", client.Count(), cfg.Knowledge.IndexPath)
	return nil
}
