package knowledge

import (
	"context"
	"fmt"
	"sort"

	chromem "github.com/philippgille/chromem-go"
)

const (
	collectionName  = "katalyst-index"
	defaultCategory = "katalyst_doc"

	// topK — сколько кандидатов запрашиваем у векторного стора до реранка.
	topK = 5
)

// Hit — один найденный фрагмент базы знаний.
type Hit struct {
	ChunkText string
	Category  string
	Score     float64
}

// Searcher — контракт поискового клиента для движка эскалации.
type Searcher interface {
	Search(ctx context.Context, question string) ([]Hit, error)
}

// Client — клиент поиска по базе знаний: векторный запрос top-K, затем
// реранк по полю chunk_text до лучшего кандидата.
type Client struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

func NewClient(embedder Embedder) (*Client, error) {
	db := chromem.NewDB()
	ef := toChromemFunc(embedder)
	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Client{db: db, collection: col, embedFunc: ef}, nil
}

// Search возвращает кандидатов в порядке убывания итогового скора.
// Пустая коллекция — пустой слайс без ошибки (не считается сбоем).
func (c *Client) Search(ctx context.Context, question string) ([]Hit, error) {
	limit := topK
	count := c.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem-go требует nResults <= размера коллекции.
	if limit > count {
		limit = count
	}

	results, err := c.collection.Query(ctx, question, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("knowledge query: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			ChunkText: r.Content,
			Category:  r.Metadata["category"],
			Score:     rerankScore(question, r.Content, float64(r.Similarity)),
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// Index добавляет фрагменты в коллекцию. Идентификаторы — katalyst_chunk_<n>,
// нумерация продолжается с текущего размера коллекции.
func (c *Client) Index(ctx context.Context, chunks []string) error {
	if len(chunks) == 0 {
		return nil
	}
	base := c.collection.Count()
	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:       fmt.Sprintf("katalyst_chunk_%d", base+i+1),
			Content:  chunk,
			Metadata: map[string]string{"category": defaultCategory},
		}
	}
	return c.collection.AddDocuments(ctx, docs, 1)
}

func (c *Client) Count() int {
	return c.collection.Count()
}

// Persist сохраняет коллекцию в файл (используется командой index-docs).
func (c *Client) Persist(path string) error {
	return c.db.ExportToFile(path, true, "")
}

// Load восстанавливает коллекцию из файла, созданного Persist.
func (c *Client) Load(path string) error {
	if err := c.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import knowledge index: %w", err)
	}
	col := c.db.GetCollection(collectionName, c.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	c.collection = col
	return nil
}
