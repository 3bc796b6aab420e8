// Package repository implements Postgres persistence for legal document
// chunks, including pgvector similarity search and full-text keyword search.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/legalmind/legalmind/internal/domain"
	"github.com/legalmind/legalmind/internal/service"
	"github.com/pgvector/pgvector-go"
)

const chunkColumns = "id, document_id, text, chunk_index, filename, document_type, doc_date, parties, client_id"

// ChunkRepository handles persistence and search of legal document chunks.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// SearchSemantic runs cosine-distance ANN search over chunk embeddings.
// Filters are applied in the WHERE clause so they narrow the candidate set
// before scoring, not after.
func (r *ChunkRepository) SearchSemantic(ctx context.Context, embedding []float32, filters service.SearchFilters, limit int) ([]*domain.Chunk, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + chunkColumns + `,
		       1.0 / (1.0 + (embedding <=> $1)) AS score
		FROM legal_chunks
		WHERE embedding IS NOT NULL`
	args := []interface{}{pgvector.NewVector(embedding)}

	query, args = appendFilters(query, args, filters)
	query += fmt.Sprintf(" ORDER BY score DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows, true)
}

// SearchKeyword runs websearch-syntax full-text search over chunk text. The
// result order carries no relevance guarantee; rank fusion owns ordering.
func (r *ChunkRepository) SearchKeyword(ctx context.Context, queryText string, filters service.SearchFilters, limit int) ([]*domain.Chunk, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + chunkColumns + `
		FROM legal_chunks
		WHERE text_search @@ websearch_to_tsquery('english', $1)`
	args := []interface{}{queryText}

	query, args = appendFilters(query, args, filters)
	query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows, false)
}

// GetChunk returns the chunk with the given id, or domain.ErrChunkNotFound.
func (r *ChunkRepository) GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+chunkColumns+` FROM legal_chunks WHERE id = $1`, chunkID)

	chunk, err := scanChunk(row, false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrChunkNotFound
	}
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// GetByIDs returns the chunks matching ids, in no particular order. Missing
// ids are silently absent from the result.
func (r *ChunkRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Chunk, error) {
	if len(ids) == 0 {
		return []*domain.Chunk{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+chunkColumns+` FROM legal_chunks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows, false)
}

// FindDocumentIDByFilename returns the document id currently stored for the
// filename, or "" when the filename has never been ingested. Lets a
// re-uploaded file keep its document id so cache invalidation stays targeted.
func (r *ChunkRepository) FindDocumentIDByFilename(ctx context.Context, filename string) (string, error) {
	var documentID string
	err := r.pool.QueryRow(ctx,
		`SELECT document_id FROM legal_chunks WHERE filename = $1 LIMIT 1`, filename,
	).Scan(&documentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return documentID, nil
}

// ReplaceDocument deletes all chunks for documentID and inserts the new ones
// with their embeddings, in one transaction. A reader never sees a document
// half-replaced.
func (r *ChunkRepository) ReplaceDocument(ctx context.Context, documentID string, chunks []*domain.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk count %d does not match embedding count %d", len(chunks), len(embeddings))
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM legal_chunks WHERE document_id = $1`, documentID); err != nil {
		return err
	}

	now := time.Now().UTC()
	for i, c := range chunks {
		if err := domain.ValidateChunk(c); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO legal_chunks
				(id, document_id, text, chunk_index, filename, document_type, doc_date, parties, client_id, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			c.ID,
			documentID,
			c.Text,
			c.ChunkIndex,
			c.Metadata.Filename,
			string(c.Metadata.DocumentType),
			c.Metadata.Date,
			c.Metadata.Parties,
			nullableString(c.Metadata.ClientID),
			pgvector.NewVector(embeddings[i]),
			now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListDocuments returns one metadata record per stored document.
func (r *ChunkRepository) ListDocuments(ctx context.Context) ([]*domain.DocumentMetadata, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (document_id)
		       document_id, filename, document_type, doc_date, parties, client_id
		FROM legal_chunks
		ORDER BY document_id, chunk_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	documents := make([]*domain.DocumentMetadata, 0)
	for rows.Next() {
		var (
			meta     domain.DocumentMetadata
			docType  string
			clientID *string
		)
		if err := rows.Scan(&meta.DocumentID, &meta.Filename, &docType, &meta.Date, &meta.Parties, &clientID); err != nil {
			return nil, err
		}
		meta.DocumentType = domain.ParseDocumentType(docType)
		if clientID != nil {
			meta.ClientID = *clientID
		}
		documents = append(documents, &meta)
	}
	return documents, rows.Err()
}

// SampleChunks returns up to limit chunks in random order, for golden dataset
// generation.
func (r *ChunkRepository) SampleChunks(ctx context.Context, limit int) ([]*domain.Chunk, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+chunkColumns+` FROM legal_chunks ORDER BY random() LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChunks(rows, false)
}

// Ping reports store reachability for health checks.
func (r *ChunkRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func appendFilters(query string, args []interface{}, filters service.SearchFilters) (string, []interface{}) {
	if filters.DocumentType != "" {
		args = append(args, string(filters.DocumentType))
		query += fmt.Sprintf(" AND document_type = $%d", len(args))
	}
	if filters.ClientID != "" {
		args = append(args, filters.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if filters.DateFrom != nil {
		args = append(args, *filters.DateFrom)
		query += fmt.Sprintf(" AND doc_date >= $%d", len(args))
	}
	if filters.DateTo != nil {
		args = append(args, *filters.DateTo)
		query += fmt.Sprintf(" AND doc_date <= $%d", len(args))
	}
	return query, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChunk(row rowScanner, withScore bool) (*domain.Chunk, error) {
	var (
		chunk    domain.Chunk
		docType  string
		clientID *string
	)
	dest := []interface{}{
		&chunk.ID, &chunk.DocumentID, &chunk.Text, &chunk.ChunkIndex,
		&chunk.Metadata.Filename, &docType, &chunk.Metadata.Date,
		&chunk.Metadata.Parties, &clientID,
	}
	if withScore {
		dest = append(dest, &chunk.RelevanceScore)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	chunk.Metadata.DocumentID = chunk.DocumentID
	chunk.Metadata.DocumentType = domain.ParseDocumentType(docType)
	if clientID != nil {
		chunk.Metadata.ClientID = *clientID
	}
	return &chunk, nil
}

func scanChunks(rows pgx.Rows, withScore bool) ([]*domain.Chunk, error) {
	chunks := make([]*domain.Chunk, 0)
	for rows.Next() {
		chunk, err := scanChunk(rows, withScore)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
