package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coursebook/internal/codec"
	"coursebook/internal/domain"
)

// DocumentStore implements domain.DocumentStore on a SQL database. Bodies
// are stored as document JSON and decoded fail-soft, so one malformed block
// does not make a document unreadable.
type DocumentStore struct {
	db    *DB
	codec *codec.Codec
}

func NewDocumentStore(db *DB, c *codec.Codec) *DocumentStore {
	return &DocumentStore{db: db, codec: c}
}

func (s *DocumentStore) q(query string) string {
	return s.db.dialect.rebind(query)
}

func (s *DocumentStore) CreateDocument(d *domain.Document) error {
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	body, err := s.codec.Serialize(d.Body)
	if err != nil {
		return err
	}
	_, err = s.db.Conn().Exec(
		s.q(`INSERT INTO documents (id, title, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`),
		d.ID, d.Title, string(body), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *DocumentStore) GetDocument(id string) (*domain.Document, error) {
	row := s.db.Conn().QueryRow(
		s.q(`SELECT id, title, body, created_at, updated_at FROM documents WHERE id = ?`), id,
	)
	d, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return d, nil
}

func (s *DocumentStore) ListDocuments() ([]domain.Document, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, title, body, created_at, updated_at FROM documents ORDER BY updated_at DESC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		d, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

func (s *DocumentStore) UpdateDocument(d *domain.Document) error {
	d.UpdatedAt = time.Now().UTC()
	body, err := s.codec.Serialize(d.Body)
	if err != nil {
		return err
	}
	res, err := s.db.Conn().Exec(
		s.q(`UPDATE documents SET title = ?, body = ?, updated_at = ? WHERE id = ?`),
		d.Title, string(body), d.UpdatedAt, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update document %s: %w", d.ID, err)
	}
	return affected(res, "update", d.ID)
}

func (s *DocumentStore) DeleteDocument(id string) error {
	res, err := s.db.Conn().Exec(s.q(`DELETE FROM documents WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return affected(res, "delete", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *DocumentStore) scan(r scanner) (*domain.Document, error) {
	var d domain.Document
	var body string
	if err := r.Scan(&d.ID, &d.Title, &body, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	b, err := s.codec.Deserialize([]byte(body))
	if err != nil {
		// unreadable body: keep the record, start from an empty one
		b = domain.NewBody()
	}
	d.Body = b
	return &d, nil
}

func affected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s document %s: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s document %s: %w", op, id, domain.ErrNotFound)
	}
	return nil
}
