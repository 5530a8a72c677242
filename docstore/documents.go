package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"busroot.app/internal/logging"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidKey   = errors.New("collection and key are required")
	ErrInvalidField = errors.New("invalid field name")
	ErrNotAnObject  = errors.New("partial update must be a JSON object")
)

var fieldPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Key addresses a document inside a collection. Sub is empty for records
// addressed by a single id.
type Key struct {
	ID  string
	Sub string
}

func (k Key) String() string {
	if k.Sub == "" {
		return k.ID
	}
	return k.ID + "/" + k.Sub
}

type Document struct {
	Key       Key
	Body      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decode unmarshals the document body into dst.
func (d Document) Decode(dst any) error {
	return json.Unmarshal(d.Body, dst)
}

func checkAddress(collection string, key Key) error {
	if collection == "" || key.ID == "" {
		return ErrInvalidKey
	}
	return nil
}

// Get decodes the document stored under key into dst.
func (c *Client) Get(ctx context.Context, collection string, key Key, dst any) error {
	if err := checkAddress(collection, key); err != nil {
		return err
	}

	var body string
	err := c.DB.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND doc_key = ? AND doc_subkey = ?`,
		collection, key.ID, key.Sub,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, key)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), dst)
}

// List returns every document of a collection in insertion order.
func (c *Client) List(ctx context.Context, collection string) ([]Document, error) {
	return c.query(ctx,
		`SELECT doc_key, doc_subkey, body, created_at, updated_at FROM documents
		 WHERE collection = ? ORDER BY created_at, rowid`,
		collection,
	)
}

// EqualTo returns the documents whose top-level JSON field equals value.
func (c *Client) EqualTo(ctx context.Context, collection, field string, value any) ([]Document, error) {
	if !fieldPattern.MatchString(field) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return c.query(ctx,
		`SELECT doc_key, doc_subkey, body, created_at, updated_at FROM documents
		 WHERE collection = ? AND json_extract(body, ?) = ? ORDER BY created_at, rowid`,
		collection, "$."+field, value,
	)
}

func (c *Client) query(ctx context.Context, query string, args ...any) (docs []Document, err error) {
	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer logging.HandleDeferredError(&err, rows.Close, nil, "close document rows")

	docs = []Document{}
	for rows.Next() {
		var (
			doc                  Document
			body                 string
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&doc.Key.ID, &doc.Key.Sub, &body, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		doc.Body = json.RawMessage(body)
		doc.CreatedAt = time.UnixMilli(createdAt)
		doc.UpdatedAt = time.UnixMilli(updatedAt)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Set stores value under key, replacing any existing body. The creation time
// of an existing record is kept.
func (c *Client) Set(ctx context.Context, collection string, key Key, value any) error {
	if err := checkAddress(collection, key); err != nil {
		return err
	}
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	return upsert(ctx, c.DB, collection, key, body)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, collection string, key Key, body []byte) error {
	now := time.Now().UnixMilli()
	_, err := db.ExecContext(ctx,
		`INSERT INTO documents (collection, doc_key, doc_subkey, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (collection, doc_key, doc_subkey)
		 DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		collection, key.ID, key.Sub, string(body), now, now,
	)
	return err
}

// Update merges the top-level fields of partial into the stored document,
// creating it when absent. Nested objects are replaced, not merged.
func (c *Client) Update(ctx context.Context, collection string, key Key, partial any) (err error) {
	if err := checkAddress(collection, key); err != nil {
		return err
	}

	patch, err := toObject(partial)
	if err != nil {
		return err
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer logging.SafeRollbackWithLogging(tx, logging.FromContext(ctx), "docstore_update")

	current := map[string]json.RawMessage{}
	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND doc_key = ? AND doc_subkey = ?`,
		collection, key.ID, key.Sub,
	).Scan(&body)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal([]byte(body), &current); err != nil {
			return fmt.Errorf("stored %s/%s is not an object: %w", collection, key, err)
		}
	}

	for field, value := range patch {
		current[field] = value
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return err
	}
	if err := upsert(ctx, tx, collection, key, merged); err != nil {
		return err
	}
	return tx.Commit()
}

func toObject(value any) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil || object == nil {
		return nil, ErrNotAnObject
	}
	return object, nil
}

// Push appends value under a new time-ordered key and returns that key.
func (c *Client) Push(ctx context.Context, collection string, value any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	if err := c.Set(ctx, collection, Key{ID: id.String()}, value); err != nil {
		return "", err
	}
	return id.String(), nil
}

// Delete removes the document under key. Deleting an absent document reports ErrNotFound.
func (c *Client) Delete(ctx context.Context, collection string, key Key) error {
	if err := checkAddress(collection, key); err != nil {
		return err
	}
	res, err := c.DB.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND doc_key = ? AND doc_subkey = ?`,
		collection, key.ID, key.Sub,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, key)
	}
	return nil
}
