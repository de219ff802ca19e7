package securestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/waterwatch/internal/cryptox"
	"github.com/dmitrijs2005/waterwatch/internal/dbx"
)

// SQLiteStore implements Store on the secure_kv table.
type SQLiteStore struct {
	db     *sql.DB
	sealer *cryptox.Sealer
}

func NewSQLiteStore(db *sql.DB, sealer *cryptox.Sealer) *SQLiteStore {
	return &SQLiteStore{db: db, sealer: sealer}
}

// aad binds a sealed value to its namespace and row, so a value copied to a
// different key does not decrypt.
func (s *SQLiteStore) aad(keyID []byte) []byte {
	ns := s.sealer.Namespace()
	out := make([]byte, 0, len(ns)+1+len(keyID))
	out = append(out, ns...)
	out = append(out, 0)
	return append(out, keyID...)
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	keyID := s.sealer.KeyID(key)

	var nonce, value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT nonce, value FROM secure_kv WHERE namespace = ? AND key_id = ?`,
		s.sealer.Namespace(), keyID,
	).Scan(&nonce, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	plaintext, err := s.sealer.Open(value, nonce, s.aad(keyID))
	if err != nil {
		return "", false, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return string(plaintext), true, nil
}

func (s *SQLiteStore) Apply(ctx context.Context, b *Batch) error {
	if b == nil || b.Len() == 0 {
		return nil
	}
	if err := b.validate(); err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, o := range b.ops {
			var err error
			switch o.kind {
			case opPut:
				err = s.put(ctx, tx, o.key, o.value)
			case opRemove:
				err = s.remove(ctx, tx, o.key)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) put(ctx context.Context, tx dbx.DBTX, key, value string) error {
	keyID := s.sealer.KeyID(key)
	ciphertext, nonce := s.sealer.Seal([]byte(value), s.aad(keyID))

	_, err := tx.ExecContext(ctx, `
		INSERT INTO secure_kv (namespace, key_id, nonce, value) VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key_id) DO UPDATE SET nonce = excluded.nonce, value = excluded.value
	`, s.sealer.Namespace(), keyID, nonce, ciphertext)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) remove(ctx context.Context, tx dbx.DBTX, key string) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM secure_kv WHERE namespace = ? AND key_id = ?`,
		s.sealer.Namespace(), s.sealer.KeyID(key))
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
