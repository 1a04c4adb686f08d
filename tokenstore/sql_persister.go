package tokenstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fetchit-auth/models"

	"github.com/jmoiron/sqlx"
)

// DefaultAccount is the storage key of the Gmail credential.
const DefaultAccount = "gmail_token"

// Schema mirrors database/migrations; used where migrations are not run.
const Schema = `CREATE TABLE IF NOT EXISTS oauth_credentials (
	account    TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at DATETIME NOT NULL
)`

// SQLPersister stores the credential as a JSON payload in one row.
// With a Sealer the payload is encrypted at rest.
type SQLPersister struct {
	db      *sqlx.DB
	account string
	sealer  *Sealer
}

// NewSQLPersister stores under account. sealer may be nil.
func NewSQLPersister(db *sqlx.DB, account string, sealer *Sealer) *SQLPersister {
	if account == "" {
		account = DefaultAccount
	}
	return &SQLPersister{
		db:      db,
		account: account,
		sealer:  sealer,
	}
}

type credentialRow struct {
	Account   string    `db:"account"`
	Payload   string    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (p *SQLPersister) Load(ctx context.Context) (models.OAuthCredential, bool, error) {
	var row credentialRow
	err := p.db.GetContext(ctx, &row,
		"SELECT account, payload, updated_at FROM oauth_credentials WHERE account = ?", p.account)
	if errors.Is(err, sql.ErrNoRows) {
		return models.OAuthCredential{}, false, nil
	}
	if err != nil {
		return models.OAuthCredential{}, false, err
	}

	payload, err := p.open(row.Payload)
	if err != nil {
		return models.OAuthCredential{}, false, err
	}

	var cred models.OAuthCredential
	if err := json.Unmarshal(payload, &cred); err != nil {
		return models.OAuthCredential{}, false, fmt.Errorf("decode stored credential: %w", err)
	}
	return cred, true, nil
}

func (p *SQLPersister) Save(ctx context.Context, cred models.OAuthCredential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	stored := string(payload)
	if p.sealer != nil {
		if stored, err = p.sealer.Seal(payload); err != nil {
			return err
		}
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO oauth_credentials (account, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, p.account, stored, time.Now().UTC())
	return err
}

func (p *SQLPersister) Delete(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM oauth_credentials WHERE account = ?", p.account)
	return err
}

func (p *SQLPersister) open(stored string) ([]byte, error) {
	if !strings.HasPrefix(stored, sealedPrefix) {
		return []byte(stored), nil
	}
	if p.sealer == nil {
		return nil, errors.New("stored credential is sealed but no passphrase is configured")
	}
	return p.sealer.Open(stored)
}
