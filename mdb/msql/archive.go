package msql

import (
	"context"

	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/mpipe"
)

const archiveSchema = `CREATE TABLE IF NOT EXISTS encodings (
	id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	source VARCHAR(16) NOT NULL,
	name VARCHAR(255) NOT NULL,
	size BIGINT NOT NULL,
	digest CHAR(64) NOT NULL,
	base64 LONGTEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	INDEX (digest)
)`

const archiveInsert = `INSERT INTO encodings (source, name, size, digest, base64)
	VALUES (:source, :name, :size, :digest, :base64)`

const archiveSelectDigest = `SELECT source, name, size, digest, base64 FROM encodings
	WHERE digest = ? ORDER BY id DESC LIMIT 1`

// Archive stores mpipe.Payloads in the "encodings" table.
type Archive struct {
	sql *SQL
}

// NewArchive returns an Archive using the given SQL instance.
func NewArchive(sql *SQL) *Archive {
	return &Archive{sql: sql}
}

// EnsureSchema creates the "encodings" table if it doesn't already exist.
func (a *Archive) EnsureSchema(ctx context.Context) error {
	if _, err := a.sql.ExecContext(ctx, archiveSchema); err != nil {
		return merr.Wrap(err, a.sql.Context(), ctx)
	}
	return nil
}

// Store inserts the Payload as a new row. It implements mpipe.Sink.
func (a *Archive) Store(ctx context.Context, p mpipe.Payload) error {
	ctx = mctx.Annotate(ctx, "name", p.Name, "digest", p.Digest)
	if _, err := a.sql.NamedExecContext(ctx, archiveInsert, p); err != nil {
		return merr.Wrap(err, a.sql.Context(), ctx)
	}
	mlog.From(a.sql.cmp).Debug("payload archived", ctx)
	return nil
}

// Get returns the most recently archived Payload with the given digest.
func (a *Archive) Get(ctx context.Context, digest string) (mpipe.Payload, error) {
	var p mpipe.Payload
	if err := a.sql.GetContext(ctx, &p, archiveSelectDigest, digest); err != nil {
		return mpipe.Payload{}, merr.Wrap(err, a.sql.Context(), mctx.Annotate(ctx, "digest", digest))
	}
	return p, nil
}
