package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"paddydoc/api/internal/report"
)

var ErrNotFound = sql.ErrNoRows

const schema = `
create table if not exists diagnoses (
  id          uuid primary key,
  created_at  timestamptz not null default now(),
  image_hash  text not null,
  engine      text not null,
  model       text not null,
  raw_text    text not null,
  kind        text not null,
  unique (image_hash, engine, model)
);
create table if not exists chat_diagnoses (
  chat_id       bigint not null,
  diagnosis_id  uuid not null references diagnoses (id) on delete cascade,
  created_at    timestamptz not null default now()
);
create index if not exists chat_diagnoses_chat_created_idx on chat_diagnoses (chat_id, created_at desc);`

// Diagnosis is one stored vision answer. Report is derived from RawText.
// ChatID and CreatedAt describe the delivery on rows from ListByChat.
type Diagnosis struct {
	ID        uuid.UUID
	CreatedAt time.Time
	ChatID    int64
	ImageHash string
	Engine    string
	Model     string
	RawText   string
	Report    report.Report
}

type DiagnosisRepo struct{ DB *sql.DB }

func NewDiagnosisRepo(db *sql.DB) *DiagnosisRepo { return &DiagnosisRepo{DB: db} }

func (r *DiagnosisRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// FindByHash returns the cached answer for (imageHash, engine, model).
// With maxAge > 0 older rows count as missing.
func (r *DiagnosisRepo) FindByHash(ctx context.Context, imageHash, engine, model string, maxAge time.Duration) (*Diagnosis, error) {
	const q = `
select id, created_at, image_hash, engine, model, raw_text
from diagnoses
where image_hash = $1 and engine = $2 and model = $3`
	d, err := scanDiagnosis(r.DB.QueryRowContext(ctx, q, imageHash, engine, model))
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(d.CreatedAt) > maxAge {
		return nil, ErrNotFound
	}
	return d, nil
}

// Upsert stores the answer; an existing row for the same key is overwritten
// and its timestamp refreshed. d.ID is set to the id of the stored row, which
// is kept on overwrite so chat histories still point at it.
func (r *DiagnosisRepo) Upsert(ctx context.Context, d *Diagnosis) error {
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	kind := report.Classify(d.RawText).Kind()
	const q = `
insert into diagnoses (id, image_hash, engine, model, raw_text, kind)
values ($1,$2,$3,$4,$5,$6)
on conflict (image_hash, engine, model) do update
set raw_text = excluded.raw_text,
    kind = excluded.kind,
    created_at = now()
returning id`
	if err := r.DB.QueryRowContext(ctx, q, id, d.ImageHash, d.Engine, d.Model, d.RawText, string(kind)).Scan(&d.ID); err != nil {
		return fmt.Errorf("upsert diagnosis: %w", err)
	}
	return nil
}

// AddHistory records that a diagnosis was delivered to a chat.
func (r *DiagnosisRepo) AddHistory(ctx context.Context, chatID int64, diagnosisID uuid.UUID) error {
	const q = `insert into chat_diagnoses (chat_id, diagnosis_id) values ($1,$2)`
	if _, err := r.DB.ExecContext(ctx, q, chatID, diagnosisID); err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	return nil
}

// ListByChat returns the diagnoses last delivered to a chat, newest first.
func (r *DiagnosisRepo) ListByChat(ctx context.Context, chatID int64, limit int) ([]Diagnosis, error) {
	if limit <= 0 {
		limit = 5
	}
	const q = `
select d.id, h.created_at, d.image_hash, d.engine, d.model, d.raw_text, h.chat_id
from chat_diagnoses h
join diagnoses d on d.id = h.diagnosis_id
where h.chat_id = $1
order by h.created_at desc
limit $2`
	rows, err := r.DB.QueryContext(ctx, q, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Diagnosis
	for rows.Next() {
		var chat int64
		d, err := scanDiagnosis(rows, &chat)
		if err != nil {
			return nil, err
		}
		d.ChatID = chat
		out = append(out, *d)
	}
	return out, rows.Err()
}

// PurgeOlderThan deletes cached diagnoses and, through the foreign key,
// their history entries.
func (r *DiagnosisRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from diagnoses where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return aff, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDiagnosis(s scanner, extra ...any) (*Diagnosis, error) {
	var d Diagnosis
	dest := append([]any{&d.ID, &d.CreatedAt, &d.ImageHash, &d.Engine, &d.Model, &d.RawText}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	d.Report = report.Classify(d.RawText)
	return &d, nil
}
