package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/reprise/msg"
)

// StreamInfo describes one stream in a listing.
type StreamInfo struct {
	ID         string
	EntityKind string
	CreatedAt  string
	Messages   int
}

// Load reads a stream's messages in offset order.
func (j *Journal) Load(ctx context.Context, streamID string) ([]msg.Message, error) {
	var kind string
	err := j.db.QueryRowContext(ctx,
		`SELECT entity_kind FROM streams WHERE id = ?`, streamID).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load: %w: %s", ErrStreamNotFound, streamID)
	}
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT payload FROM messages WHERE stream_id = ? ORDER BY msg_offset ASC`, streamID)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer rows.Close()

	var msgs []msg.Message
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		m, err := msg.Decode([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return msgs, nil
}

// EntityKind returns the entity kind a stream was created for.
func (j *Journal) EntityKind(ctx context.Context, streamID string) (string, error) {
	var kind string
	err := j.db.QueryRowContext(ctx,
		`SELECT entity_kind FROM streams WHERE id = ?`, streamID).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrStreamNotFound, streamID)
	}
	if err != nil {
		return "", err
	}
	return kind, nil
}

// Streams lists all streams ordered by id. UUIDv7 tokens sort
// chronologically, so the listing follows creation order.
func (j *Journal) Streams(ctx context.Context) ([]StreamInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.entity_kind, s.created_at, COUNT(m.msg_offset)
		FROM streams s
		LEFT JOIN messages m ON m.stream_id = s.id
		GROUP BY s.id
		ORDER BY s.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("streams: %w", err)
	}
	defer rows.Close()

	var infos []StreamInfo
	for rows.Next() {
		var info StreamInfo
		if err := rows.Scan(&info.ID, &info.EntityKind, &info.CreatedAt, &info.Messages); err != nil {
			return nil, fmt.Errorf("streams: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("streams: %w", err)
	}
	return infos, nil
}
