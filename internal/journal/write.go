package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/reprise/msg"
)

// ErrStreamNotFound is returned for operations on unknown streams.
var ErrStreamNotFound = errors.New("stream not found")

// Append writes messages to the tail of a stream in one transaction.
// Offsets must continue the stream's sequence: the first appended message
// must carry an offset greater than the stream's current maximum.
func (j *Journal) Append(ctx context.Context, streamID string, msgs []msg.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	defer tx.Rollback()

	last, err := lastOffset(ctx, tx, streamID)
	if err != nil {
		return err
	}

	for _, m := range msgs {
		if m.MsgOffset() <= last {
			return fmt.Errorf("append: offset %d does not increase past %d in stream %s",
				m.MsgOffset(), last, streamID)
		}
		last = m.MsgOffset()

		payload, err := msg.Encode(m)
		if err != nil {
			return fmt.Errorf("append: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (stream_id, msg_offset, kind, payload) VALUES (?, ?, ?, ?)`,
			streamID, m.MsgOffset(), string(m.MsgKind()), string(payload),
		); err != nil {
			return fmt.Errorf("append offset %d: %w", m.MsgOffset(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	return nil
}

// Compact replaces a stream's contents with the retained suffix of an
// engine cleanup, in a single transaction. The processed prefix is the
// caller's to archive before calling Compact.
func (j *Journal) Compact(ctx context.Context, streamID string, retained []msg.Message) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("compact: %w", err)
	}
	defer tx.Rollback()

	if err := streamExists(ctx, tx, streamID); err != nil {
		return fmt.Errorf("compact: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE stream_id = ?`, streamID); err != nil {
		return fmt.Errorf("compact: %w", err)
	}

	for _, m := range retained {
		payload, err := msg.Encode(m)
		if err != nil {
			return fmt.Errorf("compact: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (stream_id, msg_offset, kind, payload) VALUES (?, ?, ?, ?)`,
			streamID, m.MsgOffset(), string(m.MsgKind()), string(payload),
		); err != nil {
			return fmt.Errorf("compact offset %d: %w", m.MsgOffset(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("compact: %w", err)
	}
	return nil
}

func lastOffset(ctx context.Context, tx *sql.Tx, streamID string) (int64, error) {
	if err := streamExists(ctx, tx, streamID); err != nil {
		return 0, fmt.Errorf("append: %w", err)
	}

	var last sql.NullInt64
	err := tx.QueryRowContext(ctx,
		`SELECT MAX(msg_offset) FROM messages WHERE stream_id = ?`, streamID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("append: %w", err)
	}
	if !last.Valid {
		return msg.None, nil
	}
	return last.Int64, nil
}

func streamExists(ctx context.Context, tx *sql.Tx, streamID string) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM streams WHERE id = ?`, streamID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrStreamNotFound, streamID)
	}
	return err
}
