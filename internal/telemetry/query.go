package telemetry

import (
	"context"
	"database/sql"
	"time"

	"codeberg.org/mutker/robotctl/internal/errors"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Events reads back the detections of one session in recording order.
func Events(ctx context.Context, db *sql.DB, session uuid.UUID) ([]DetectionEvent, error) {
	errFactory := errors.New()

	rows, err := db.QueryContext(ctx, `
        SELECT timestamp, frame_seq, markers, image_path
        FROM detections
        WHERE session_id = ?
        ORDER BY id
    `, session.String())
	if err != nil {
		return nil, errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer rows.Close()

	var events []DetectionEvent
	for rows.Next() {
		var (
			ts    int64
			seq   int64
			blob  []byte
			image sql.NullString
		)
		if err := rows.Scan(&ts, &seq, &blob, &image); err != nil {
			return nil, errFactory.Wrap(ErrTransactionFailed, err)
		}

		event := DetectionEvent{
			Timestamp: time.Unix(0, ts),
			Session:   session,
			FrameSeq:  uint64(seq),
			ImagePath: image.String,
		}
		if err := msgpack.Unmarshal(blob, &event.Markers); err != nil {
			return nil, errFactory.Wrap(ErrEncodeEvent, err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrTransactionFailed, err)
	}

	return events, nil
}
