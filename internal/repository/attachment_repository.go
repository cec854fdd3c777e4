package repository

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
)

// attachmentStore persists attachment metadata on behalf of the message
// repository, inside whatever transaction the caller holds.
type attachmentStore struct{}

func (attachmentStore) Create(ctx context.Context, q querier, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO message_attachments (id, message_id, file_name, content_type, size_bytes, storage_key)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at`
	return q.QueryRow(ctx, query,
		attachment.ID,
		attachment.MessageID,
		attachment.FileName,
		attachment.ContentType,
		attachment.SizeBytes,
		attachment.StorageKey,
	).Scan(&attachment.CreatedAt)
}

// ListByMessages returns attachments grouped by message id.
func (attachmentStore) ListByMessages(ctx context.Context, q querier, messageIDs []int64) (map[int64][]domain.Attachment, error) {
	result := make(map[int64][]domain.Attachment, len(messageIDs))
	if len(messageIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT id, message_id, file_name, content_type, size_bytes, storage_key, created_at
        FROM message_attachments WHERE message_id = ANY($1) ORDER BY created_at, id`
	rows, err := q.Query(ctx, query, messageIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var attachment domain.Attachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.MessageID,
			&attachment.FileName,
			&attachment.ContentType,
			&attachment.SizeBytes,
			&attachment.StorageKey,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result[attachment.MessageID] = append(result[attachment.MessageID], attachment)
	}
	return result, rows.Err()
}
