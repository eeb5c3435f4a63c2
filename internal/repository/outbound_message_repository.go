package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/unclebandit/muxo-dispatch/internal/model"
)

// OutboundMessageRepositoryInterface records send outcomes.
type OutboundMessageRepositoryInterface interface {
	Create(ctx context.Context, msg *model.OutboundMessage) error
	GetByID(ctx context.Context, id int) (*model.OutboundMessage, error)
	GetCampaignStats(ctx context.Context, campaignID int) (map[string]int, error)
	DeleteByCampaign(ctx context.Context, campaignID int) error
}

// OutboundMessageRepository is the Postgres-backed store.
type OutboundMessageRepository struct {
	DB *sql.DB
}

// Create inserts a new outbound message and fills in its ID.
func (r *OutboundMessageRepository) Create(ctx context.Context, msg *model.OutboundMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query := `
        INSERT INTO outbound_messages
        (campaign_id, msisdn, status, rendered_content, last_error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRowContext(
		ctx,
		query,
		msg.CampaignID,
		msg.MSISDN,
		msg.Status,
		msg.RenderedContent,
		msg.LastError,
		msg.CreatedAt,
	).Scan(&msg.ID)
}

// GetByID returns nil, nil when the message does not exist.
func (r *OutboundMessageRepository) GetByID(ctx context.Context, id int) (*model.OutboundMessage, error) {
	query := `
        SELECT id, campaign_id, msisdn, status, rendered_content, last_error, created_at
        FROM outbound_messages
        WHERE id=$1
    `
	var msg model.OutboundMessage
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.CampaignID,
		&msg.MSISDN,
		&msg.Status,
		&msg.RenderedContent,
		&msg.LastError,
		&msg.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *OutboundMessageRepository) GetCampaignStats(ctx context.Context, campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM outbound_messages WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := newStats()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}
	return stats, rows.Err()
}

func (r *OutboundMessageRepository) DeleteByCampaign(ctx context.Context, campaignID int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM outbound_messages WHERE campaign_id=$1`, campaignID)
	return err
}

// MemoryOutboundMessageRepository is used when no database is configured.
type MemoryOutboundMessageRepository struct {
	mu     sync.RWMutex
	nextID int
	msgs   map[int]model.OutboundMessage
}

func NewMemoryOutboundMessageRepository() *MemoryOutboundMessageRepository {
	return &MemoryOutboundMessageRepository{msgs: make(map[int]model.OutboundMessage)}
}

func (r *MemoryOutboundMessageRepository) Create(_ context.Context, msg *model.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.nextID++
	msg.ID = r.nextID
	r.msgs[msg.ID] = *msg
	return nil
}

func (r *MemoryOutboundMessageRepository) GetByID(_ context.Context, id int) (*model.OutboundMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msg, ok := r.msgs[id]
	if !ok {
		return nil, nil
	}
	return &msg, nil
}

func (r *MemoryOutboundMessageRepository) GetCampaignStats(_ context.Context, campaignID int) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := newStats()
	for _, msg := range r.msgs {
		if msg.CampaignID != campaignID {
			continue
		}
		stats[msg.Status]++
		stats["total"]++
	}
	return stats, nil
}

func (r *MemoryOutboundMessageRepository) DeleteByCampaign(_ context.Context, campaignID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, msg := range r.msgs {
		if msg.CampaignID == campaignID {
			delete(r.msgs, id)
		}
	}
	return nil
}

func newStats() map[string]int {
	return map[string]int{
		"total":                   0,
		model.MessageStatusSent:   0,
		model.MessageStatusFailed: 0,
	}
}

var (
	_ OutboundMessageRepositoryInterface = (*OutboundMessageRepository)(nil)
	_ OutboundMessageRepositoryInterface = (*MemoryOutboundMessageRepository)(nil)
)
