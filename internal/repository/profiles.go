package repository

import (
	"context"
	"fmt"

	"github.com/WALKERIS/visionrpweb/internal/domain"
)

func (r *Repository) UpsertProfile(ctx context.Context, p domain.Profile) error {
	query := `INSERT INTO profiles (id, discord_id, discord_username, updated_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (id) DO UPDATE
	          SET discord_id = EXCLUDED.discord_id,
	              discord_username = EXCLUDED.discord_username,
	              updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, p.ID, p.DiscordID, p.DiscordUsername, p.UpdatedAt); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *Repository) GetProfile(ctx context.Context, p *domain.Profile) error {
	query := `SELECT discord_id, discord_username, updated_at FROM profiles WHERE id = $1`

	if err := r.db.QueryRowContext(ctx, query, p.ID).Scan(&p.DiscordID, &p.DiscordUsername, &p.UpdatedAt); err != nil {
		return fmt.Errorf("query profile: %w", err)
	}
	return nil
}
