package store

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/ericfisherdev/prgate/internal/domain/model"
	"github.com/ericfisherdev/prgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RepoStore = (*RepoRepo)(nil)

// repositoryRow is the bun model for the repositories table.
type repositoryRow struct {
	bun.BaseModel `bun:"table:repositories,alias:r"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Owner     string    `bun:"owner,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (row repositoryRow) toModel() model.Repository {
	return model.Repository{
		ID:        row.ID,
		Name:      row.Name,
		Owner:     row.Owner,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

// RepoRepo is the bun implementation of the RepoStore port interface.
type RepoRepo struct {
	db *DB
}

// NewRepoRepo creates a new RepoRepo backed by the given DB.
func NewRepoRepo(db *DB) *RepoRepo {
	return &RepoRepo{db: db}
}

// Create inserts a new repository record. Name and owner are stored as given;
// the same pair may be stored any number of times.
func (r *RepoRepo) Create(ctx context.Context, name, owner string) (model.Repository, error) {
	row := &repositoryRow{
		Name:      name,
		Owner:     owner,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	if _, err := r.db.Bun.NewInsert().Model(row).Exec(ctx); err != nil {
		return model.Repository{}, fmt.Errorf("create repository %s/%s: %w: %w", owner, name, driven.ErrStorage, err)
	}

	return row.toModel(), nil
}

// DeleteMatching deletes every repository record whose name and owner both
// match exactly. It returns the number of deleted rows, which may be zero.
func (r *RepoRepo) DeleteMatching(ctx context.Context, name, owner string) (int64, error) {
	result, err := r.db.Bun.NewDelete().
		TableExpr("repositories").
		Where("name = ?", name).
		Where("owner = ?", owner).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete repositories %s/%s: %w: %w", owner, name, driven.ErrStorage, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w: %w", driven.ErrStorage, err)
	}

	return rows, nil
}

// ListAll returns all repository records ordered by ID.
func (r *RepoRepo) ListAll(ctx context.Context) ([]model.Repository, error) {
	var rows []repositoryRow
	if err := r.db.Bun.NewSelect().Model(&rows).OrderExpr("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list repositories: %w: %w", driven.ErrStorage, err)
	}

	repos := make([]model.Repository, 0, len(rows))
	for _, row := range rows {
		repos = append(repos, row.toModel())
	}

	return repos, nil
}
