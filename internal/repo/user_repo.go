package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/moneywise/internal/domain"
)

// UpsertUser inserts the user or refreshes its email and name. Empty email or
// name values never overwrite stored ones.
func UpsertUser(ctx context.Context, db *gorm.DB, id, email, name string) error {
	now := time.Now().UTC()
	u := &domain.User{
		ID:        id,
		Email:     strings.TrimSpace(email),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	var cols []string
	if u.Email != "" {
		cols = append(cols, "email")
	}
	if u.Name != "" {
		cols = append(cols, "name")
	}
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	if len(cols) > 0 {
		cols = append(cols, "updated_at")
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}
	}
	return db.WithContext(ctx).Clauses(onConflict).Create(u).Error
}

// GetUser fetches a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUsersByIDs returns the users with the given ids keyed by id. Unknown ids
// are simply absent from the result.
func GetUsersByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.User
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}
