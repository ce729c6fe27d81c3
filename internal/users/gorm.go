package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/unkn0wn-root/invcache"
)

type userRow struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string
	Email     string `gorm:"uniqueIndex"`
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRow) TableName() string { return "users" }

func rowFrom(u User) userRow {
	return userRow{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r userRow) toUser() User {
	return User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Enabled:   r.Enabled,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// OpenPostgres connects to dsn and migrates the users table.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&userRow{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

// GormRepository stores users through gorm. The listener runs only after the
// transaction has committed.
type GormRepository struct {
	db       *gorm.DB
	listener invcache.ChangeListener
}

var _ Repository = (*GormRepository)(nil)

func NewGormRepository(db *gorm.DB, listener invcache.ChangeListener) *GormRepository {
	if listener == nil {
		listener = invcache.NopListener{}
	}
	return &GormRepository{db: db, listener: listener}
}

func (r *GormRepository) List(ctx context.Context) ([]User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toUser())
	}
	return out, nil
}

func (r *GormRepository) Get(ctx context.Context, id uint64) (User, error) {
	var row userRow
	err := r.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return row.toUser(), nil
}

func (r *GormRepository) Create(ctx context.Context, in Input) (User, error) {
	if err := in.ValidateCreate(); err != nil {
		return User{}, err
	}
	row := rowFrom(newUser(in, time.Now()))
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	r.listener.RecordChanged(ctx, invcache.ChangeEvent{Kind: invcache.Created, ID: row.ID})
	return row.toUser(), nil
}

func (r *GormRepository) Update(ctx context.Context, id uint64, in Input) (User, error) {
	if err := in.Validate(); err != nil {
		return User{}, err
	}
	var updated User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userRow
		if err := tx.First(&row, id).Error; err != nil {
			return err
		}
		u := row.toUser()
		in.apply(&u)
		u.UpdatedAt = time.Now()
		row = rowFrom(u)
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		updated = row.toUser()
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	r.listener.RecordChanged(ctx, invcache.ChangeEvent{Kind: invcache.Updated, ID: id})
	return updated, nil
}

func (r *GormRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&userRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.listener.RecordChanged(ctx, invcache.ChangeEvent{Kind: invcache.Deleted, ID: id})
	return nil
}
