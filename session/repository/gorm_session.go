package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mikios34/pickup-availability/entity"
	sessionpkg "github.com/mikios34/pickup-availability/session"
)

// GormSessionRepo implements session.Repository using GORM.
type GormSessionRepo struct {
	db *gorm.DB
}

func NewGormSessionRepo(db *gorm.DB) sessionpkg.Repository {
	return &GormSessionRepo{db: db}
}

func (r *GormSessionRepo) StoreSession(ctx context.Context, s *entity.Session) (*entity.Session, error) {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *GormSessionRepo) GetSessionByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var s entity.Session
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepo) GetSessionByFirebaseUID(ctx context.Context, uid string) (*entity.Session, error) {
	var s entity.Session
	if err := r.db.WithContext(ctx).First(&s, "firebase_uid = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepo) GetFavoritePickup(ctx context.Context, sessionID uuid.UUID) (*entity.FavoritePickup, error) {
	var f entity.FavoritePickup
	if err := r.db.WithContext(ctx).First(&f, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// UpsertFavoritePickup replaces the session's favorite in place.
func (r *GormSessionRepo) UpsertFavoritePickup(ctx context.Context, f *entity.FavoritePickup) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(f).Error
}

func (r *GormSessionRepo) DeleteFavoritePickup(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&entity.FavoritePickup{}).Error
}
