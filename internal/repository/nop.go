package repository

import (
	"context"

	"github.com/rocketscienceinc/chess-backend/internal/apperror"
	"github.com/rocketscienceinc/chess-backend/internal/entity"
)

type nopMatch struct{}

// NewNopMatchRepository - an archive that keeps nothing, used when redis is not configured.
func NewNopMatchRepository() MatchRepository {
	return nopMatch{}
}

func (nopMatch) Save(context.Context, *entity.MatchRecord) error {
	return nil
}

func (nopMatch) GetByID(context.Context, string) (*entity.MatchRecord, error) {
	return nil, apperror.ErrMatchNotFound
}

func (nopMatch) Recent(context.Context, int64) ([]*entity.MatchRecord, error) {
	return []*entity.MatchRecord{}, nil
}
