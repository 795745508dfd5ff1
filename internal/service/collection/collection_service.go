package collection

import (
	"context"
	"fmt"

	"geoclaim/internal/model"
	"geoclaim/internal/service/search"
	"geoclaim/internal/util"

	"go.uber.org/zap"
)

// TravelSource reports how far a user has walked.
type TravelSource interface {
	TravelledKm(userID string) float64
}

// Profile is the player summary shown on the profile screen.
type Profile struct {
	UserID      string                 `json:"user_id"`
	Claimed     int64                  `json:"claimed"`
	Score       int64                  `json:"score"`
	Level       int64                  `json:"level"`
	Rank        *int64                 `json:"rank,omitempty"`
	ByRarity    map[model.Rarity]int64 `json:"by_rarity"`
	TravelledKm float64                `json:"travelled_km"`
}

// Service records succeeded claims into the user's collection and scores them.
type Service struct {
	repo   Repository
	board  *Leaderboard
	travel TravelSource
	log    *zap.Logger
	newID  func() string
}

func NewService(repo Repository, board *Leaderboard, travel TravelSource, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		board:  board,
		travel: travel,
		log:    log,
		newID:  util.ShortUUID,
	}
}

// RecordClaim stores the claim and credits its points. A repeated claim of
// the same item by the same user is ignored.
func (s *Service) RecordClaim(ctx context.Context, ev model.ClaimEvent) error {
	claim := &model.ClaimPG{
		ID:        s.newID(),
		SessionID: ev.SessionID,
		UserID:    ev.UserID,
		ItemID:    ev.Item.ID,
		ItemName:  ev.Item.Name,
		Location:  ev.Item.Address,
		Rarity:    ev.Item.Rarity,
		Points:    ev.Item.Rarity.Points(),
		ClaimedAt: ev.ClaimedAt,
	}

	inserted, err := s.repo.Save(ctx, claim)
	if err != nil {
		return err
	}
	if !inserted {
		s.log.Warn("duplicate claim ignored",
			zap.String("user", ev.UserID),
			zap.String("item", ev.Item.ID),
		)
		return nil
	}

	if err := s.board.Record(ctx, ev.UserID, ev.Item.Rarity); err != nil {
		return err
	}

	s.log.Info("claim recorded",
		zap.String("user", ev.UserID),
		zap.String("item", ev.Item.ID),
		zap.Int64("points", claim.Points),
	)
	return nil
}

// Collection lists the user's claims, optionally narrowed to one rarity.
func (s *Service) Collection(ctx context.Context, userID, category string) ([]model.ClaimPG, error) {
	claims, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		claims = []model.ClaimPG{}
	}
	return search.FilterBy(claims, category, func(c model.ClaimPG) string { return string(c.Rarity) }), nil
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	st, err := s.board.Stats(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{
		UserID:   userID,
		Claimed:  st.Total,
		Score:    st.Score,
		Level:    LevelFor(st.Score),
		ByRarity: st.ByRarity,
	}

	rank, ranked, err := s.board.Rank(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", userID, err)
	}
	if ranked {
		p.Rank = &rank
	}
	if s.travel != nil {
		p.TravelledKm = s.travel.TravelledKm(userID)
	}
	return p, nil
}

func (s *Service) Leaderboard(ctx context.Context, limit int64) ([]Entry, error) {
	return s.board.Top(ctx, limit)
}
