package service

import (
	"rekard/internal/domain"

	"go.uber.org/zap"
)

// BoxCounter is the read side of the store stats need
type BoxCounter interface {
	Decks() []domain.Deck
	TotalCardsInBox(box domain.Box) int
}

// Summary holds collection totals
type Summary struct {
	Decks int
	Cards int
	Boxes map[domain.Box]int
}

// StatsService reports Leitner box totals
type StatsService struct {
	store  BoxCounter
	logger *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(store BoxCounter, logger *zap.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger,
	}
}

// Summary counts decks, cards and cards per box
func (s *StatsService) Summary() Summary {
	decks := s.store.Decks()
	sum := Summary{
		Decks: len(decks),
		Boxes: make(map[domain.Box]int, len(domain.Boxes)),
	}
	for _, d := range decks {
		sum.Cards += len(d.Cards)
	}
	for _, b := range domain.Boxes {
		sum.Boxes[b] = s.store.TotalCardsInBox(b)
	}
	return sum
}

// LogSummary writes the current totals to the log
func (s *StatsService) LogSummary() {
	sum := s.Summary()
	s.logger.Info("Collection summary",
		zap.Int("decks", sum.Decks),
		zap.Int("cards", sum.Cards),
		zap.Int("box_dont_know", sum.Boxes[domain.BoxDontKnow]),
		zap.Int("box_kind_of_know", sum.Boxes[domain.BoxKindOfKnow]),
		zap.Int("box_know", sum.Boxes[domain.BoxKnow]),
	)
}
