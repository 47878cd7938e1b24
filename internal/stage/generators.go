package stage

import (
	"context"

	"notewise/internal/study"
)

// Stage names double as artifact kinds in the session store.
const (
	NameSummary    = "summary"
	NameFlashcards = "flashcards"
	NameConcepts   = "concepts"
)

// SummaryStage produces a study.Summary.
type SummaryStage struct {
	Service study.Service
	Options study.SummaryOptions
}

func (s SummaryStage) Name() string { return NameSummary }

func (s SummaryStage) Generate(ctx context.Context, notes string) (any, error) {
	if err := RequireNotes(NameSummary, notes); err != nil {
		return nil, err
	}
	return s.Service.Summarize(ctx, notes, s.Options)
}

// FlashcardsStage produces a study.FlashcardSet.
type FlashcardsStage struct {
	Service study.Service
}

func (s FlashcardsStage) Name() string { return NameFlashcards }

func (s FlashcardsStage) Generate(ctx context.Context, notes string) (any, error) {
	if err := RequireNotes(NameFlashcards, notes); err != nil {
		return nil, err
	}
	return s.Service.Flashcards(ctx, notes)
}

// KeyConceptsStage produces a study.KeyConceptSet.
type KeyConceptsStage struct {
	Service study.Service
}

func (s KeyConceptsStage) Name() string { return NameConcepts }

func (s KeyConceptsStage) Generate(ctx context.Context, notes string) (any, error) {
	if err := RequireNotes(NameConcepts, notes); err != nil {
		return nil, err
	}
	return s.Service.KeyConcepts(ctx, notes)
}
