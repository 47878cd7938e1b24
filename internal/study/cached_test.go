package study_test

import (
	"context"
	"testing"
	"time"

	"notewise/internal/study"
	"notewise/internal/testsupport"
)

func TestCachedGeneratorMemoizesByDigest(t *testing.T) {
	fake := testsupport.NewFakeCompleter()
	cached := study.NewCachedGenerator(study.NewGenerator(fake), time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cached.Flashcards(ctx, capitals); err != nil {
			t.Fatalf("Flashcards: %v", err)
		}
		if _, err := cached.Summarize(ctx, capitals, study.SummaryOptions{Length: study.LengthShort}); err != nil {
			t.Fatalf("Summarize: %v", err)
		}
	}
	if fake.Calls("flashcards") != 1 || fake.Calls("summarize") != 1 {
		t.Fatalf("expected one call each, got flashcards=%d summarize=%d", fake.Calls("flashcards"), fake.Calls("summarize"))
	}

	if _, err := cached.Summarize(ctx, capitals, study.SummaryOptions{Length: study.LengthComprehensive}); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if fake.Calls("summarize") != 2 {
		t.Fatal("different summary options must miss the cache")
	}
	if _, err := cached.Flashcards(ctx, capitals+" Oslo is the capital of Norway."); err != nil {
		t.Fatalf("Flashcards: %v", err)
	}
	if fake.Calls("flashcards") != 2 {
		t.Fatal("changed notes must miss the cache")
	}
}

func TestCachedGeneratorNeverCachesQuestions(t *testing.T) {
	fake := testsupport.NewFakeCompleter()
	cached := study.NewCachedGenerator(study.NewGenerator(fake), time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cached.Answer(ctx, capitals, "What is the capital of Italy?"); err != nil {
			t.Fatalf("Answer: %v", err)
		}
	}
	if fake.Calls("answer") != 2 {
		t.Fatalf("expected every question to reach the model, got %d", fake.Calls("answer"))
	}
}

func TestCachedGeneratorDoesNotCacheFailures(t *testing.T) {
	fake := testsupport.NewFakeCompleter().Respond("concepts", `{}`)
	cached := study.NewCachedGenerator(study.NewGenerator(fake), 0)
	ctx := context.Background()

	if _, err := cached.KeyConcepts(ctx, capitals); err == nil {
		t.Fatal("expected schema failure")
	}
	if cached.Len() != 0 {
		t.Fatal("failures must not be cached")
	}
}
