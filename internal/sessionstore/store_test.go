package sessionstore_test

import (
	"context"
	"testing"

	"notewise/internal/sessionstore"
	"notewise/internal/testsupport"
)

func TestOpenAppliesMigrationsAndIssuesSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != "001_init" {
		t.Fatalf("unexpected schema version %q", version)
	}
	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.SessionID == "" || snap.Version != 0 || snap.NotesText != "" {
		t.Fatalf("unexpected fresh session %+v", snap)
	}

	store.Close()
	reopened := testsupport.MustOpenStore(t, cfg)
	again, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load after reopen: %v", err)
	}
	if again.SessionID != snap.SessionID {
		t.Fatalf("session id changed across reopen: %q vs %q", snap.SessionID, again.SessionID)
	}
}

func TestSaveNotesClearsDependentStateOnNewVersion(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.SaveNotes(ctx, sessionstore.Snapshot{NotesText: "first", Version: 1, Digest: "d1"}); err != nil {
		t.Fatalf("SaveNotes: %v", err)
	}
	if err := store.PutArtifact(ctx, sessionstore.ArtifactSummary, 1, map[string]string{"text": "s"}); err != nil {
		t.Fatalf("PutArtifact: %v", err)
	}
	if err := store.SaveHighlights(ctx, []string{"p-1-1"}); err != nil {
		t.Fatalf("SaveHighlights: %v", err)
	}
	if err := store.SaveAnnotations(ctx, map[string]string{"p-1-1": "remember"}); err != nil {
		t.Fatalf("SaveAnnotations: %v", err)
	}
	if err := store.AppendQA(ctx, 1, "q", "a"); err != nil {
		t.Fatalf("AppendQA: %v", err)
	}

	// Same version keeps everything.
	if err := store.SaveNotes(ctx, sessionstore.Snapshot{NotesText: "first", Version: 1, Digest: "d1"}); err != nil {
		t.Fatalf("SaveNotes same version: %v", err)
	}
	if keys, _, _ := store.LoadHighlights(ctx); len(keys) != 1 {
		t.Fatalf("expected highlights to survive same-version save, got %v", keys)
	}

	if err := store.SaveNotes(ctx, sessionstore.Snapshot{NotesText: "second", Version: 2, Digest: "d2"}); err != nil {
		t.Fatalf("SaveNotes new version: %v", err)
	}
	var out map[string]string
	if ok, err := store.GetArtifact(ctx, sessionstore.ArtifactSummary, 1, &out); err != nil || ok {
		t.Fatalf("expected artifact cleared, ok=%v err=%v", ok, err)
	}
	if keys, _, _ := store.LoadHighlights(ctx); len(keys) != 0 {
		t.Fatalf("expected highlights cleared, got %v", keys)
	}
	if ann, _, _ := store.LoadAnnotations(ctx); len(ann) != 0 {
		t.Fatalf("expected annotations cleared, got %v", ann)
	}
	history, err := store.History(ctx)
	if err != nil || len(history) != 0 {
		t.Fatalf("expected empty history, got %v err=%v", history, err)
	}
	snap, _ := store.Load(ctx)
	if snap.NotesText != "second" || snap.Version != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestArtifactsAreScopedToNotesVersion(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	type payload struct{ Text string }
	if err := store.PutArtifact(ctx, sessionstore.ArtifactConcepts, 3, payload{Text: "v3"}); err != nil {
		t.Fatalf("PutArtifact: %v", err)
	}
	var got payload
	if ok, err := store.GetArtifact(ctx, sessionstore.ArtifactConcepts, 3, &got); err != nil || !ok || got.Text != "v3" {
		t.Fatalf("expected v3 artifact, ok=%v err=%v got=%+v", ok, err, got)
	}
	if ok, _ := store.GetArtifact(ctx, sessionstore.ArtifactConcepts, 4, &got); ok {
		t.Fatal("artifact from another version must not be returned")
	}
	if err := store.DeleteArtifact(ctx, sessionstore.ArtifactConcepts); err != nil {
		t.Fatalf("DeleteArtifact: %v", err)
	}
	if ok, _ := store.GetArtifact(ctx, sessionstore.ArtifactConcepts, 3, &got); ok {
		t.Fatal("expected artifact deleted")
	}
}

func TestAnnotationKeysWrittenOnlyWhenNonEmpty(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.SaveHighlights(ctx, []string{"li-4-1", "p-3-1"}); err != nil {
		t.Fatalf("SaveHighlights: %v", err)
	}
	raw, ok, err := store.Get(ctx, sessionstore.HighlightsKey)
	if err != nil || !ok {
		t.Fatalf("expected highlights key, ok=%v err=%v", ok, err)
	}
	if string(raw) != `["li-4-1","p-3-1"]` {
		t.Fatalf("unexpected highlights payload %s", raw)
	}

	if err := store.SaveHighlights(ctx, nil); err != nil {
		t.Fatalf("SaveHighlights empty: %v", err)
	}
	if _, ok, _ := store.Get(ctx, sessionstore.HighlightsKey); ok {
		t.Fatal("empty highlight set must delete the key")
	}

	if err := store.SaveAnnotations(ctx, map[string]string{"p-3-1": "check date"}); err != nil {
		t.Fatalf("SaveAnnotations: %v", err)
	}
	if _, ok, _ := store.Get(ctx, sessionstore.AnnotationsKey); !ok {
		t.Fatal("expected annotations key")
	}
	if err := store.SaveAnnotations(ctx, map[string]string{}); err != nil {
		t.Fatalf("SaveAnnotations empty: %v", err)
	}
	if _, ok, _ := store.Get(ctx, sessionstore.AnnotationsKey); ok {
		t.Fatal("empty annotations must delete the key")
	}
}

func TestCorruptPayloadsLoadAsEmpty(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.Put(ctx, sessionstore.HighlightsKey, []byte("{not json")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	keys, discarded, err := store.LoadHighlights(ctx)
	if err != nil {
		t.Fatalf("LoadHighlights: %v", err)
	}
	if len(keys) != 0 || !discarded {
		t.Fatalf("expected discarded empty set, got %v discarded=%v", keys, discarded)
	}
	if err := store.Put(ctx, sessionstore.AnnotationsKey, []byte("[1,2]")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ann, discarded, err := store.LoadAnnotations(ctx)
	if err != nil || len(ann) != 0 || !discarded {
		t.Fatalf("expected discarded annotations, got %v discarded=%v err=%v", ann, discarded, err)
	}
}

func TestResetWipesStateAndRotatesSession(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	before, _ := store.Load(ctx)
	_ = store.SaveNotes(ctx, sessionstore.Snapshot{NotesText: "n", Version: 1, Digest: "d", Source: "a.txt", InputMode: "file"})
	_ = store.AppendQA(ctx, 1, "q", "a")
	_ = store.SaveHighlights(ctx, []string{"p-1-1"})

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	after, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if after.SessionID == before.SessionID {
		t.Fatal("expected a new session id")
	}
	if after.NotesText != "" || after.Version != 0 || after.Source != "" {
		t.Fatalf("expected cleared session, got %+v", after)
	}
	if history, _ := store.History(ctx); len(history) != 0 {
		t.Fatalf("expected empty history, got %v", history)
	}
	if _, ok, _ := store.Get(ctx, sessionstore.HighlightsKey); ok {
		t.Fatal("expected highlights cleared")
	}
}

func TestCheckHealth(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	_ = store.AppendQA(ctx, 0, "q", "a")

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if !health.Readable || !health.IntegrityCheck || health.Questions != 1 || health.SchemaVersion == "" {
		t.Fatalf("unexpected health %+v", health)
	}
}
