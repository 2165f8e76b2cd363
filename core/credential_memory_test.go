package core

import (
	"context"
	"testing"
)

func TestMemoryCredentialStore_PutGetClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()

	if _, ok, err := store.Get(ctx); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%t err=%v", ok, err)
	}
	pair := CredentialPair{AccessToken: "access", RefreshToken: "refresh"}
	if err := store.Put(ctx, pair); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := store.Get(ctx)
	if err != nil || !ok || got != pair {
		t.Fatalf("expected stored pair, got %+v ok=%t err=%v", got, ok, err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Get(ctx); ok {
		t.Fatalf("expected store to be empty after clear")
	}
}

func TestMemoryCredentialStore_RejectsPairWithoutAccessToken(t *testing.T) {
	store := NewMemoryCredentialStore()
	err := store.Put(context.Background(), CredentialPair{RefreshToken: "refresh"})
	if !HasTextCode(err, ErrorBadInput) {
		t.Fatalf("expected bad input error, got %v", err)
	}
	if _, ok, _ := store.Get(context.Background()); ok {
		t.Fatalf("expected rejected pair not to be stored")
	}
}

func TestMemorySnapshotStore_IsolatesSavedSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()
	snapshot := Snapshot{Categories: []Category{category("1", 1, item("10", 1, true))}, LastFetchedPage: 2}
	if err := store.Save(ctx, snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}
	snapshot.Categories[0].Items[0].Name = "mutated"

	loaded, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("expected snapshot, got ok=%t err=%v", ok, err)
	}
	if loaded.Categories[0].Items[0].Name != "item 10" || loaded.LastFetchedPage != 2 {
		t.Fatalf("expected isolated snapshot, got %+v", loaded)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Load(ctx); ok {
		t.Fatalf("expected empty snapshot store after clear")
	}
}
