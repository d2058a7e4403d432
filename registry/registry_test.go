package registry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/places"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/registry"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

func sampleRecord(name string) registry.Record {
	return registry.Record{
		Slots: session.Slots{"cuisine": "thai", "location": "downtown"},
		Results: []places.Candidate{
			{Name: name, Address: "1 Main St", Rating: 4.5, UserRatingCount: 120, Score: 9.5},
		},
	}
}

func TestMemory_SaveAndLookup(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemory(8)

	if err := store.Save(ctx, "id-1", sampleRecord("Siam Square")); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec, err := store.Lookup(ctx, "id-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(rec.Results) != 1 || rec.Results[0].Name != "Siam Square" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestMemory_LookupUnknown(t *testing.T) {
	store := registry.NewMemory(8)
	_, err := store.Lookup(context.Background(), "nope")
	if !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemory_FIFOEviction(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemory(3)

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("id-%d", i)
		if err := store.Save(ctx, id, sampleRecord(id)); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	if store.Len() != 3 {
		t.Fatalf("len = %d, want 3", store.Len())
	}
	if _, err := store.Lookup(ctx, "id-0"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatal("oldest record should have been evicted")
	}
	if _, err := store.Lookup(ctx, "id-4"); err != nil {
		t.Fatalf("newest record missing: %v", err)
	}
}

func TestMemory_OverwriteDoesNotGrow(t *testing.T) {
	ctx := context.Background()
	store := registry.NewMemory(3)

	for i := 0; i < 3; i++ {
		_ = store.Save(ctx, "same-id", sampleRecord(fmt.Sprintf("v%d", i)))
	}
	if store.Len() != 1 {
		t.Fatalf("len = %d, want 1 after overwrites", store.Len())
	}
	rec, err := store.Lookup(ctx, "same-id")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rec.Results[0].Name != "v2" {
		t.Fatalf("expected latest write, got %q", rec.Results[0].Name)
	}
}
