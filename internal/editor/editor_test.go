package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/SebbyC/runiuni-agent-pipeline/internal/event"
	"github.com/SebbyC/runiuni-agent-pipeline/internal/llm"
)

type fakeProvider struct {
	reply string
	err   error
}

func (f *fakeProvider) Complete(context.Context, llm.CompletionRequest) (llm.CompletionResponse, error) {
	if f.err != nil {
		return llm.CompletionResponse{}, f.err
	}
	return llm.CompletionResponse{Content: f.reply}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func TestPolish_GeneratesMissingDescription(t *testing.T) {
	e := New(&fakeProvider{reply: `"Live jazz on the waterfront with local favorites. Doors at seven."`})

	ev := event.Event{Name: "Jazz Night", Venue: "Vinyl Music Hall", City: "Pensacola"}
	e.Polish(context.Background(), &ev)

	if ev.Description != "Live jazz on the waterfront with local favorites. Doors at seven." {
		t.Errorf("description = %q (quotes should be stripped)", ev.Description)
	}
}

func TestPolish_KeepsExistingDescription(t *testing.T) {
	e := New(&fakeProvider{reply: "generated text that must not be used"})

	ev := event.Event{Name: "Jazz Night", Description: "Original copy."}
	e.Polish(context.Background(), &ev)

	if ev.Description != "Original copy." {
		t.Errorf("description overwritten: %q", ev.Description)
	}
}

func TestPolish_FallbackOnProviderError(t *testing.T) {
	e := New(&fakeProvider{err: errors.New("rate limited")})

	ev := event.Event{Name: "Jazz Night", Venue: "Vinyl Music Hall"}
	e.Polish(context.Background(), &ev)

	want := "Join us for Jazz Night at Vinyl Music Hall. Check back soon for more details!"
	if ev.Description != want {
		t.Errorf("description = %q, want %q", ev.Description, want)
	}
}

func TestPolish_FallbackOnDegenerateReply(t *testing.T) {
	e := New(&fakeProvider{reply: "ok"})

	ev := event.Event{Name: "Jazz Night"}
	e.Polish(context.Background(), &ev)

	if ev.Description != "Join us for Jazz Night. Check back soon for more details!" {
		t.Errorf("description = %q", ev.Description)
	}
}

func TestPolish_NilProviderStillFixesFields(t *testing.T) {
	e := New(nil)

	ev := event.Event{City: "Pensacola"}
	e.Polish(context.Background(), &ev)

	if ev.Name != "Untitled Event" {
		t.Errorf("name = %q", ev.Name)
	}
	if len(ev.TagIDs) != 1 || ev.TagIDs[0] != 1 {
		t.Errorf("tag ids = %v", ev.TagIDs)
	}
	if ev.District != "Escambia County" {
		t.Errorf("district = %q", ev.District)
	}
	if ev.Lat == nil || *ev.Lat != 30.421309 {
		t.Errorf("lat = %v", ev.Lat)
	}
}

func TestPolish_OutOfRangeCoordinatesCleared(t *testing.T) {
	e := New(nil)

	ev := event.Event{
		Name: "Data Glitch Fest",
		City: "Tech City",
		Lat:  event.Float(95),
		Lng:  event.Float(999),
	}
	e.Polish(context.Background(), &ev)

	if ev.Lat != nil || ev.Lng != nil {
		t.Errorf("invalid coordinates kept: %v %v", ev.Lat, ev.Lng)
	}
}

func TestPolish_NonHomeMarketGetsNoDefaults(t *testing.T) {
	e := New(nil)

	ev := event.Event{Name: "Community Workshop", City: "Anytown", State: "CA"}
	e.Polish(context.Background(), &ev)

	if ev.District != "" {
		t.Errorf("district defaulted for non-home city: %q", ev.District)
	}
	if ev.Lat != nil || ev.Lng != nil {
		t.Errorf("coordinates defaulted for non-home city: %v %v", ev.Lat, ev.Lng)
	}
}

func TestPolishAll_ProcessesEverything(t *testing.T) {
	e := New(&fakeProvider{reply: "A well-formed generated description for testing purposes."})

	events := []event.Event{
		{Name: "A"},
		{Name: "B", Description: "kept"},
		{City: "Pensacola"},
	}
	out := e.PolishAll(context.Background(), events)

	if len(out) != 3 {
		t.Fatalf("got %d events, want 3", len(out))
	}
	if out[1].Description != "kept" {
		t.Errorf("existing description lost: %q", out[1].Description)
	}
	if out[2].Name != "Untitled Event" {
		t.Errorf("name not defaulted: %q", out[2].Name)
	}
}
