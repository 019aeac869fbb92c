package domain

import (
	"errors"
	"testing"
)

func TestBuildView_CurrentProgram(t *testing.T) {
	payload := &GuidePayload{Entries: []ProgramEntry{{
		Title:         "A",
		StartTime:     at("10:00"),
		EndTime:       at("11:00"),
		Description:   "d",
		ChapterNumber: 1,
	}}}

	v := BuildView(View{}, payload, at("10:30"), "Kan Bet")
	if v.State == nil || *v.State != "A" {
		t.Fatalf("state: want A, got %v", v.State)
	}
	if v.Attributes[AttrDescription] != "d" {
		t.Fatalf("description: got %v", v.Attributes[AttrDescription])
	}
	if v.Attributes[AttrChapterNumber] != 1 {
		t.Fatalf("chapter_number: got %v", v.Attributes[AttrChapterNumber])
	}
	if v.Attributes[AttrStartTime] != "2024-01-01T10:00:00" {
		t.Fatalf("start_time: got %v", v.Attributes[AttrStartTime])
	}
	if _, ok := v.Attributes[AttrNext]; ok {
		t.Fatalf("next should be absent, got %v", v.Attributes[AttrNext])
	}
	if v.Attributes[AttrAttribution] != Attribution || v.Attributes[AttrStationName] != "Kan Bet" {
		t.Fatalf("fixed attributes missing: %v", v.Attributes)
	}
}

func TestBuildView_KeepsPreviousWithoutPayload(t *testing.T) {
	title := "old"
	prev := View{State: &title, Attributes: map[string]any{AttrDescription: "old desc"}}

	for _, p := range []*GuidePayload{nil, {}} {
		v := BuildView(prev, p, at("10:00"), "Kan 11")
		if v.State != prev.State || v.Attributes[AttrDescription] != "old desc" {
			t.Fatalf("expected previous view, got %+v", v)
		}
	}
}

func TestBuildView_NoStaleFieldsWhenCurrentDisappears(t *testing.T) {
	payload := &GuidePayload{Entries: sortedGuide()}
	first := BuildView(View{}, payload, at("10:30"), "Kan 11")
	if _, ok := first.Attributes[AttrDescription]; !ok {
		t.Fatalf("expected description while a program is running")
	}

	second := BuildView(first, payload, at("09:00"), "Kan 11")
	if second.State != nil {
		t.Fatalf("state: want unset, got %q", *second.State)
	}
	for _, k := range []string{AttrDescription, AttrStartTime, AttrEndTime, AttrChapterNumber} {
		if _, ok := second.Attributes[k]; ok {
			t.Fatalf("attribute %s leaked from previous view", k)
		}
	}
	if second.Attributes[AttrNext] != "A" {
		t.Fatalf("next: want A, got %v", second.Attributes[AttrNext])
	}
	// la vue précédente n'est pas modifiée
	if _, ok := first.Attributes[AttrDescription]; !ok {
		t.Fatalf("previous attributes were mutated")
	}
}

func TestRefreshState_FailedKeepsPayload(t *testing.T) {
	var s *RefreshState
	ok := s.Succeeded(GuidePayload{StationID: "8", Entries: sortedGuide()}, at("10:00"))
	failed := ok.Failed(errors.New("timeout"), at("10:15"))

	if failed.LastSuccess {
		t.Fatalf("expected LastSuccess=false")
	}
	if failed.LastPayload != ok.LastPayload {
		t.Fatalf("expected previous payload to be kept")
	}
	if failed.LastError != "timeout" {
		t.Fatalf("LastError: got %q", failed.LastError)
	}
	if !failed.LastSuccessAt.Equal(at("10:00")) {
		t.Fatalf("LastSuccessAt: got %v", failed.LastSuccessAt)
	}
}

func TestStationName_LastWriteWins(t *testing.T) {
	name, ok := StationName("8")
	if !ok || name != "Kan Bet" {
		t.Fatalf("station 8: want Kan Bet, got %q (%v)", name, ok)
	}
	if _, ok := StationName("42"); ok {
		t.Fatalf("unexpected name for unknown station")
	}
}
