package retention

import (
	"fmt"
	"io"
	"testing"

	"github.com/hatira-labs/hatira/analyzer"
	"github.com/hatira-labs/hatira/logging"
)

func newTestEngine() *Engine {
	log := logging.New()
	log.SetOutput(io.Discard)
	return New(log, Config{})
}

func topicSetOf(n int) []string {
	topics := make([]string, n)
	for i := range topics {
		topics[i] = fmt.Sprintf("Konu %d", i+1)
	}
	return topics
}

func TestDecideStoresImportantCandidate(t *testing.T) {
	e := newTestEngine()

	outcome := e.Decide(&analyzer.Analysis{
		Importance:  7,
		Topics:      []string{"Aile", "İlişkiler"},
		ShouldStore: true,
	}, false, []string{"İş"})

	if outcome.Decision != Store {
		t.Fatalf("decision = %v, want store", outcome.Decision)
	}
	if outcome.Topic != "Aile" {
		t.Errorf("topic = %q, want Aile", outcome.Topic)
	}
	if len(outcome.SecondaryTopics) != 1 || outcome.SecondaryTopics[0] != "İlişkiler" {
		t.Errorf("secondary topics = %v, want [İlişkiler]", outcome.SecondaryTopics)
	}
}

func TestDecideAutomaticImportanceFloor(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		importance  int
		shouldStore bool
		want        Decision
	}{
		{5, true, RejectLowValue},
		{6, true, Store},
		{9, false, RejectLowValue},
		{3, true, RejectLowValue},
	}

	for _, tt := range tests {
		outcome := e.Decide(&analyzer.Analysis{
			Importance:  tt.importance,
			Topics:      []string{"Genel"},
			ShouldStore: tt.shouldStore,
		}, false, nil)
		if outcome.Decision != tt.want {
			t.Errorf("importance %d shouldStore %v: decision = %v, want %v",
				tt.importance, tt.shouldStore, outcome.Decision, tt.want)
		}
	}
}

func TestDecideExplicitBypassesFloor(t *testing.T) {
	e := newTestEngine()

	// Explicit saves carry the analyzer's 6-point floor, but the engine
	// must not re-apply the automatic gate even for lower values.
	outcome := e.Decide(&analyzer.Analysis{
		Importance:  6,
		Topics:      []string{"Kullanıcı Talebi"},
		ShouldStore: true,
	}, true, nil)
	if outcome.Decision != Store {
		t.Errorf("decision = %v, want store", outcome.Decision)
	}
}

func TestDecideDuplicate(t *testing.T) {
	e := newTestEngine()

	outcome := e.Decide(&analyzer.Analysis{
		Importance:  2,
		Topics:      []string{"Kullanıcı Talebi"},
		ShouldStore: false,
		IsDuplicate: true,
	}, true, nil)
	if outcome.Decision != RejectDuplicate {
		t.Errorf("decision = %v, want reject_duplicate", outcome.Decision)
	}
}

func TestDecideTopicCapAutomatic(t *testing.T) {
	e := newTestEngine()
	atCap := topicSetOf(DefaultMaxTopics)

	// Novel topic at the cap: rejected.
	outcome := e.Decide(&analyzer.Analysis{
		Importance:  8,
		Topics:      []string{"Yeni Konu"},
		ShouldStore: true,
	}, false, atCap)
	if outcome.Decision != RejectTopicLimit {
		t.Errorf("novel topic at cap: decision = %v, want reject_topic_limit", outcome.Decision)
	}

	// Existing topic at the cap: accepted regardless of count.
	outcome = e.Decide(&analyzer.Analysis{
		Importance:  8,
		Topics:      []string{"Konu 3"},
		ShouldStore: true,
	}, false, atCap)
	if outcome.Decision != Store {
		t.Errorf("existing topic at cap: decision = %v, want store", outcome.Decision)
	}
}

func TestDecideTopicCapExplicitRetags(t *testing.T) {
	e := newTestEngine()
	atCap := topicSetOf(DefaultMaxTopics)

	outcome := e.Decide(&analyzer.Analysis{
		Importance:  6,
		Topics:      []string{"Yeni Konu"},
		ShouldStore: true,
	}, true, atCap)

	if outcome.Decision != Store {
		t.Fatalf("decision = %v, want store with fallback topic", outcome.Decision)
	}
	if !outcome.Retagged {
		t.Error("Retagged flag not set")
	}
	if outcome.Topic != "Genel Anı" {
		t.Errorf("topic = %q, want Genel Anı", outcome.Topic)
	}
}

func TestDecideSecondaryTopicFiltering(t *testing.T) {
	e := New(nil, Config{MaxTopics: 3})
	e.log.SetOutput(io.Discard)

	// Set holds 2 topics; primary "Aile" is novel and takes the third
	// slot, so the novel secondary "Spor" must drop while the existing
	// secondary "İş" survives.
	outcome := e.Decide(&analyzer.Analysis{
		Importance:  7,
		Topics:      []string{"Aile", "Spor", "İş"},
		ShouldStore: true,
	}, false, []string{"İş", "Sağlık"})

	if outcome.Decision != Store {
		t.Fatalf("decision = %v, want store", outcome.Decision)
	}
	if len(outcome.SecondaryTopics) != 1 || outcome.SecondaryTopics[0] != "İş" {
		t.Errorf("secondary topics = %v, want [İş]", outcome.SecondaryTopics)
	}
}

func TestDecideCaseInsensitiveTopicMatch(t *testing.T) {
	e := newTestEngine()
	atCap := topicSetOf(DefaultMaxTopics - 1)
	atCap = append(atCap, "aile")

	outcome := e.Decide(&analyzer.Analysis{
		Importance:  7,
		Topics:      []string{"Aile"},
		ShouldStore: true,
	}, false, atCap)
	if outcome.Decision != Store {
		t.Errorf("case-variant existing topic rejected: %v", outcome.Decision)
	}
}

func TestDecideMissingTopicsUsesFallback(t *testing.T) {
	e := newTestEngine()

	outcome := e.Decide(&analyzer.Analysis{
		Importance:  7,
		Topics:      nil,
		ShouldStore: true,
	}, false, nil)
	if outcome.Decision != Store {
		t.Fatalf("decision = %v, want store", outcome.Decision)
	}
	if outcome.Topic != "Genel Anı" {
		t.Errorf("topic = %q, want fallback Genel Anı", outcome.Topic)
	}
}
