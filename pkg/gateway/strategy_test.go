package gateway

import (
	"testing"
	"time"
)

func TestLotSize(t *testing.T) {
	if LotSize("NIFTY") != 75 {
		t.Fatal("expected NIFTY lot size 75")
	}
	if LotSize("BANKNIFTY") != 30 {
		t.Fatal("expected BANKNIFTY lot size 30")
	}
	if LotSize("UNKNOWN") != 75 {
		t.Fatal("expected default lot size 75")
	}
}

func TestExchangePair(t *testing.T) {
	ue, fo := ExchangePair("SENSEX")
	if ue != "BSE_INDEX" || fo != "BFO" {
		t.Fatalf("got %s/%s", ue, fo)
	}
	ue, fo = ExchangePair("NIFTY")
	if ue != "NSE_INDEX" || fo != "NFO" {
		t.Fatalf("got %s/%s", ue, fo)
	}
}

func TestBuildStrategyLegsStraddle(t *testing.T) {
	legs := BuildStrategyLegs("straddle", "SELL", 75, "10JUL25", "NRML", "MARKET")
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(legs))
	}
	if legs[0].OptionType != "CE" || legs[1].OptionType != "PE" {
		t.Fatalf("unexpected leg types: %+v", legs)
	}
	if legs[0].Action != "SELL" || legs[1].Action != "SELL" {
		t.Fatalf("expected same action both legs: %+v", legs)
	}
}

func TestBuildStrategyLegsIronCondorSell(t *testing.T) {
	legs := BuildStrategyLegs("iron_condor", "SELL", 75, "10JUL25", "NRML", "MARKET")
	if len(legs) != 4 {
		t.Fatalf("expected 4 legs, got %d", len(legs))
	}
	if legs[0].Action != "SELL" || legs[2].Action != "BUY" {
		t.Fatalf("unexpected iron condor actions: %+v", legs)
	}
}

func TestBuildStrategyLegsUnknown(t *testing.T) {
	if legs := BuildStrategyLegs("not_a_strategy", "SELL", 1, "10JUL25", "NRML", "MARKET"); legs != nil {
		t.Fatalf("expected nil for unknown strategy, got %v", legs)
	}
}

func TestFormatExpiryForAPI(t *testing.T) {
	if got := FormatExpiryForAPI("10-JUL-25"); got != "10JUL25" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveExpiryDateCurrentWeek(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	list := []string{"17-JUL-26", "10-JUL-26", "not-a-date"}
	got, ok := ResolveExpiryDate(list, "current_week", now)
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if got != "10JUL26" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveExpiryDateNextWeek(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	list := []string{"17-JUL-26", "10-JUL-26"}
	got, ok := ResolveExpiryDate(list, "next_week", now)
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if got != "17JUL26" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveExpiryDateCurrentMonth(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	list := []string{"10-JUL-26", "24-JUL-26", "28-AUG-26"}
	got, ok := ResolveExpiryDate(list, "current_month", now)
	if !ok {
		t.Fatal("expected resolution to succeed")
	}
	if got != "24JUL26" {
		t.Fatalf("got %q, want last July expiry", got)
	}
}

func TestResolveExpiryDateNoValidEntries(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if _, ok := ResolveExpiryDate([]string{"garbage"}, "current_week", now); ok {
		t.Fatal("expected failure with no parseable entries")
	}
}
