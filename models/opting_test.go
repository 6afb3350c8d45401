package models

import (
	"testing"
	"time"
)

func TestOptingDecisionValidity(t *testing.T) {
	decision := ReviewerOptingDecision{
		OptingStatus: OptingOptIn,
		OptingDate:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	if !decision.IsValidAt(time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("decision must stay valid within its UTC year")
	}
	if decision.IsValidAt(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("decision must expire at the UTC year boundary")
	}

	// A decision made Dec 31 23:30 UTC-5 lands in the next UTC year.
	est := time.FixedZone("EST", -5*3600)
	late := ReviewerOptingDecision{
		OptingStatus: OptingOptOut,
		OptingDate:   time.Date(2026, 12, 31, 23, 30, 0, 0, est),
	}
	if late.IsValidAt(time.Date(2026, 12, 31, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("UTC year of the decision governs, not the local year")
	}
	if !late.IsValidAt(time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("decision belongs to the UTC year it maps into")
	}
}

func TestDelayedCallValidity(t *testing.T) {
	call := DelayedCall{RemainingTries: 1}
	if !call.IsValid() {
		t.Fatalf("call with budget must be valid")
	}
	call.RemainingTries = 0
	if call.IsValid() {
		t.Fatalf("call without budget must be invalid")
	}
}
