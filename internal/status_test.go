package internal

import "testing"

func TestCanTransition_HappyPath(t *testing.T) {
	steps := []struct{ from, to RowStatus }{
		{RowPending, RowQueued},
		{RowQueued, RowTranslating},
		{RowTranslating, RowReview},
	}
	for _, s := range steps {
		if !CanTransition(s.from, s.to) {
			t.Errorf("expected %s -> %s to be allowed", s.from, s.to)
		}
	}
}

func TestCanTransition_CancellationRevert(t *testing.T) {
	if !CanTransition(RowQueued, RowPending) {
		t.Error("expected queued -> pending on cancel")
	}
	if !CanTransition(RowTranslating, RowPending) {
		t.Error("expected translating -> pending on cancel")
	}
}

func TestCanTransition_ApprovedIsProtected(t *testing.T) {
	for _, to := range []RowStatus{RowQueued, RowTranslating, RowPending, RowError} {
		if CanTransition(RowApproved, to) {
			t.Errorf("scheduler must not move an approved row to %s", to)
		}
	}
}

func TestCanTransition_ErrorReenqueue(t *testing.T) {
	if !CanTransition(RowError, RowQueued) {
		t.Error("expected error rows to be re-enqueueable")
	}
}

func TestCanReview(t *testing.T) {
	if !CanReview(RowReview, RowApproved) {
		t.Error("expected review -> approved")
	}
	if !CanReview(RowPartial, RowRejected) {
		t.Error("expected partial -> rejected")
	}
	if !CanReview(RowRejected, RowPending) {
		t.Error("expected rejected -> pending (re-translate)")
	}
	if CanReview(RowPending, RowApproved) {
		t.Error("pending rows cannot be approved directly")
	}
}

func TestTerminal(t *testing.T) {
	if !RowApproved.Terminal() {
		t.Error("approved should be terminal")
	}
	if RowReview.Terminal() {
		t.Error("review is not terminal")
	}
}
