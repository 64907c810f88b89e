package internal

// schedulerTransitions are the row status moves the batch scheduler is allowed
// to make. Approved rows are deliberately absent as a source state: once a
// human approves a row, only an explicit re-enqueue naming that row (which
// goes through a human-driven transition first) may touch it again.
var schedulerTransitions = map[RowStatus][]RowStatus{
	RowPending:     {RowQueued},
	RowQueued:      {RowTranslating, RowPending},
	RowTranslating: {RowReview, RowPartial, RowError, RowPending},
	RowError:       {RowQueued},
	RowPartial:     {RowQueued},
	RowRejected:    {RowQueued},
}

// reviewTransitions are the moves driven by human review actions.
var reviewTransitions = map[RowStatus][]RowStatus{
	RowReview:   {RowApproved, RowRejected},
	RowPartial:  {RowApproved, RowRejected},
	RowError:    {RowRejected},
	RowRejected: {RowPending},
	RowApproved: {RowRejected},
}

// CanTransition reports whether the scheduler may move a row from one status
// to another. Queued/Translating → Pending is the cancellation revert.
func CanTransition(from, to RowStatus) bool {
	return contains(schedulerTransitions[from], to)
}

// CanReview reports whether a human review action may move a row from one
// status to another.
func CanReview(from, to RowStatus) bool {
	return contains(reviewTransitions[from], to)
}

func contains(list []RowStatus, s RowStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether a status needs no further pipeline work.
func (s RowStatus) Terminal() bool {
	return s == RowApproved
}
