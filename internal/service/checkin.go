package service

import (
	"context"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/metrics"
)

type CheckInOutcome string

const (
	OutcomeCheckedIn        CheckInOutcome = "checked_in"
	OutcomeAlreadyCheckedIn CheckInOutcome = "already_checked_in"
	OutcomeNotApproved      CheckInOutcome = "not_approved"
	OutcomeNotFound         CheckInOutcome = "not_found"
)

type CheckInResult struct {
	Outcome      CheckInOutcome
	AttendeeName string
}

// CheckInVerifier converts a scanned token (a join-request id) into a
// single, idempotent check-in. It only ever performs the
// approved -> attended edge of the request state machine.
type CheckInVerifier struct {
	requests domain.RequestRepository
}

func NewCheckInVerifier(requests domain.RequestRepository) *CheckInVerifier {
	return &CheckInVerifier{requests: requests}
}

// Verify resolves the token and applies the terminal transition. All four
// outcomes are ordinary results, not errors; an error is returned only for
// store failures. Repeated scans of the same badge never double-count: the
// status write is conditioned on the stored status still being approved, so
// of two racing scans one wins checked_in and the other observes
// already_checked_in.
func (v *CheckInVerifier) Verify(ctx context.Context, token string) (CheckInResult, error) {
	req, err := v.requests.GetByID(ctx, token)
	if err != nil {
		if domain.IsCode(err, domain.CodeNotFound) {
			metrics.RecordCheckIn(string(OutcomeNotFound))
			return CheckInResult{Outcome: OutcomeNotFound}, nil
		}
		return CheckInResult{}, err
	}

	switch req.Status {
	case domain.RequestApproved:
		err := v.requests.SetStatus(ctx, req.ID, domain.RequestApproved, domain.RequestAttended)
		if err != nil {
			if domain.IsCode(err, domain.CodeInvalidState) {
				// lost the race to a concurrent scan
				metrics.RecordCheckIn(string(OutcomeAlreadyCheckedIn))
				return CheckInResult{Outcome: OutcomeAlreadyCheckedIn, AttendeeName: req.AttendeeName}, nil
			}
			return CheckInResult{}, err
		}
		metrics.RecordCheckIn(string(OutcomeCheckedIn))
		return CheckInResult{Outcome: OutcomeCheckedIn, AttendeeName: req.AttendeeName}, nil

	case domain.RequestAttended:
		metrics.RecordCheckIn(string(OutcomeAlreadyCheckedIn))
		return CheckInResult{Outcome: OutcomeAlreadyCheckedIn, AttendeeName: req.AttendeeName}, nil

	default: // pending or rejected
		metrics.RecordCheckIn(string(OutcomeNotApproved))
		return CheckInResult{Outcome: OutcomeNotApproved, AttendeeName: req.AttendeeName}, nil
	}
}
