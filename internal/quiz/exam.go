package quiz

import "time"

// MarginalWindow is how many percentage points below the pass threshold
// still count as a marginal result.
const MarginalWindow = 10

type Band string

const (
	BandPass     Band = "pass"
	BandMarginal Band = "marginal"
	BandFail     Band = "fail"
)

// Grade places a percentage in a band relative to passThreshold.
func Grade(percentage, passThreshold int) Band {
	switch {
	case percentage >= passThreshold:
		return BandPass
	case percentage >= passThreshold-MarginalWindow:
		return BandMarginal
	default:
		return BandFail
	}
}

// ExamOptions is the session configuration used by mock exams: answers can
// change until submit and nothing is revealed before it.
var ExamOptions = Options{Policy: AllowChange, Reveal: RevealOnSubmit}

// QuizOptions is the session configuration used by lesson quizzes.
var QuizOptions = Options{Policy: LockFirstAnswer, Reveal: RevealOnAnswer}

// ExamResult is a session result graded against a pass threshold.
type ExamResult struct {
	Result
	PassThreshold int  `json:"passThreshold"`
	Band          Band `json:"band"`
	Passed        bool `json:"passed"`
}

func GradeResult(r Result, passThreshold int) ExamResult {
	band := Grade(r.Percentage, passThreshold)
	return ExamResult{
		Result:        r,
		PassThreshold: passThreshold,
		Band:          band,
		Passed:        band == BandPass,
	}
}

// Deadline returns when a timed session must be submitted. A zero limit
// means the session is untimed.
func Deadline(startedAt time.Time, limit time.Duration) (time.Time, bool) {
	if limit <= 0 {
		return time.Time{}, false
	}
	return startedAt.Add(limit), true
}

// Expired reports whether now is at or past the deadline of a timed session.
func Expired(startedAt time.Time, limit time.Duration, now time.Time) bool {
	d, ok := Deadline(startedAt, limit)
	return ok && !now.Before(d)
}

// Remaining is the time left before the deadline, never negative.
func Remaining(startedAt time.Time, limit time.Duration, now time.Time) time.Duration {
	d, ok := Deadline(startedAt, limit)
	if !ok {
		return 0
	}
	if left := d.Sub(now); left > 0 {
		return left
	}
	return 0
}
