package betting

import "errors"

var (
	// ErrInvalidStake is returned when the stake is zero or negative.
	ErrInvalidStake = errors.New("invalid stake")
	// ErrInvalidMultiplier is returned when a cash-out claims a multiplier
	// below 1.0 or above the value the round has actually reached.
	ErrInvalidMultiplier = errors.New("invalid multiplier")
	// ErrAlreadyBet is returned when the user already has a bet this round.
	ErrAlreadyBet = errors.New("already placed a bet this round")
	// ErrNoBetFound is returned when the user has no bet this round.
	ErrNoBetFound = errors.New("no bet found for this round")
	// ErrAlreadyCashedOut is returned when the bet's multiplier is set.
	ErrAlreadyCashedOut = errors.New("already cashed out")
	// ErrRoundNotAcceptingBets is returned when the phase is past RUNNING.
	ErrRoundNotAcceptingBets = errors.New("round is not accepting bets")
	// ErrRoundNotRunning is returned when a cash-out arrives outside
	// RUNNING, including any cash-out racing an already recorded crash.
	ErrRoundNotRunning = errors.New("round is not running")
	// ErrPayoutFailed is returned when the registry recorded a win but the
	// ledger credit failed. The case needs manual reconciliation.
	ErrPayoutFailed = errors.New("payout failed")
)
