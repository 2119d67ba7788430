package launchpad

import "errors"

var (
	// ErrInvalidParameters marks rejected campaign creation input.
	ErrInvalidParameters = errors.New("launchpad: invalid parameters")
	// ErrInsufficientStake is returned when a creator does not hold the
	// factory's minimum stake-token balance.
	ErrInsufficientStake = errors.New("launchpad: insufficient stake")
	// ErrUnauthorized guards owner-gated factory operations.
	ErrUnauthorized = errors.New("launchpad: unauthorized")
	// ErrNotFound is returned when no campaign exists at an address.
	ErrNotFound = errors.New("launchpad: campaign not found")
	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("launchpad: amount must be positive")
	// ErrSaleClosed is returned by Contribute after the deadline or after
	// the campaign has resolved.
	ErrSaleClosed = errors.New("launchpad: sale closed")
	// ErrOutOfRange rejects contributions outside [minBuy, maxBuy].
	ErrOutOfRange = errors.New("launchpad: contribution out of range")
	// ErrNotYetClosed is returned by Finalize before the deadline.
	ErrNotYetClosed = errors.New("launchpad: deadline not reached")
	// ErrAlreadyResolved is returned by Finalize once an outcome is set.
	ErrAlreadyResolved = errors.New("launchpad: already resolved")
	// ErrNotEligible covers withdraw/refund calls in the wrong terminal
	// state or on a record that already settled.
	ErrNotEligible = errors.New("launchpad: not eligible")
	// ErrCampaignClosed is returned by pre-resolution-only operations once
	// the campaign has resolved.
	ErrCampaignClosed = errors.New("launchpad: campaign closed")
	// ErrTransferFailed wraps ledger transfer failures.
	ErrTransferFailed = errors.New("launchpad: token transfer failed")
	// ErrInsufficientRewardSupply is returned when the campaign's reward
	// balance cannot cover a computed payout.
	ErrInsufficientRewardSupply = errors.New("launchpad: insufficient reward supply")
	// ErrInsufficientBalance is returned when a contributor's native
	// balance cannot cover the attached value.
	ErrInsufficientBalance = errors.New("launchpad: insufficient balance")
)
