package bounties

import (
	"bountyboard/engine/library"
	"bountyboard/state/settlement"
)

const (
	KindBoard         = "board"
	KindBounty        = "bounty"
	KindPayoutReceipt = "payout_receipt"
)

// MaxTaskReferenceLength is the longest task reference accepted, in bytes.
const MaxTaskReferenceLength = 256

type Status string

const (
	Open      Status = "open"
	Claimed   Status = "claimed"
	Completed Status = "completed"
	Expired   Status = "expired"
)

// Board is stored at its custody address, which is also the spending authority over every escrow
// account created under it.
type Board struct {
	Kind                 string          `json:"kind"`
	Address              library.Account `json:"address"`
	Admin                library.Account `json:"admin"`
	Mint                 library.Account `json:"mint"`
	Bump                 uint8           `json:"bump"`
	TotalBountiesCreated uint64          `json:"total_bounties_created"`
	TotalDeposited       uint64          `json:"total_deposited"`
	TotalValuePaidOut    uint64          `json:"total_value_paid_out"`
	TotalPayouts         uint64          `json:"total_payouts"`
	LastPayoutTimestamp  int64           `json:"last_payout_timestamp"`
}

type Bounty struct {
	Kind          string          `json:"kind"`
	Address       library.Account `json:"address"`
	Board         library.Account `json:"board"`
	Sequence      uint64          `json:"sequence"`
	Bump          uint8           `json:"bump"`
	Amount        uint64          `json:"amount"`
	TaskReference string          `json:"task_reference"`
	ExpiresAt     int64           `json:"expires_at"`
	Status        Status          `json:"status"`
	Claimant      library.Account `json:"claimant,omitempty"`
	Escrow        library.Account `json:"escrow"`
	CreatedAt     int64           `json:"created_at"`
	ClaimedAt     int64           `json:"claimed_at,omitempty"`
	CompletedAt   int64           `json:"completed_at,omitempty"`
}

// EffectiveStatus is the status a reader should act on at time now. An open bounty past its
// deadline reads as Expired even though the stored status is still Open.
func (b Bounty) EffectiveStatus(now int64) Status {
	if b.Status == Open && now >= b.ExpiresAt {
		return Expired
	}
	return b.Status
}

// PayoutReceipt records one split payout.
type PayoutReceipt struct {
	Kind          string           `json:"kind"`
	Address       library.Account  `json:"address"`
	Board         library.Account  `json:"board"`
	Sequence      uint64           `json:"sequence"`
	TaskReference string           `json:"task_reference"`
	Bounty        library.Account  `json:"bounty,omitempty"`
	Escrow        library.Account  `json:"escrow"`
	Amount        uint64           `json:"amount"`
	Split         settlement.Split `json:"split"`
	Destination   library.Account  `json:"destination"`
	PublicPool    library.Account  `json:"public_pool"`
	Maintainers   library.Account  `json:"maintainers"`
	PaidAt        int64            `json:"paid_at"`
}

type Mapped struct {
	Board    Board    `json:"board"`
	Bounties []Bounty `json:"bounties"`
}

// Kind642000 initializes a board for a mint. The signer becomes the admin.
type Kind642000 struct {
	Mint library.Account `json:"mint"`
}

// Kind642002 creates a bounty funded from an account owned by the signer.
type Kind642002 struct {
	Board         library.Account `json:"board"`
	Funding       library.Account `json:"funding"`
	Amount        uint64          `json:"amount"`
	TaskReference string          `json:"task_reference"`
	ExpiresAt     int64           `json:"expires_at"`
}

// Kind642004 claims a bounty for the signer. The advance goes to RewardAccount.
type Kind642004 struct {
	Board         library.Account `json:"board"`
	Bounty        library.Account `json:"bounty"`
	RewardAccount library.Account `json:"reward_account"`
}

// Kind642006 pays out from Escrow. If Bounty is set it must be claimed, and it is completed by
// the payout.
type Kind642006 struct {
	Board         library.Account `json:"board"`
	Escrow        library.Account `json:"escrow"`
	Amount        uint64          `json:"amount"`
	TaskReference string          `json:"task_reference"`
	Destination   library.Account `json:"destination"`
	PublicPool    library.Account `json:"public_pool"`
	Maintainers   library.Account `json:"maintainers"`
	Bounty        library.Account `json:"bounty,omitempty"`
}
