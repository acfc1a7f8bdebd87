package settlement

const (
	DeveloperWeight   uint64 = 995
	PublicPoolWeight  uint64 = 3
	MaintainersWeight uint64 = 2
	WeightDenominator uint64 = 1000
)

// Split is the three way division of a payout. The shares do not have to add up to the payout
// amount, whatever is lost to truncation stays in escrow.
type Split struct {
	Developer   uint64 `json:"developer"`
	PublicPool  uint64 `json:"public_pool"`
	Maintainers uint64 `json:"maintainers"`
}

func (s Split) Total() (uint64, error) {
	t, err := Add(s.Developer, s.PublicPool)
	if err != nil {
		return 0, err
	}
	return Add(t, s.Maintainers)
}

// Advance is the part of a bounty paid to the claimant on claim.
func Advance(amount uint64) uint64 {
	return amount / 2
}

// Share computes amount * weight / 1000, failing if the multiplication overflows.
func Share(amount, weight uint64) (uint64, error) {
	product, err := Mul(amount, weight)
	if err != nil {
		return 0, err
	}
	return Div(product, WeightDenominator)
}

func SplitPayout(amount uint64) (s Split, e error) {
	if s.Developer, e = Share(amount, DeveloperWeight); e != nil {
		return Split{}, e
	}
	if s.PublicPool, e = Share(amount, PublicPoolWeight); e != nil {
		return Split{}, e
	}
	if s.Maintainers, e = Share(amount, MaintainersWeight); e != nil {
		return Split{}, e
	}
	return s, nil
}
