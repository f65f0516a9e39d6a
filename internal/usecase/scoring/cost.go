package scoring

import "github.com/copyshield/copyshield/internal/domain"

// Costs configures the unitless cost model behind expected-cost reporting
// and threshold optimization. All values are externally configurable.
type Costs struct {
	// Processing is the fixed cost of executing each decision path; manual
	// review dominates because a human is involved.
	Processing map[domain.DecisionClass]float64 `json:"processing"`
	// Error is the cost of the decision being wrong: a wrongful takedown for
	// approve, a missed infringement for reject. Review has no error cost.
	Error map[domain.DecisionClass]float64 `json:"error"`
}

// DefaultCosts returns the standard cost table.
func DefaultCosts() Costs {
	return Costs{
		Processing: map[domain.DecisionClass]float64{
			domain.DecisionAutoApprove:  1,
			domain.DecisionManualReview: 25,
			domain.DecisionAutoReject:   2,
		},
		Error: map[domain.DecisionClass]float64{
			domain.DecisionAutoApprove:  120,
			domain.DecisionManualReview: 0,
			domain.DecisionAutoReject:   40,
		},
	}
}

func (c Costs) withDefaults() Costs {
	d := DefaultCosts()
	if c.Processing == nil {
		c.Processing = d.Processing
	}
	if c.Error == nil {
		c.Error = d.Error
	}
	return c
}

// Expected computes processing cost plus outcome probability times error
// cost for the chosen decision. For approvals the error probability is the
// false-positive estimate; for rejections it is the confidence itself (the
// chance the rejected candidate really was infringing).
func (c Costs) Expected(decision domain.DecisionClass, confidence, fpProb float64) float64 {
	cost := c.Processing[decision]
	switch decision {
	case domain.DecisionAutoApprove:
		cost += fpProb * c.Error[decision]
	case domain.DecisionAutoReject:
		cost += confidence * c.Error[decision]
	}
	return cost
}
