package handler

// CreateBondRequest represents a request to issue a new bond. Monetary
// amounts are decimal strings with at most two fraction digits.
type CreateBondRequest struct {
	Name              string `json:"name" binding:"required"`
	Issuer            string `json:"issuer" binding:"required"`
	Description       string `json:"description"`
	FaceValue         string `json:"face_value" binding:"required"`
	CouponRateBps     int64  `json:"coupon_rate_bps" binding:"min=0,max=10000"`
	MaturityAt        string `json:"maturity_at" binding:"required"`
	MinimumInvestment string `json:"minimum_investment" binding:"required"`
}

// BondResponse represents a bond in API responses
type BondResponse struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Issuer            string `json:"issuer"`
	Description       string `json:"description,omitempty"`
	FaceValue         string `json:"face_value"`
	CouponRateBps     int64  `json:"coupon_rate_bps"`
	IssueAt           string `json:"issue_at"`
	MaturityAt        string `json:"maturity_at"`
	MinimumInvestment string `json:"minimum_investment"`
	State             string `json:"state"`
	TotalRaised       string `json:"total_raised"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// BondListResponse represents a list of bonds in API responses
type BondListResponse struct {
	Bonds []BondResponse `json:"bonds"`
}

// BondStatsResponse represents per-bond statistics in API responses
type BondStatsResponse struct {
	BondID         int64  `json:"bond_id"`
	State          string `json:"state"`
	FaceValue      string `json:"face_value"`
	CouponRateBps  int64  `json:"coupon_rate_bps"`
	TotalRaised    string `json:"total_raised"`
	InvestorCount  int64  `json:"investor_count"`
	UtilizationBps int64  `json:"utilization_bps"`
	DaysToMaturity int64  `json:"days_to_maturity"`
	MaturityAt     string `json:"maturity_at"`
}

// InvestorYieldResponse is the investor-specific section of a yield quote
type InvestorYieldResponse struct {
	Principal        string `json:"principal"`
	AccruedUnclaimed string `json:"accrued_unclaimed"`
	AnnualInterest   string `json:"annual_interest"`
}

// BondYieldResponse represents a yield quote in API responses. Bond-level
// amounts are quoted against a reference $1,000.00 stake.
type BondYieldResponse struct {
	BondID            int64                  `json:"bond_id"`
	State             string                 `json:"state"`
	CouponRateBps     int64                  `json:"coupon_rate_bps"`
	ReferenceStake    string                 `json:"reference_stake"`
	AnnualInterest    string                 `json:"annual_interest"`
	AccruedSinceIssue string                 `json:"accrued_since_issue"`
	DaysToMaturity    int64                  `json:"days_to_maturity"`
	MaturityAt        string                 `json:"maturity_at"`
	Investor          *InvestorYieldResponse `json:"investor,omitempty"`
}

// InvestRequest represents a request to invest into a bond
type InvestRequest struct {
	BondID  int64  `json:"bond_id" binding:"required,gt=0"`
	Address string `json:"address" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// PositionRequest represents a claim or redeem request on one position
type PositionRequest struct {
	BondID  int64  `json:"bond_id" binding:"required,gt=0"`
	Address string `json:"address" binding:"required"`
}

// PositionResponse represents a position in API responses
type PositionResponse struct {
	BondID          int64  `json:"bond_id"`
	InvestorKey     string `json:"investor_key"`
	Principal       string `json:"principal"`
	ClaimedInterest string `json:"claimed_interest"`
	LastAccrualAt   string `json:"last_accrual_at"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// ClaimResponse represents the outcome of an interest claim
type ClaimResponse struct {
	BondID          int64  `json:"bond_id"`
	InvestorKey     string `json:"investor_key"`
	ClaimedInterest string `json:"claimed_interest"`
}

// RedeemResponse represents the outcome of redeeming a position
type RedeemResponse struct {
	BondID        int64  `json:"bond_id"`
	InvestorKey   string `json:"investor_key"`
	Payout        string `json:"payout"`
	FinalInterest string `json:"final_interest"`
}

// PortfolioPositionResponse represents one enriched position in a
// portfolio response
type PortfolioPositionResponse struct {
	BondID           int64  `json:"bond_id"`
	BondName         string `json:"bond_name"`
	BondState        string `json:"bond_state"`
	CouponRateBps    int64  `json:"coupon_rate_bps"`
	MaturityAt       string `json:"maturity_at"`
	Principal        string `json:"principal"`
	ClaimedInterest  string `json:"claimed_interest"`
	AccruedUnclaimed string `json:"accrued_unclaimed"`
	Redeemed         bool   `json:"redeemed"`
}

// PortfolioResponse represents an investor's aggregate portfolio
type PortfolioResponse struct {
	InvestorKey           string                      `json:"investor_key"`
	TotalInvested         string                      `json:"total_invested"`
	TotalAccruedUnclaimed string                      `json:"total_accrued_unclaimed"`
	TotalClaimed          string                      `json:"total_claimed"`
	TotalValue            string                      `json:"total_value"`
	Positions             []PortfolioPositionResponse `json:"positions"`
}
