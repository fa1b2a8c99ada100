package domain

import "time"

const (
	RiskResultAllow = "ALLOW"
	RiskResultDeny  = "DENY"
)

// RiskDecision records the outcome of the pre-transfer risk check. Every
// evaluated transfer gets exactly one decision row, allow or deny.
type RiskDecision struct {
	ID         int64
	TransferID string
	Result     string
	ReasonCode string
	CreatedAt  time.Time
}
