package domain

// JoinSignal is an inbound request from a principal to join a group,
// carrying the invitation they followed.
type JoinSignal struct {
	GroupID     int64
	PrincipalID int64
	DisplayName string
	Handle      string
}

// Decision is the outcome of evaluating a JoinSignal.
type Decision string

const (
	DecisionIgnored  Decision = "ignored"
	DecisionAdmitted Decision = "admitted"
	DecisionDeclined Decision = "declined"
)

// Admission is what the decider hands back: the decision plus, when
// admitted, the resulting lease.
type Admission struct {
	Decision     Decision
	Subscription Subscription
}
