package filtering

// Reason names the rule that decided a skip. ReasonForward means every rule passed.
type Reason string

const (
	ReasonForward        Reason = "forward"
	ReasonDisabled       Reason = "disabled"
	ReasonOwnMessage     Reason = "own_message"
	ReasonGroupMessage   Reason = "group_message"
	ReasonSenderNotAllow Reason = "sender_not_allowed"
	ReasonNoKeyword      Reason = "no_keyword"
	ReasonExpression     Reason = "expression"
)

type Decision struct {
	Forward bool
	Reason  Reason
}
