package contract

// Sentinel markers the delivery collaborator uses to decide whether and where
// to post an outbound message. Both must prefix the text verbatim, in this
// order; the contract is fixed.
const (
	MarkerFinalToSend     = "[FINAL_TO_SEND]"
	MarkerPlannerResponse = "[PLANNER_RESPONSE]"
)

const (
	TargetGroup = "group"
	TargetDM    = "dm"
)

// Relay is an outbound message payload destined for the group chat channel.
type Relay struct {
	Send      bool   `json:"send"`
	Target    string `json:"target"`
	Text      string `json:"text"`
	RequestID string `json:"request_id,omitempty"`
	PlanID    string `json:"plan_id,omitempty"`
	Stage     string `json:"stage,omitempty"`
}

// GroupRelay builds a sendable group-channel relay with the sentinel prefix
// applied to body.
func GroupRelay(body, requestID, planID, stage string) Relay {
	return Relay{
		Send:      true,
		Target:    TargetGroup,
		Text:      MarkerFinalToSend + MarkerPlannerResponse + " " + body,
		RequestID: requestID,
		PlanID:    planID,
		Stage:     stage,
	}
}
