package models

type Action string

const (
	ActionSendEmailAlert   Action = "SEND_EMAIL_ALERT"
	ActionCreateTask       Action = "CREATE_TASK"
	ActionFlagForReview    Action = "FLAG_FOR_REVIEW"
	ActionWeeklyReport     Action = "INCLUDE_IN_WEEKLY_REPORT"
	ActionInventoryWarning Action = "INVENTORY_WARNING"
	ActionLogOnly          Action = "LOG_ONLY"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// DecisionOutcome is the result of the first matching decision rule.
type DecisionOutcome struct {
	Actions  []Action `json:"actions"`
	Priority Priority `json:"priority"`
	Reason   string   `json:"reason"`
}

// Has reports whether the outcome includes action a.
func (d DecisionOutcome) Has(a Action) bool {
	for _, x := range d.Actions {
		if x == a {
			return true
		}
	}
	return false
}
