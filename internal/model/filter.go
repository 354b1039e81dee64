package model

// EventFilter holds criteria for querying the event log. Zero values mean
// the field is not constrained. Fields are combined with AND; Search matches
// email, action_name or data as a case-insensitive substring.
type EventFilter struct {
	NodeID     int64  `json:"node_id,omitempty"`
	ActionName string `json:"action_name,omitempty"`
	Search     string `json:"search,omitempty"`
}

// IsZero reports whether the filter places no constraint on the query.
func (f EventFilter) IsZero() bool {
	return f.NodeID == 0 && f.ActionName == "" && f.Search == ""
}
