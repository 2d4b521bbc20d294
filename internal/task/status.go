package task

// Status is a read-only snapshot of a sequence.
type Status struct {
	Running    bool        `json:"running"`
	Completed  bool        `json:"completed"`
	TotalTasks int         `json:"total_tasks"`
	ErrorCount int         `json:"error_count"`
	Succeeded  bool        `json:"succeeded"`
	Errors     []TaskError `json:"errors,omitempty"`
}

// ErrorMessages returns the failure messages of the snapshot in task order.
func (s Status) ErrorMessages() []string {
	msgs := make([]string, 0, len(s.Errors))
	for _, e := range s.Errors {
		msgs = append(msgs, e.Error())
	}
	return msgs
}
