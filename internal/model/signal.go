package model

// TriggerType indicates what started a report generation run.
type TriggerType string

const (
	TriggerScheduled TriggerType = "SCHEDULED"
	TriggerStartup   TriggerType = "STARTUP"
	TriggerManual    TriggerType = "MANUAL"
)

// RunStatus is the outcome of a report generation run.
type RunStatus string

const (
	RunOK          RunStatus = "OK"
	RunEmptySeries RunStatus = "EMPTY_SERIES"
	RunFailed      RunStatus = "FAILED"
)
