package model

import "time"

// WorkOrderStatus is the lifecycle state of a work order.
type WorkOrderStatus string

// Work-order statuses.
const (
	StatusOpen       WorkOrderStatus = "ABERTA"
	StatusInProgress WorkOrderStatus = "EM_ANDAMENTO"
	StatusFinished   WorkOrderStatus = "FINALIZADA"
)

// Valid reports whether s is one of the known statuses.
func (s WorkOrderStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusFinished:
		return true
	}
	return false
}

// ParseWorkOrderStatus maps unknown values to StatusOpen.
func ParseWorkOrderStatus(s string) WorkOrderStatus {
	st := WorkOrderStatus(s)
	if st.Valid() {
		return st
	}
	return StatusOpen
}

// WorkOrder is a unit of farm work assigned to someone.
// StartedAt and FinishedAt record when each phase was first entered and are
// never cleared.
type WorkOrder struct {
	ID          string          `json:"id"`
	Title       string          `json:"titulo"`
	Responsible string          `json:"responsavel"`
	Status      WorkOrderStatus `json:"status"`
	CreatedAt   time.Time       `json:"criadoEm"`
	StartedAt   *time.Time      `json:"iniciadoEm,omitempty"`
	FinishedAt  *time.Time      `json:"finalizadoEm,omitempty"`
}

// SetStatus moves the order to status, stamping the phase timestamp the first
// time that phase is entered. Any status may follow any other.
func (o *WorkOrder) SetStatus(status WorkOrderStatus, now time.Time) {
	o.Status = status
	switch status {
	case StatusInProgress:
		if o.StartedAt == nil {
			t := now.UTC()
			o.StartedAt = &t
		}
	case StatusFinished:
		if o.FinishedAt == nil {
			t := now.UTC()
			o.FinishedAt = &t
		}
	}
}
