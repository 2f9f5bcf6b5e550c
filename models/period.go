package models

import "time"

// PeriodCycle is one recorded menstrual cycle.
type PeriodCycle struct {
	ID          int64     `json:"id"`
	User        string    `json:"user"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate,omitempty"`
	CycleLength int       `json:"cycleLength"`
	Symptoms    string    `json:"symptoms,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreatePeriodRequest is the body of POST /period.
type CreatePeriodRequest struct {
	User        string `json:"user,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
	CycleLength int    `json:"cycleLength"`
	Symptoms    string `json:"symptoms,omitempty"`
}
