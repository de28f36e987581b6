package models

import "time"

// ItemFailure records one opportunity the pipeline could not process.
type ItemFailure struct {
	OpportunityID string `json:"opportunity_id"`
	Error         string `json:"error"`
}

// PipelineRunResult holds the counters of one automation run.
type PipelineRunResult struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
	Processed    int           `json:"processed"`
	TasksCreated int           `json:"tasks_created"`
	AlertsSent   int           `json:"alerts_sent"`
	Errors       int           `json:"errors"`
	Failures     []ItemFailure `json:"failures,omitempty"`
}

// CRM field names written back on every scored opportunity.
const (
	FieldRiskScore    = "AI_Risk_Score__c"
	FieldRiskCategory = "Risk_Category__c"
)

// Task is a follow-up activity created in the CRM.
type Task struct {
	Subject      string     `json:"Subject" validate:"required"`
	Description  string     `json:"Description,omitempty"`
	WhatID       string     `json:"WhatId" validate:"required"`
	OwnerID      string     `json:"OwnerId,omitempty"`
	Priority     string     `json:"Priority" default:"High"`
	Status       string     `json:"Status" default:"Not Started"`
	ActivityDate *time.Time `json:"-"`
}

// TaskRef identifies a created task.
type TaskRef struct {
	ID string `json:"id"`
}

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is a chat notification.
type Alert struct {
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Severity AlertSeverity     `json:"severity"`
	Link     string            `json:"link,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	SentAt   time.Time         `json:"sent_at"`
}

// InsightUnavailableText is returned when no text generator is configured.
const InsightUnavailableText = "LLM Service unavailable. Please check API keys."

// Insight is generated prose; Available is false when it is the
// unavailable sentinel.
type Insight struct {
	Text      string `json:"text"`
	Available bool   `json:"available"`
	Provider  string `json:"provider,omitempty"`
}
