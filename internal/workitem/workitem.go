package workitem

import (
	"fmt"
	"strings"
	"time"

	"boreline/internal/claim"
	"boreline/internal/failure"
)

// Priority orders work within a station queue.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Rank returns the sort rank of the priority; lower ranks come first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// ParsePriority accepts High, Medium or Low in any case. An empty value
// defaults to Medium.
func ParsePriority(value string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return PriorityHigh, nil
	case "medium", "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", failure.Invalid("priority", fmt.Sprintf("unknown priority %q", value))
	}
}

// Attributes describe the physical barrel.
type Attributes struct {
	Caliber      string
	LengthInches float64
	TwistRate    string
	Material     string
	Priority     Priority
}

// Normalize trims the attributes and validates them.
func (a Attributes) Normalize() (Attributes, error) {
	a.Caliber = strings.TrimSpace(a.Caliber)
	a.TwistRate = strings.TrimSpace(a.TwistRate)
	a.Material = strings.TrimSpace(a.Material)
	if a.Caliber == "" {
		return a, failure.Invalid("caliber", "required")
	}
	if a.LengthInches <= 0 {
		return a, failure.Invalid("lengthInches", "must be positive")
	}
	priority, err := ParsePriority(string(a.Priority))
	if err != nil {
		return a, err
	}
	a.Priority = priority
	return a, nil
}

// WorkItem is a barrel moving through the pipeline.
type WorkItem struct {
	ID           string
	SerialNumber string
	Barcode      string
	Attributes   Attributes
	Status       Status
	Claim        *claim.Claim
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Metadata     map[string]any
}

// Consistent reports whether the claim and status agree: a claim is present
// exactly when the item is in progress.
func (w WorkItem) Consistent() bool {
	return (w.Claim != nil) == w.Status.IsInProgress()
}

// QueueLess orders station queues by priority, then creation time, then id.
func QueueLess(a, b *WorkItem) bool {
	if ra, rb := a.Attributes.Priority.Rank(), b.Attributes.Priority.Rank(); ra != rb {
		return ra < rb
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
