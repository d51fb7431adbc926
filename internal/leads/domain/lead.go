// Package domain holds the lead lifecycle types shared by scoring, automation
// and exports. Nothing in here performs I/O.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lead is a prospect or client snapshot. Optional attributes are pointers;
// optional contact fields are empty strings when absent.
type Lead struct {
	ID              uuid.UUID
	Name            string
	Status          Status
	LastActiveAt    time.Time
	StatusChangedAt *time.Time
	DealValue       *decimal.Decimal
	Tags            []string
	IsHighQuality   bool
	Phone           string
	Email           string
	Website         string
	SocialLink      string
	Source          string
	Notes           string
	Industry        string
	ServiceType     string
}

// DealValueOrZero returns the deal value, treating an absent value as zero.
func (l Lead) DealValueOrZero() decimal.Decimal {
	if l.DealValue == nil {
		return decimal.Zero
	}
	return *l.DealValue
}

// HasTag reports whether the lead carries tag (case-insensitive).
func (l Lead) HasTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	for _, t := range l.Tags {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}

// WholeDaysBetween returns floor((to - from) / 24h).
func WholeDaysBetween(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}
