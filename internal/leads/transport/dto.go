package transport

import (
	"strings"
	"time"

	"agency_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs
type CreateLeadRequest struct {
	Name          string           `json:"name" validate:"required,min=1,max=200"`
	Status        string           `json:"status,omitempty" validate:"omitempty,leadstatus"`
	DealValue     *decimal.Decimal `json:"dealValue,omitempty"`
	Tags          []string         `json:"tags,omitempty" validate:"max=50,dive,min=1,max=50"`
	IsHighQuality bool             `json:"isHighQuality"`
	Phone         string           `json:"phone,omitempty" validate:"omitempty,min=5,max=30"`
	Email         string           `json:"email,omitempty" validate:"omitempty,email"`
	Website       string           `json:"website,omitempty" validate:"omitempty,max=500"`
	SocialLink    string           `json:"socialLink,omitempty" validate:"omitempty,max=500"`
	Source        string           `json:"source,omitempty" validate:"max=100"`
	Notes         string           `json:"notes,omitempty" validate:"max=5000"`
	Industry      string           `json:"industry,omitempty" validate:"max=100"`
	ServiceType   string           `json:"serviceType,omitempty" validate:"max=100"`
}

type UpdateLeadRequest struct {
	Name          *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	DealValue     OptionalDecimal `json:"dealValue,omitempty" validate:"-"`
	Tags          *[]string       `json:"tags,omitempty" validate:"omitempty,max=50,dive,min=1,max=50"`
	IsHighQuality *bool           `json:"isHighQuality,omitempty"`
	Phone         *string         `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email         *string         `json:"email,omitempty" validate:"omitempty,max=254"`
	Website       *string         `json:"website,omitempty" validate:"omitempty,max=500"`
	SocialLink    *string         `json:"socialLink,omitempty" validate:"omitempty,max=500"`
	Source        *string         `json:"source,omitempty" validate:"omitempty,max=100"`
	Notes         *string         `json:"notes,omitempty" validate:"omitempty,max=5000"`
	Industry      *string         `json:"industry,omitempty" validate:"omitempty,max=100"`
	ServiceType   *string         `json:"serviceType,omitempty" validate:"omitempty,max=100"`
}

type UpdateLeadStatusRequest struct {
	Status string `json:"status" validate:"required,leadstatus"`
}

type RecordActivityRequest struct {
	At *time.Time `json:"at,omitempty"`
}

type ListLeadsRequest struct {
	Status   string `form:"status" validate:"omitempty,leadstatus"`
	Tag      string `form:"tag" validate:"max=50"`
	Search   string `form:"search" validate:"max=100"`
	Page     int    `form:"page" validate:"min=1"`
	PageSize int    `form:"pageSize" validate:"min=1,max=200"`
}

// LeadSnapshot is a caller-supplied lead used by the ad-hoc scoring and
// forecast endpoints. Unknown statuses are accepted and kept verbatim.
type LeadSnapshot struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name" validate:"max=200"`
	Status          string           `json:"status" validate:"required"`
	LastActiveAt    time.Time        `json:"lastActiveAt" validate:"required"`
	StatusChangedAt *time.Time       `json:"statusChangedAt,omitempty"`
	DealValue       *decimal.Decimal `json:"dealValue,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	IsHighQuality   bool             `json:"isHighQuality"`
	Phone           string           `json:"phone,omitempty"`
	Email           string           `json:"email,omitempty"`
	Website         string           `json:"website,omitempty"`
	SocialLink      string           `json:"socialLink,omitempty"`
	Source          string           `json:"source,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Industry        string           `json:"industry,omitempty"`
	ServiceType     string           `json:"serviceType,omitempty"`
}

// ToDomain converts the snapshot without validating contact fields.
func (s LeadSnapshot) ToDomain() domain.Lead {
	status, _ := domain.ParseStatus(s.Status)
	return domain.Lead{
		ID:              s.ID,
		Name:            strings.TrimSpace(s.Name),
		Status:          status,
		LastActiveAt:    s.LastActiveAt,
		StatusChangedAt: s.StatusChangedAt,
		DealValue:       s.DealValue,
		Tags:            s.Tags,
		IsHighQuality:   s.IsHighQuality,
		Phone:           s.Phone,
		Email:           s.Email,
		Website:         s.Website,
		SocialLink:      s.SocialLink,
		Source:          s.Source,
		Notes:           s.Notes,
		Industry:        s.Industry,
		ServiceType:     s.ServiceType,
	}
}

type ScoreLeadsRequest struct {
	Leads []LeadSnapshot `json:"leads" validate:"max=5000,dive"`
	Now   *time.Time     `json:"now,omitempty"`
}

// Response DTOs
type LeadResponse struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Status          string           `json:"status"`
	Temperature     string           `json:"temperature"`
	LastActiveAt    time.Time        `json:"lastActiveAt"`
	StatusChangedAt *time.Time       `json:"statusChangedAt,omitempty"`
	DealValue       *decimal.Decimal `json:"dealValue,omitempty"`
	Tags            []string         `json:"tags"`
	IsHighQuality   bool             `json:"isHighQuality"`
	Phone           string           `json:"phone,omitempty"`
	Email           string           `json:"email,omitempty"`
	Website         string           `json:"website,omitempty"`
	SocialLink      string           `json:"socialLink,omitempty"`
	Source          string           `json:"source,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Industry        string           `json:"industry,omitempty"`
	ServiceType     string           `json:"serviceType,omitempty"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type ScoredLeadResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Temperature string    `json:"temperature"`
}

type ScoreLeadsResponse struct {
	EvaluatedAt time.Time            `json:"evaluatedAt"`
	Items       []ScoredLeadResponse `json:"items"`
}

// ToLeadResponse maps a domain lead plus its temperature.
func ToLeadResponse(lead domain.Lead, temperature domain.Temperature) LeadResponse {
	tags := lead.Tags
	if tags == nil {
		tags = []string{}
	}
	return LeadResponse{
		ID:              lead.ID,
		Name:            lead.Name,
		Status:          lead.Status.String(),
		Temperature:     string(temperature),
		LastActiveAt:    lead.LastActiveAt,
		StatusChangedAt: lead.StatusChangedAt,
		DealValue:       lead.DealValue,
		Tags:            tags,
		IsHighQuality:   lead.IsHighQuality,
		Phone:           lead.Phone,
		Email:           lead.Email,
		Website:         lead.Website,
		SocialLink:      lead.SocialLink,
		Source:          lead.Source,
		Notes:           lead.Notes,
		Industry:        lead.Industry,
		ServiceType:     lead.ServiceType,
	}
}
