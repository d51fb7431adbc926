package exports

import (
	"strings"
	"time"

	"agency_crm_backend/internal/leads/domain"
)

const dateLayout = "2006-01-02"

// Backup column names. Downstream consumers of roster backups depend on this
// exact order and spelling.
const (
	ColName        = "Name"
	ColMobile      = "Mobile Number"
	ColWebsite     = "Website"
	ColSocialLink  = "Social Link"
	ColSource      = "Source"
	ColStatus      = "Current Status"
	ColDealValue   = "Deal Value"
	ColBestQuality = "Best Quality"
	ColTags        = "Tags"
	ColNotes       = "Notes"
	ColLastActive  = "Last Active Date"
	ColIndustry    = "Industry"
	ColServiceType = "Service Type"
)

// BackupColumns returns the full-roster backup contract. Last Active Date is
// rendered as a calendar date in loc (UTC when nil).
func BackupColumns(loc *time.Location) []ColumnSpec {
	if loc == nil {
		loc = time.UTC
	}
	return []ColumnSpec{
		textColumn(ColName, func(l domain.Lead) string { return l.Name }),
		textColumn(ColMobile, func(l domain.Lead) string { return l.Phone }),
		textColumn(ColWebsite, func(l domain.Lead) string { return l.Website }),
		textColumn(ColSocialLink, func(l domain.Lead) string { return l.SocialLink }),
		textColumn(ColSource, func(l domain.Lead) string { return l.Source }),
		textColumn(ColStatus, func(l domain.Lead) string { return l.Status.String() }),
		{Name: ColDealValue, Extract: func(l domain.Lead) (Value, error) {
			if l.DealValue == nil {
				return Text(""), nil
			}
			return Number(*l.DealValue), nil
		}},
		{Name: ColBestQuality, Extract: func(l domain.Lead) (Value, error) {
			return Bool(l.IsHighQuality), nil
		}},
		textColumn(ColTags, func(l domain.Lead) string { return strings.Join(l.Tags, ", ") }),
		textColumn(ColNotes, func(l domain.Lead) string { return l.Notes }),
		textColumn(ColLastActive, func(l domain.Lead) string {
			if l.LastActiveAt.IsZero() {
				return ""
			}
			return l.LastActiveAt.In(loc).Format(dateLayout)
		}),
		textColumn(ColIndustry, func(l domain.Lead) string { return l.Industry }),
		textColumn(ColServiceType, func(l domain.Lead) string { return l.ServiceType }),
	}
}

func textColumn(name string, get func(domain.Lead) string) ColumnSpec {
	return ColumnSpec{Name: name, Extract: func(l domain.Lead) (Value, error) {
		return Text(get(l)), nil
	}}
}
