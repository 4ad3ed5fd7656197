package mapper

// FieldType tags how a column is coerced.
type FieldType int

// Column types.
const (
	FieldText FieldType = iota
	FieldNumeric
	FieldDate
)

// FieldSpec describes one expected column of an export.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Required bool
}

// Bookings export columns.
const (
	ColInternalID      = "Internal ID"
	ColYear            = "Year"
	ColAccountName     = "Account Name"
	ColOpportunityName = "Opportunity Name"
	ColPGI             = "PGI"
	ColAutoUnWt        = "Auto UnWt"
	ColAutoWt          = "Auto Wt"
	ColStage           = "Stage"
	ColCTTSignDate     = "CTT Sign Date"
	ColSalesStageDate  = "Sales Stage Date"
	ColMonth           = "Month"
	ColQuarter         = "Quarter"
	ColSegment         = "Segment"
	ColSubSegment      = "Sub-Segment"
	ColSector          = "Sector"
	ColCountry         = "Country"
)

// Proposals export columns that are not shared with bookings.
const (
	ColThorID        = "Thor ID"
	ColAPNID         = "APN ID"
	ColValue         = "Value"
	ColCOELead       = "COE Lead"
	ColTargetQuarter = "Target Quarter"
	ColStartDate     = "Start Date"
	ColEndDate       = "End Date"
)

// BookingFieldSpecs lists the bookings export columns in their usual order.
var BookingFieldSpecs = []FieldSpec{
	{Name: ColInternalID, Type: FieldText, Required: true},
	{Name: ColYear, Type: FieldText},
	{Name: ColAccountName, Type: FieldText},
	{Name: ColOpportunityName, Type: FieldText},
	{Name: ColPGI, Type: FieldText},
	{Name: ColAutoUnWt, Type: FieldNumeric},
	{Name: ColAutoWt, Type: FieldNumeric, Required: true},
	{Name: ColStage, Type: FieldText},
	{Name: ColCTTSignDate, Type: FieldDate},
	{Name: ColSalesStageDate, Type: FieldDate},
	{Name: ColMonth, Type: FieldText},
	{Name: ColQuarter, Type: FieldText},
	{Name: ColSegment, Type: FieldText},
	{Name: ColSubSegment, Type: FieldText},
	{Name: ColSector, Type: FieldText},
	{Name: ColCountry, Type: FieldText},
}

// ProposalFieldSpecs lists the proposals export columns in their usual order.
var ProposalFieldSpecs = []FieldSpec{
	{Name: ColThorID, Type: FieldText, Required: true},
	{Name: ColAPNID, Type: FieldText},
	{Name: ColAccountName, Type: FieldText},
	{Name: ColOpportunityName, Type: FieldText},
	{Name: ColValue, Type: FieldNumeric},
	{Name: ColCOELead, Type: FieldText},
	{Name: ColStage, Type: FieldText},
	{Name: ColTargetQuarter, Type: FieldText},
	{Name: ColSegment, Type: FieldText},
	{Name: ColStartDate, Type: FieldDate},
	{Name: ColEndDate, Type: FieldDate},
}
