package model

// PacingPreset maps a grade (and optionally a school-calendar month) to the
// topics a class typically covers then. A nil Month applies year-round.
// Presets resolve the topic for fetches that name none.
type PacingPreset struct {
	UUIDBase
	Subject       string     `gorm:"size:50;index:idx_pacing_key;not null" json:"subject"`
	Grade         int        `gorm:"index:idx_pacing_key;not null" json:"grade"`
	Month         *int       `gorm:"index:idx_pacing_key" json:"month,omitempty"`
	Topics        StringList `gorm:"type:json;not null" json:"topics"`
	SequenceOrder int        `gorm:"not null;default:0" json:"sequenceOrder"`
}

func (PacingPreset) TableName() string {
	return "pacing_presets"
}
