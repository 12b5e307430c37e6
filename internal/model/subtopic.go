package model

// Subtopic is one entry of the curriculum catalog. SequenceOrder is the
// curriculum-order hint used to break ties during subtopic selection.
// swagger:model Subtopic
type Subtopic struct {
	UUIDBase
	Subject       string `gorm:"size:50;index:idx_subtopic_key;not null" json:"subject"`
	Grade         int    `gorm:"index:idx_subtopic_key;not null" json:"grade"`
	Topic         string `gorm:"size:100;index:idx_subtopic_key;not null" json:"topic"`
	Name          string `gorm:"size:100;not null" json:"name"`
	SequenceOrder int    `gorm:"not null;default:0" json:"sequenceOrder"`
	Description   string `gorm:"type:text" json:"description,omitempty"`
}

func (Subtopic) TableName() string {
	return "subtopics"
}
