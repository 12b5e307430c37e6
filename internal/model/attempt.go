package model

// Attempt is an immutable record of one child response to one question.
// swagger:model Attempt
type Attempt struct {
	UUIDBase
	ChildID     string `gorm:"type:varchar(36);index;not null" json:"childId"`
	QuestionID  string `gorm:"type:varchar(36);index;not null" json:"questionId"`
	Selected    string `gorm:"type:text;not null" json:"selected"`
	Correct     bool   `gorm:"not null" json:"correct"`
	TimeSpentMS int    `gorm:"not null;default:0" json:"timeSpentMs"`
}

func (Attempt) TableName() string {
	return "attempts"
}
