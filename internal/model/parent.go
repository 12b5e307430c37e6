package model

// swagger:model Parent
type Parent struct {
	UUIDBase
	Email    string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	Name     string `gorm:"size:100" json:"name,omitempty"`
}

func (Parent) TableName() string {
	return "parents"
}
