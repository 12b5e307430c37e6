package model

import "time"

// swagger:model Child
type Child struct {
	UUIDBase
	ParentID  string     `gorm:"type:varchar(36);index;not null" json:"parentId"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	Birthdate *time.Time `json:"birthdate,omitempty"`
	Grade     *int       `json:"grade,omitempty"` // 0-12, nil when unknown
	Zip       string     `gorm:"size:10" json:"zip,omitempty"`
}

func (Child) TableName() string {
	return "children"
}
