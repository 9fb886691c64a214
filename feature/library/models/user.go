package models

import "time"

// User is a library user known to the server.
type User struct {
	ID                  string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	Name                string    `gorm:"column:name" json:"name"`
	Email               string    `gorm:"column:email" json:"email"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt"`
	IsPartnerSharedBy   bool      `gorm:"column:is_partner_shared_by" json:"isPartnerSharedBy"`
	IsPartnerSharedWith bool      `gorm:"column:is_partner_shared_with" json:"isPartnerSharedWith"`
	InTimeline          bool      `gorm:"column:in_timeline" json:"inTimeline"`
}

// TableName overrides the table name.
func (User) TableName() string {
	return "users"
}

// SameAs reports whether u carries the same sync relevant attributes as o.
func (u User) SameAs(o User) bool {
	return u.UpdatedAt.Equal(o.UpdatedAt) &&
		u.IsPartnerSharedBy == o.IsPartnerSharedBy &&
		u.IsPartnerSharedWith == o.IsPartnerSharedWith &&
		u.InTimeline == o.InTimeline
}
