package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SiteType distinguishes the two provisioning flows
type SiteType string

const (
	SiteTypePortfolio SiteType = "portfolio" // static site only
	SiteTypeEcommerce SiteType = "ecommerce" // static site + dedicated database
)

// TenantSite represents one provisioned site: the generated markup, where it
// is published, and (for ecommerce sites) the connection handle to the
// tenant's private database.
type TenantSite struct {
	ID         string   `json:"id" gorm:"primaryKey;type:uuid"`
	OwnerID    string   `json:"ownerId" gorm:"type:uuid;not null;index"`
	ProjectID  string   `json:"projectId" gorm:"type:uuid;not null"`
	TemplateID string   `json:"templateId" gorm:"not null"`
	SiteType   SiteType `json:"siteType" gorm:"type:varchar(20);default:'ecommerce'"`

	// ComponentsData parameterizes the template: shop name, products,
	// contact numbers, design tokens. Stored as JSONB, round-trips between
	// the serialized and structured forms.
	ComponentsData datatypes.JSON `json:"componentsData" gorm:"type:jsonb;default:'{}'"`

	// Markup is the full generated site document, persisted verbatim so
	// redeploys never depend on the frontend resending it.
	Markup string `json:"markup" gorm:"not null"`

	// RepoRef and PublicURL are either both absent or both present.
	RepoRef   string `json:"repoRef" gorm:"default:null"`
	PublicURL string `json:"publicUrl" gorm:"default:null"`

	// DBConnectionRef is set for ecommerce sites only.
	DBConnectionRef string `json:"-" gorm:"default:null"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
}
