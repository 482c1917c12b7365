package dto

import (
	"time"

	"gorm.io/datatypes"
)

// CreateTenantRequest is the body of POST /tenants
type CreateTenantRequest struct {
	TemplateID     string         `json:"templateId" binding:"required"`
	ComponentsData datatypes.JSON `json:"componentsData" binding:"required"`
	Content        string         `json:"content" binding:"required"`
	SiteType       string         `json:"siteType"`
}

// UpdateTenantRequest is the body of PUT /tenants/:id (the redeploy path)
type UpdateTenantRequest struct {
	TemplateID     string         `json:"templateId"`
	ComponentsData datatypes.JSON `json:"componentsData"`
	Content        string         `json:"content" binding:"required"`
	ExistingTarget string         `json:"existingTarget"`
}

// AdminCredentials is the seeded tenant admin login, returned once at
// creation so the owner can rotate it.
type AdminCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SandboxInfo carries manual follow-up instructions when the completion
// notification could not be delivered.
type SandboxInfo struct {
	Note       string `json:"note"`
	Action     string `json:"action"`
	YourNumber string `json:"yourNumber"`
}

// CreateTenantResponse is the success payload of the creation workflow
type CreateTenantResponse struct {
	ID               string            `json:"id"`
	PublicURL        string            `json:"publicUrl"`
	RepoRef          string            `json:"repoRef"`
	AdminCredentials *AdminCredentials `json:"adminCredentials,omitempty"`
	NotificationSent bool              `json:"notificationSent"`
	SandboxInfo      *SandboxInfo      `json:"sandboxInfo,omitempty"`
}

// TenantResponse is the read shape of a tenant site record
type TenantResponse struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"ownerId"`
	TemplateID     string         `json:"templateId"`
	SiteType       string         `json:"siteType"`
	ComponentsData datatypes.JSON `json:"componentsData"`
	RepoRef        string         `json:"repoRef,omitempty"`
	PublicURL      string         `json:"publicUrl,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
