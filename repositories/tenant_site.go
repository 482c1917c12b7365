package repositories

import (
	"time"

	"github.com/craftsite-simple/database"
	"github.com/craftsite-simple/models"
)

// TenantSiteRepository handles database operations for tenant sites
type TenantSiteRepository struct{}

// NewTenantSiteRepository creates a new tenant site repository instance
func NewTenantSiteRepository() *TenantSiteRepository {
	return &TenantSiteRepository{}
}

// Insert persists a fully validated tenant site record
func (r *TenantSiteRepository) Insert(site models.TenantSite) (models.TenantSite, error) {
	result := database.DB.Create(&site)
	return site, result.Error
}

// FindByID retrieves a tenant site by its ID
func (r *TenantSiteRepository) FindByID(id string) (models.TenantSite, error) {
	var site models.TenantSite
	result := database.DB.First(&site, "id = ?", id)
	return site, result.Error
}

// FindByOwner retrieves all tenant sites belonging to a user
func (r *TenantSiteRepository) FindByOwner(ownerID string) ([]models.TenantSite, error) {
	var sites []models.TenantSite
	result := database.DB.Where("owner_id = ?", ownerID).Order("created_at desc").Find(&sites)
	return sites, result.Error
}

// Update modifies an existing tenant site and refreshes UpdatedAt
func (r *TenantSiteRepository) Update(site models.TenantSite) (models.TenantSite, error) {
	site.UpdatedAt = time.Now()
	result := database.DB.Save(&site)
	return site, result.Error
}

// Delete removes a tenant site record (soft delete)
func (r *TenantSiteRepository) Delete(id string) error {
	result := database.DB.Delete(&models.TenantSite{}, "id = ?", id)
	return result.Error
}
