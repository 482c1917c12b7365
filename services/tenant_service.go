package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/craftsite-simple/database"
	"github.com/craftsite-simple/dto"
	"github.com/craftsite-simple/models"
	"github.com/craftsite-simple/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	tenantAdminEmail    = "admin@shop.com"
	tenantAdminPassword = "admin123"
)

// TenantRecordStore is the persistence contract the orchestrator writes
// through. No other component writes tenant site records.
type TenantRecordStore interface {
	Insert(site models.TenantSite) (models.TenantSite, error)
	FindByID(id string) (models.TenantSite, error)
	FindByOwner(ownerID string) ([]models.TenantSite, error)
	Update(site models.TenantSite) (models.TenantSite, error)
	Delete(id string) error
}

// TenantService runs the provisioning workflow: database, publish, record,
// redeploy, admin seed, notification. Creation steps execute strictly in
// order; each consumes the previous step's output.
type TenantService struct {
	sites       TenantRecordStore
	provisioner DatabaseProvisioner
	publisher   SitePublisher
	notifier    NotificationRelay

	// seedAdmin is swappable so tests can skip the real tenant database.
	seedAdmin func(connectionRef string) error
}

// NewTenantService creates the orchestrator with the given collaborators.
func NewTenantService(sites TenantRecordStore, provisioner DatabaseProvisioner, publisher SitePublisher, notifier NotificationRelay) *TenantService {
	return &TenantService{
		sites:       sites,
		provisioner: provisioner,
		publisher:   publisher,
		notifier:    notifier,
		seedAdmin:   seedTenantAdmin,
	}
}

// Create runs the full creation workflow and returns the 201 payload.
// Failures before the record exists roll their side effects back; failures
// after it leave the record in place for a manual retry.
func (s *TenantService) Create(ctx context.Context, ownerID string, req dto.CreateTenantRequest) (*dto.CreateTenantResponse, error) {
	siteType, err := validateCreateRequest(req)
	if err != nil {
		return nil, err
	}

	// Reserve the record identity up front: the published markup embeds it
	// before the record exists.
	projectID := uuid.NewString()
	reservedID := uuid.NewString()

	var connectionRef string
	if siteType == models.SiteTypeEcommerce {
		tenantKey := utils.DeriveDatabaseName(ownerID, projectID)
		connectionRef, err = s.provisioner.Provision(ctx, tenantKey)
		if err != nil {
			// Nothing to undo yet.
			return nil, err
		}
	}

	firstContent := utils.SubstituteTenantID(req.Content, reservedID)
	published, err := s.publisher.Publish(ctx, ownerID, req.TemplateID, firstContent, "")
	if err != nil {
		s.rollbackDatabase(ctx, ownerID, projectID, siteType)
		return nil, err
	}

	site := models.TenantSite{
		ID:              reservedID,
		OwnerID:         ownerID,
		ProjectID:       projectID,
		TemplateID:      req.TemplateID,
		SiteType:        siteType,
		ComponentsData:  req.ComponentsData,
		Markup:          req.Content,
		RepoRef:         published.RepoRef,
		PublicURL:       published.PublicURL,
		DBConnectionRef: connectionRef,
	}
	site, err = s.sites.Insert(site)
	if err != nil {
		s.rollbackPublish(ctx, published.RepoRef)
		s.rollbackDatabase(ctx, ownerID, projectID, siteType)
		return nil, utils.WrapError(utils.ErrInternal, "failed to persist site record", err)
	}

	// Redeploy with the persisted id so the live markup calls back with its
	// own identity. Same target as the first publish: update, not create.
	finalContent := utils.SubstituteTenantID(req.Content, site.ID)
	if _, err := s.publisher.Publish(ctx, ownerID, req.TemplateID, finalContent, site.RepoRef); err != nil {
		return nil, err
	}

	response := &dto.CreateTenantResponse{
		ID:        site.ID,
		PublicURL: site.PublicURL,
		RepoRef:   site.RepoRef,
	}

	if siteType == models.SiteTypeEcommerce {
		if err := s.seedAdmin(connectionRef); err != nil {
			return nil, err
		}
		response.AdminCredentials = &dto.AdminCredentials{
			Username: tenantAdminEmail,
			Password: tenantAdminPassword,
		}
	}

	destination := resolveNotifyDestination(req.ComponentsData)
	message := buildCreationMessage(site.PublicURL, siteType)
	result := s.notifier.Notify(ctx, destination, message)
	response.NotificationSent = result.Delivered
	if !result.Delivered {
		log.Printf("Notification not delivered: %s", result.Error)
		response.SandboxInfo = &dto.SandboxInfo{
			Note:       "If you are using a messaging sandbox, please join first.",
			Action:     "Send the join keyword to the sandbox number on your messaging app.",
			YourNumber: displayDestination(destination),
		}
	}

	return response, nil
}

// Update redeploys a site against its existing publish target.
func (s *TenantService) Update(ctx context.Context, ownerID, id string, req dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, utils.NewError(utils.ErrValidation, "content is required")
	}

	site, err := s.findOwnedSite(id, ownerID)
	if err != nil {
		return nil, err
	}

	target := req.ExistingTarget
	if target == "" {
		target = site.RepoRef
	}
	if target == "" {
		return nil, utils.NewError(utils.ErrValidation, "site has no publish target to update")
	}

	finalContent := utils.SubstituteTenantID(req.Content, site.ID)
	published, err := s.publisher.Publish(ctx, ownerID, site.TemplateID, finalContent, target)
	if err != nil {
		return nil, err
	}

	if req.TemplateID != "" {
		site.TemplateID = req.TemplateID
	}
	if len(req.ComponentsData) > 0 {
		site.ComponentsData = req.ComponentsData
	}
	site.Markup = req.Content
	site.PublicURL = published.PublicURL
	site.RepoRef = published.RepoRef

	site, err = s.sites.Update(site)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to update site record", err)
	}

	resp := toTenantResponse(site)
	return &resp, nil
}

// Get returns one site owned by the caller.
func (s *TenantService) Get(ownerID, id string) (*dto.TenantResponse, error) {
	site, err := s.findOwnedSite(id, ownerID)
	if err != nil {
		return nil, err
	}
	resp := toTenantResponse(site)
	return &resp, nil
}

// List returns all sites owned by the caller, newest first.
func (s *TenantService) List(ownerID string) ([]dto.TenantResponse, error) {
	sites, err := s.sites.FindByOwner(ownerID)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to list sites", err)
	}
	responses := make([]dto.TenantResponse, 0, len(sites))
	for _, site := range sites {
		responses = append(responses, toTenantResponse(site))
	}
	return responses, nil
}

// Delete tears down a site's cloud resources best-effort, then removes the
// record. The record delete must succeed: an orphaned record is worse than
// orphaned cloud resources.
func (s *TenantService) Delete(ctx context.Context, ownerID, id string) error {
	site, err := s.findOwnedSite(id, ownerID)
	if err != nil {
		return err
	}

	if site.RepoRef != "" {
		if err := s.publisher.Teardown(ctx, site.RepoRef); err != nil {
			log.Printf("Warning: failed to tear down publish target %s: %v", site.RepoRef, err)
		}
	}

	if site.SiteType == models.SiteTypeEcommerce {
		tenantKey := utils.DeriveDatabaseName(site.OwnerID, site.ProjectID)
		if err := s.provisioner.Teardown(ctx, tenantKey); err != nil {
			log.Printf("Warning: failed to tear down tenant database %s: %v", tenantKey, err)
		}
	}

	if err := s.sites.Delete(site.ID); err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to delete site record", err)
	}
	return nil
}

func (s *TenantService) findOwnedSite(id, ownerID string) (models.TenantSite, error) {
	site, err := s.sites.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TenantSite{}, utils.NewError(utils.ErrNotFound, "site not found")
		}
		return models.TenantSite{}, utils.WrapError(utils.ErrInternal, "failed to look up site", err)
	}
	// Ownership failures look identical to missing records.
	if site.OwnerID != ownerID {
		return models.TenantSite{}, utils.NewError(utils.ErrNotFound, "site not found")
	}
	return site, nil
}

func (s *TenantService) rollbackDatabase(ctx context.Context, ownerID, projectID string, siteType models.SiteType) {
	if siteType != models.SiteTypeEcommerce {
		return
	}
	tenantKey := utils.DeriveDatabaseName(ownerID, projectID)
	if err := s.provisioner.Teardown(ctx, tenantKey); err != nil {
		log.Printf("Warning: rollback of tenant database %s failed: %v", tenantKey, err)
	}
}

func (s *TenantService) rollbackPublish(ctx context.Context, repoRef string) {
	if err := s.publisher.Teardown(ctx, repoRef); err != nil {
		log.Printf("Warning: rollback of publish target %s failed: %v", repoRef, err)
	}
}

// seedTenantAdmin migrates the fresh tenant database and creates the default
// admin account the owner is expected to rotate.
func seedTenantAdmin(connectionRef string) error {
	conn, err := database.OpenTenantConnection(connectionRef)
	if err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to connect to tenant database", err)
	}
	defer conn.Close()

	if err := conn.Migrate(); err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to prepare tenant database", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(tenantAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to hash admin password", err)
	}

	admin := models.ShopUser{
		Name:     "Admin",
		Email:    tenantAdminEmail,
		Password: string(hashed),
		IsAdmin:  true,
	}
	if err := conn.DB.Create(&admin).Error; err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to seed tenant admin", err)
	}
	return nil
}

func validateCreateRequest(req dto.CreateTenantRequest) (models.SiteType, error) {
	if strings.TrimSpace(req.TemplateID) == "" {
		return "", utils.NewError(utils.ErrValidation, "templateId is required")
	}
	if len(req.ComponentsData) == 0 {
		return "", utils.NewError(utils.ErrValidation, "componentsData is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return "", utils.NewError(utils.ErrValidation, "content is required")
	}
	if !json.Valid(req.ComponentsData) {
		return "", utils.NewError(utils.ErrValidation, "componentsData must be valid JSON")
	}

	switch models.SiteType(req.SiteType) {
	case models.SiteTypeEcommerce, "":
		return models.SiteTypeEcommerce, nil
	case models.SiteTypePortfolio:
		return models.SiteTypePortfolio, nil
	default:
		return "", utils.NewError(utils.ErrValidation, fmt.Sprintf("unknown siteType: %s", req.SiteType))
	}
}

// resolveNotifyDestination picks the owner's contact number out of the
// components data, falling back to the configured admin number.
func resolveNotifyDestination(componentsData datatypes.JSON) string {
	var components map[string]interface{}
	if err := json.Unmarshal(componentsData, &components); err == nil {
		for _, field := range []string{"whatsapp", "phone", "phoneNumber"} {
			if value, ok := components[field].(string); ok && value != "" {
				return value
			}
		}
	}

	fallback := os.Getenv("ADMIN_PHONE")
	if fallback == "" {
		log.Println("No contact number in components and no ADMIN_PHONE configured")
	}
	return fallback
}

func buildCreationMessage(publicURL string, siteType models.SiteType) string {
	lines := []string{
		"✅ Your site was created successfully!",
		"🔗 Link: " + publicURL,
	}
	if siteType == models.SiteTypeEcommerce {
		lines = append(lines,
			"👤 Admin: "+tenantAdminEmail,
			"🔑 Password: "+tenantAdminPassword,
		)
	}
	return strings.Join(lines, "\n")
}

func displayDestination(destination string) string {
	if destination == "" {
		return "Not provided"
	}
	return utils.NormalizePhoneNumber(destination)
}

func toTenantResponse(site models.TenantSite) dto.TenantResponse {
	return dto.TenantResponse{
		ID:             site.ID,
		OwnerID:        site.OwnerID,
		TemplateID:     site.TemplateID,
		SiteType:       string(site.SiteType),
		ComponentsData: site.ComponentsData,
		RepoRef:        site.RepoRef,
		PublicURL:      site.PublicURL,
		CreatedAt:      site.CreatedAt,
		UpdatedAt:      site.UpdatedAt,
	}
}
