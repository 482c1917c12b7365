package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/craftsite-simple/dto"
	"github.com/craftsite-simple/models"
	"github.com/craftsite-simple/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeRecordStore struct {
	records map[string]models.TenantSite

	insertErr error
	inserts   int
	deletes   []string
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[string]models.TenantSite)}
}

func (f *fakeRecordStore) Insert(site models.TenantSite) (models.TenantSite, error) {
	if f.insertErr != nil {
		return models.TenantSite{}, f.insertErr
	}
	f.inserts++
	f.records[site.ID] = site
	return site, nil
}

func (f *fakeRecordStore) FindByID(id string) (models.TenantSite, error) {
	site, ok := f.records[id]
	if !ok {
		return models.TenantSite{}, gorm.ErrRecordNotFound
	}
	return site, nil
}

func (f *fakeRecordStore) FindByOwner(ownerID string) ([]models.TenantSite, error) {
	var sites []models.TenantSite
	for _, site := range f.records {
		if site.OwnerID == ownerID {
			sites = append(sites, site)
		}
	}
	return sites, nil
}

func (f *fakeRecordStore) Update(site models.TenantSite) (models.TenantSite, error) {
	f.records[site.ID] = site
	return site, nil
}

func (f *fakeRecordStore) Delete(id string) error {
	f.deletes = append(f.deletes, id)
	delete(f.records, id)
	return nil
}

type fakeProvisioner struct {
	provisionErr error
	provisions   []string
	teardowns    []string
}

func (f *fakeProvisioner) Provision(ctx context.Context, tenantKey string) (string, error) {
	if f.provisionErr != nil {
		return "", f.provisionErr
	}
	f.provisions = append(f.provisions, tenantKey)
	return "postgres://tenant:pw@host:5432/" + tenantKey, nil
}

func (f *fakeProvisioner) Teardown(ctx context.Context, tenantKey string) error {
	f.teardowns = append(f.teardowns, tenantKey)
	return nil
}

type publishCall struct {
	content        string
	existingTarget string
}

type fakePublisher struct {
	publishErr   error
	failOnCall   int // 1-based; 0 means never fail
	calls        []publishCall
	teardowns    []string
	teardownErrs bool
}

func (f *fakePublisher) Publish(ctx context.Context, ownerID, templateID, content, existingTarget string) (*PublishResult, error) {
	call := len(f.calls) + 1
	if f.publishErr != nil && (f.failOnCall == 0 || f.failOnCall == call) {
		return nil, f.publishErr
	}
	f.calls = append(f.calls, publishCall{content: content, existingTarget: existingTarget})

	repoRef := existingTarget
	if repoRef == "" {
		repoRef = "https://github.com/craftsite/site-" + ownerID
	}
	return &PublishResult{
		RepoRef:   repoRef,
		PublicURL: "https://craftsite.github.io/site-" + ownerID + "/",
	}, nil
}

func (f *fakePublisher) Teardown(ctx context.Context, repoRef string) error {
	f.teardowns = append(f.teardowns, repoRef)
	if f.teardownErrs {
		return errors.New("teardown failed")
	}
	return nil
}

type fakeNotifier struct {
	delivered    bool
	destinations []string
	messages     []string
}

func (f *fakeNotifier) Notify(ctx context.Context, destination, message string) NotifyResult {
	f.destinations = append(f.destinations, destination)
	f.messages = append(f.messages, message)
	if !f.delivered {
		return NotifyResult{Delivered: false, Error: "gateway session not ready"}
	}
	return NotifyResult{Delivered: true}
}

func newTestTenantService() (*TenantService, *fakeRecordStore, *fakeProvisioner, *fakePublisher, *fakeNotifier) {
	store := newFakeRecordStore()
	provisioner := &fakeProvisioner{}
	publisher := &fakePublisher{}
	notifier := &fakeNotifier{delivered: true}

	service := NewTenantService(store, provisioner, publisher, notifier)
	service.seedAdmin = func(connectionRef string) error { return nil }
	return service, store, provisioner, publisher, notifier
}

func ecommerceRequest() dto.CreateTenantRequest {
	return dto.CreateTenantRequest{
		TemplateID:     "template-1",
		ComponentsData: datatypes.JSON(`{"whatsapp":"+62 812-3456-7890","products":[]}`),
		Content:        "<script>const tenantId = 'null';</script>",
		SiteType:       "ecommerce",
	}
}

func TestCreateEcommerceSite(t *testing.T) {
	service, store, provisioner, publisher, notifier := newTestTenantService()

	response, err := service.Create(context.Background(), "owner-1", ecommerceRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if response.ID == "" {
		t.Error("expected a site id")
	}
	if response.AdminCredentials == nil {
		t.Fatal("expected admin credentials for ecommerce site")
	}
	if response.AdminCredentials.Username != "admin@shop.com" {
		t.Errorf("unexpected admin username: %q", response.AdminCredentials.Username)
	}
	if !response.NotificationSent {
		t.Error("expected notification to be reported as sent")
	}

	if len(provisioner.provisions) != 1 {
		t.Fatalf("expected 1 provision call, got %d", len(provisioner.provisions))
	}
	if store.inserts != 1 {
		t.Fatalf("expected 1 record insert, got %d", store.inserts)
	}

	// First publish creates, second publishes the persisted id to the same
	// target.
	if len(publisher.calls) != 2 {
		t.Fatalf("expected 2 publish calls, got %d", len(publisher.calls))
	}
	if publisher.calls[0].existingTarget != "" {
		t.Error("first publish must create a fresh target")
	}
	if publisher.calls[1].existingTarget == "" {
		t.Error("second publish must reuse the created target")
	}
	if strings.Contains(publisher.calls[1].content, utils.PlaceholderToken) {
		t.Error("placeholder survived into the final published content")
	}
	if !strings.Contains(publisher.calls[1].content, response.ID) {
		t.Error("final published content does not embed the persisted site id")
	}

	// The record keeps the id the first publish embedded.
	site, err := store.FindByID(response.ID)
	if err != nil {
		t.Fatalf("record not found: %v", err)
	}
	if !strings.Contains(publisher.calls[0].content, site.ID) {
		t.Error("record id differs from the id embedded at first publish")
	}

	if len(notifier.destinations) != 1 || notifier.destinations[0] != "+62 812-3456-7890" {
		t.Errorf("unexpected notify destination: %v", notifier.destinations)
	}
	if !strings.Contains(notifier.messages[0], site.PublicURL) {
		t.Error("creation message does not contain the public link")
	}
	if !strings.Contains(notifier.messages[0], "admin@shop.com") {
		t.Error("creation message does not contain the admin credentials")
	}
}

func TestCreatePortfolioSkipsProvisioning(t *testing.T) {
	service, _, provisioner, _, _ := newTestTenantService()

	req := ecommerceRequest()
	req.SiteType = "portfolio"

	response, err := service.Create(context.Background(), "owner-1", req)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if response.AdminCredentials != nil {
		t.Error("portfolio site must not return admin credentials")
	}
	if len(provisioner.provisions) != 0 {
		t.Errorf("portfolio site must not provision a database, got %d calls", len(provisioner.provisions))
	}
}

func TestCreateRejectsInvalidRequests(t *testing.T) {
	service, _, provisioner, publisher, _ := newTestTenantService()

	cases := []dto.CreateTenantRequest{
		{ComponentsData: datatypes.JSON(`{}`), Content: "x"},                              // missing template
		{TemplateID: "t", Content: "x"},                                                   // missing components
		{TemplateID: "t", ComponentsData: datatypes.JSON(`{}`)},                           // missing content
		{TemplateID: "t", ComponentsData: datatypes.JSON(`{not json`), Content: "x"},      // invalid JSON
		{TemplateID: "t", ComponentsData: datatypes.JSON(`{}`), Content: "x", SiteType: "blog"}, // unknown type
	}
	for i, req := range cases {
		_, err := service.Create(context.Background(), "owner-1", req)
		if err == nil {
			t.Errorf("case %d: expected validation error", i)
			continue
		}
		if utils.KindOf(err) != utils.ErrValidation {
			t.Errorf("case %d: expected validation kind, got %v", i, utils.KindOf(err))
		}
	}

	if len(provisioner.provisions) != 0 || len(publisher.calls) != 0 {
		t.Error("validation failures must not touch cloud backends")
	}
}

func TestCreateProvisionFailureAbortsClean(t *testing.T) {
	service, store, provisioner, publisher, notifier := newTestTenantService()
	provisioner.provisionErr = utils.NewError(utils.ErrConflict, "database already exists")

	_, err := service.Create(context.Background(), "owner-1", ecommerceRequest())
	if err == nil {
		t.Fatal("expected provisioning failure to surface")
	}

	if len(publisher.calls) != 0 {
		t.Error("provisioning failure must not publish anything")
	}
	if store.inserts != 0 {
		t.Error("provisioning failure must not persist a record")
	}
	if len(notifier.destinations) != 0 {
		t.Error("provisioning failure must not notify")
	}
}

func TestCreatePublishFailureTearsDownDatabase(t *testing.T) {
	service, store, provisioner, publisher, _ := newTestTenantService()
	publisher.publishErr = utils.NewError(utils.ErrRateLimit, "rate limited")
	publisher.failOnCall = 1

	_, err := service.Create(context.Background(), "owner-1", ecommerceRequest())
	if err == nil {
		t.Fatal("expected publish failure to surface")
	}

	if len(provisioner.teardowns) != 1 {
		t.Fatalf("expected the provisioned database to be torn down, got %d teardowns", len(provisioner.teardowns))
	}
	if store.inserts != 0 {
		t.Error("publish failure must not persist a record")
	}
}

func TestCreatePersistFailureRollsBackEverything(t *testing.T) {
	service, store, provisioner, publisher, _ := newTestTenantService()
	store.insertErr = errors.New("connection reset")

	_, err := service.Create(context.Background(), "owner-1", ecommerceRequest())
	if err == nil {
		t.Fatal("expected persist failure to surface")
	}

	if len(publisher.teardowns) != 1 {
		t.Error("persist failure must tear down the published target")
	}
	if len(provisioner.teardowns) != 1 {
		t.Error("persist failure must tear down the provisioned database")
	}
}

func TestCreateNotifyFailureStillSucceeds(t *testing.T) {
	service, _, _, _, notifier := newTestTenantService()
	notifier.delivered = false

	response, err := service.Create(context.Background(), "owner-1", ecommerceRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if response.NotificationSent {
		t.Error("expected notification to be reported as not sent")
	}
	if response.SandboxInfo == nil {
		t.Fatal("expected sandbox info on delivery failure")
	}
	if response.SandboxInfo.YourNumber != "6281234567890" {
		t.Errorf("unexpected sandbox number: %q", response.SandboxInfo.YourNumber)
	}
}

func TestUpdateReusesExistingTarget(t *testing.T) {
	service, store, _, publisher, _ := newTestTenantService()

	created, err := service.Create(context.Background(), "owner-1", ecommerceRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	publisher.calls = nil

	updated, err := service.Update(context.Background(), "owner-1", created.ID, dto.UpdateTenantRequest{
		Content: "<script>const tenantId = 'null';</script><h2>v2</h2>",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(publisher.calls) != 1 {
		t.Fatalf("expected 1 publish call, got %d", len(publisher.calls))
	}
	if publisher.calls[0].existingTarget != created.RepoRef {
		t.Errorf("update published to %q, want %q", publisher.calls[0].existingTarget, created.RepoRef)
	}
	if strings.Contains(publisher.calls[0].content, utils.PlaceholderToken) {
		t.Error("placeholder survived into the redeployed content")
	}
	if updated.ID != created.ID {
		t.Error("update must not change the site id")
	}

	site, _ := store.FindByID(created.ID)
	if !strings.Contains(site.Markup, "v2") {
		t.Error("record markup was not updated")
	}
}

func TestUpdateRejectsForeignSite(t *testing.T) {
	service, _, _, _, _ := newTestTenantService()

	created, err := service.Create(context.Background(), "owner-1", ecommerceRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = service.Update(context.Background(), "owner-2", created.ID, dto.UpdateTenantRequest{Content: "x"})
	if err == nil {
		t.Fatal("expected foreign update to fail")
	}
	// Ownership failures are indistinguishable from missing records.
	if utils.KindOf(err) != utils.ErrNotFound {
		t.Fatalf("expected not-found kind, got %v", utils.KindOf(err))
	}
}

func TestDeleteTearsDownBestEffort(t *testing.T) {
	service, store, provisioner, publisher, _ := newTestTenantService()

	created, err := service.Create(context.Background(), "owner-1", ecommerceRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	provisioner.teardowns = nil
	publisher.teardowns = nil
	publisher.teardownErrs = true

	// Teardown failures are logged, not fatal: the record still goes away.
	if err := service.Delete(context.Background(), "owner-1", created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if len(publisher.teardowns) != 1 {
		t.Error("expected publish target teardown attempt")
	}
	if len(provisioner.teardowns) != 1 {
		t.Error("expected tenant database teardown attempt")
	}
	if len(store.deletes) != 1 {
		t.Error("expected the record to be deleted")
	}

	// Repeating the delete reports not found.
	err = service.Delete(context.Background(), "owner-1", created.ID)
	if utils.KindOf(err) != utils.ErrNotFound {
		t.Fatalf("expected not-found on second delete, got %v", err)
	}
}

func TestGetHidesForeignSites(t *testing.T) {
	service, _, _, _, _ := newTestTenantService()

	created, err := service.Create(context.Background(), "owner-1", ecommerceRequest())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := service.Get("owner-1", created.ID); err != nil {
		t.Fatalf("owner get failed: %v", err)
	}
	if _, err := service.Get("owner-2", created.ID); utils.KindOf(err) != utils.ErrNotFound {
		t.Fatalf("expected not-found for foreign owner, got %v", err)
	}
}

func TestResolveNotifyDestinationFallbacks(t *testing.T) {
	t.Setenv("ADMIN_PHONE", "+1 555 000")

	cases := map[string]string{
		`{"whatsapp":"+62 1","phone":"+62 2"}`: "+62 1",
		`{"phone":"+62 2"}`:                    "+62 2",
		`{"phoneNumber":"+62 3"}`:              "+62 3",
		`{"products":[]}`:                      "+1 555 000",
	}
	for input, want := range cases {
		if got := resolveNotifyDestination(datatypes.JSON(input)); got != want {
			t.Errorf("resolveNotifyDestination(%s) = %q, want %q", input, got, want)
		}
	}
}
