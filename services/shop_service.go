package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/craftsite-simple/database"
	"github.com/craftsite-simple/dto"
	"github.com/craftsite-simple/models"
	"github.com/craftsite-simple/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const shopTokenLifetime = time.Hour

// ShopService serves the public sub-API that deployed sites call back into.
// Every operation resolves the tenant record, opens a short-lived connection
// to that tenant's private database, performs one operation, and closes it.
type ShopService struct {
	sites    TenantRecordStore
	notifier NotificationRelay

	openTenant func(connectionRef string) (*database.TenantConnection, error)
}

// NewShopService creates a shop service with the given collaborators.
func NewShopService(sites TenantRecordStore, notifier NotificationRelay) *ShopService {
	return &ShopService{
		sites:      sites,
		notifier:   notifier,
		openTenant: database.OpenTenantConnection,
	}
}

// Components returns the raw components data a deployed site renders from.
// This endpoint is public: the markup fetches it before anyone logs in.
func (s *ShopService) Components(tenantID string) (datatypes.JSON, error) {
	site, err := s.findSite(tenantID)
	if err != nil {
		return nil, err
	}
	return site.ComponentsData, nil
}

// Login authenticates a shop customer against the tenant database.
func (s *ShopService) Login(ctx context.Context, tenantID string, req dto.ShopLoginRequest) (*dto.ShopAuthResponse, error) {
	conn, _, err := s.connect(tenantID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var user models.ShopUser
	if err := conn.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return nil, utils.NewError(utils.ErrAuth, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, utils.NewError(utils.ErrAuth, "invalid credentials")
	}

	token, err := GenerateShopToken(user.ID, tenantID, user.IsAdmin)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to issue token", err)
	}

	return &dto.ShopAuthResponse{
		Token: token,
		User:  toShopUserResponse(user),
	}, nil
}

// Signup registers a new shop customer in the tenant database.
func (s *ShopService) Signup(ctx context.Context, tenantID string, req dto.ShopSignupRequest) (*dto.ShopAuthResponse, error) {
	conn, _, err := s.connect(tenantID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var count int64
	if err := conn.DB.Model(&models.ShopUser{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to check existing customer", err)
	}
	if count > 0 {
		return nil, utils.NewError(utils.ErrConflict, "email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to hash password", err)
	}

	user := models.ShopUser{
		Name:        req.Name,
		Email:       req.Email,
		Password:    string(hashed),
		PhoneNumber: req.PhoneNumber,
		Whatsapp:    req.Whatsapp,
	}
	if err := conn.DB.Create(&user).Error; err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to create customer", err)
	}

	token, err := GenerateShopToken(user.ID, tenantID, false)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to issue token", err)
	}

	return &dto.ShopAuthResponse{
		Token: token,
		User:  toShopUserResponse(user),
	}, nil
}

// GetUser returns the authenticated customer's profile.
func (s *ShopService) GetUser(tenantID, userID string) (*dto.ShopUserResponse, error) {
	conn, _, err := s.connect(tenantID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	user, err := s.findShopUser(conn, userID)
	if err != nil {
		return nil, err
	}
	resp := toShopUserResponse(user)
	return &resp, nil
}

// UpdateAddress sets the customer's shipping address.
func (s *ShopService) UpdateAddress(tenantID, userID string, req dto.UpdateAddressRequest) (*models.Address, error) {
	conn, _, err := s.connect(tenantID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	user, err := s.findShopUser(conn, userID)
	if err != nil {
		return nil, err
	}

	user.Address = models.Address{
		FullName: req.FullName,
		Phone:    req.Phone,
		Address:  req.Address,
		City:     req.City,
		Zip:      req.Zip,
		Country:  req.Country,
	}
	if err := conn.DB.Save(&user).Error; err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to update address", err)
	}
	return &user.Address, nil
}

// GetCart returns the customer's cart, empty if none exists yet.
func (s *ShopService) GetCart(tenantID, userID string) (*models.Cart, error) {
	conn, _, err := s.connect(tenantID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var cart models.Cart
	err = conn.DB.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Cart{UserID: userID, Items: models.CartItems{}}, nil
	}
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to fetch cart", err)
	}
	return &cart, nil
}

// AddCartItem adds a product to the cart, merging with an existing line.
func (s *ShopService) AddCartItem(tenantID, userID string, req dto.AddCartItemRequest) (*models.Cart, error) {
	conn, _, err := s.connect(tenantID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var cart models.Cart
	err = conn.DB.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID, Items: models.CartItems{}}
	} else if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to fetch cart", err)
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == req.ProductID {
			cart.Items[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{ProductID: req.ProductID, Quantity: req.Quantity})
	}

	if err := conn.DB.Save(&cart).Error; err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to save cart", err)
	}
	return &cart, nil
}

// UpdateCartItem applies a quantity delta; items dropping to zero or below
// are removed.
func (s *ShopService) UpdateCartItem(tenantID, userID string, req dto.UpdateCartItemRequest) (*models.Cart, error) {
	conn, _, err := s.connect(tenantID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var cart models.Cart
	if err := conn.DB.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, utils.NewError(utils.ErrNotFound, "cart not found")
	}

	found := false
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID == req.ProductID {
			found = true
			item.Quantity += req.QuantityChange
			if item.Quantity <= 0 {
				continue
			}
		}
		items = append(items, item)
	}
	if !found {
		return nil, utils.NewError(utils.ErrNotFound, "item not found in cart")
	}
	cart.Items = items

	if err := conn.DB.Save(&cart).Error; err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to save cart", err)
	}
	return &cart, nil
}

// RemoveCartItem drops a product line from the cart.
func (s *ShopService) RemoveCartItem(tenantID, userID, productID string) (*models.Cart, error) {
	conn, _, err := s.connect(tenantID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var cart models.Cart
	if err := conn.DB.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, utils.NewError(utils.ErrNotFound, "cart not found")
	}

	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	cart.Items = items

	if err := conn.DB.Save(&cart).Error; err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to save cart", err)
	}
	return &cart, nil
}

// PlaceOrder turns the customer's cart into an order, prices it against the
// site's product catalog, clears the cart and notifies the shop owner.
func (s *ShopService) PlaceOrder(ctx context.Context, tenantID, userID string) (*models.Order, error) {
	site, err := s.findSite(tenantID)
	if err != nil {
		return nil, err
	}

	conn, err := s.openTenant(site.DBConnectionRef)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to connect to tenant database", err)
	}
	defer conn.Close()

	user, err := s.findShopUser(conn, userID)
	if err != nil {
		return nil, err
	}
	if user.Address.Address == "" {
		return nil, utils.NewError(utils.ErrValidation, "address is required to place an order")
	}

	var cart models.Cart
	if err := conn.DB.Where("user_id = ?", userID).First(&cart).Error; err != nil || len(cart.Items) == 0 {
		return nil, utils.NewError(utils.ErrValidation, "cart is empty")
	}

	products, err := siteProducts(site.ComponentsData)
	if err != nil {
		return nil, err
	}

	var items models.OrderItems
	total := 0.0
	for _, line := range cart.Items {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, utils.NewError(utils.ErrValidation, fmt.Sprintf("product %s not found", line.ProductID))
		}
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  line.Quantity,
		})
		total += product.Price * float64(line.Quantity)
	}

	order := models.Order{
		UserID:       userID,
		CustomerName: user.Name,
		Items:        items,
		Total:        total,
		Phone:        user.Address.Phone,
		Address:      user.Address,
	}
	if err := conn.DB.Create(&order).Error; err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to create order", err)
	}
	if err := conn.DB.Delete(&cart).Error; err != nil {
		log.Printf("Warning: failed to clear cart for user %s: %v", userID, err)
	}

	destination := resolveNotifyDestination(site.ComponentsData)
	result := s.notifier.Notify(ctx, destination, buildOrderMessage(order))
	if !result.Delivered {
		log.Printf("Order notification not delivered: %s", result.Error)
	}

	return &order, nil
}

// ListOrders returns all orders, newest first. Admin only.
func (s *ShopService) ListOrders(tenantID, userID string) ([]models.Order, error) {
	conn, _, err := s.connect(tenantID)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := s.requireAdmin(conn, userID); err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := conn.DB.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to fetch orders", err)
	}
	return orders, nil
}

// AddProduct appends a product to the site's catalog. Admin only. The
// catalog lives in the platform record's components data, not in the tenant
// database.
func (s *ShopService) AddProduct(tenantID, userID string, req dto.AddProductRequest) (*dto.Product, error) {
	conn, site, err := s.connect(tenantID)
	if err != nil {
		return nil, err
	}

	adminErr := s.requireAdmin(conn, userID)
	conn.Close()
	if adminErr != nil {
		return nil, adminErr
	}

	var components map[string]interface{}
	if err := json.Unmarshal(site.ComponentsData, &components); err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to parse components data", err)
	}

	product := dto.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
	}

	rawProducts, _ := components["products"].([]interface{})
	components["products"] = append(rawProducts, product)

	updated, err := json.Marshal(components)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to encode components data", err)
	}
	site.ComponentsData = updated
	if _, err := s.sites.Update(site); err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to update site record", err)
	}

	return &product, nil
}

// DeleteProduct removes a product from the site's catalog. Admin only.
func (s *ShopService) DeleteProduct(tenantID, userID, productID string) error {
	conn, site, err := s.connect(tenantID)
	if err != nil {
		return err
	}

	adminErr := s.requireAdmin(conn, userID)
	conn.Close()
	if adminErr != nil {
		return adminErr
	}

	var components map[string]interface{}
	if err := json.Unmarshal(site.ComponentsData, &components); err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to parse components data", err)
	}

	rawProducts, _ := components["products"].([]interface{})
	kept := make([]interface{}, 0, len(rawProducts))
	for _, raw := range rawProducts {
		if entry, ok := raw.(map[string]interface{}); ok {
			if id, _ := entry["id"].(string); id == productID {
				continue
			}
		}
		kept = append(kept, raw)
	}
	components["products"] = kept

	updated, err := json.Marshal(components)
	if err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to encode components data", err)
	}
	site.ComponentsData = updated
	if _, err := s.sites.Update(site); err != nil {
		return utils.WrapError(utils.ErrInternal, "failed to update site record", err)
	}
	return nil
}

func (s *ShopService) findSite(tenantID string) (models.TenantSite, error) {
	site, err := s.sites.FindByID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.TenantSite{}, utils.NewError(utils.ErrNotFound, "site not found")
		}
		return models.TenantSite{}, utils.WrapError(utils.ErrInternal, "failed to look up site", err)
	}
	if site.DBConnectionRef == "" {
		return models.TenantSite{}, utils.NewError(utils.ErrNotFound, "site has no shop database")
	}
	return site, nil
}

func (s *ShopService) connect(tenantID string) (*database.TenantConnection, models.TenantSite, error) {
	site, err := s.findSite(tenantID)
	if err != nil {
		return nil, models.TenantSite{}, err
	}
	conn, err := s.openTenant(site.DBConnectionRef)
	if err != nil {
		return nil, models.TenantSite{}, utils.WrapError(utils.ErrInternal, "failed to connect to tenant database", err)
	}
	return conn, site, nil
}

func (s *ShopService) findShopUser(conn *database.TenantConnection, userID string) (models.ShopUser, error) {
	var user models.ShopUser
	if err := conn.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ShopUser{}, utils.NewError(utils.ErrNotFound, "user not found")
		}
		return models.ShopUser{}, utils.WrapError(utils.ErrInternal, "failed to look up user", err)
	}
	return user, nil
}

func (s *ShopService) requireAdmin(conn *database.TenantConnection, userID string) error {
	user, err := s.findShopUser(conn, userID)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return utils.NewError(utils.ErrAuth, "admin access required")
	}
	return nil
}

// GenerateShopToken issues a short-lived token scoped to one tenant shop.
func GenerateShopToken(userID, tenantID string, isAdmin bool) (string, error) {
	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		return "", errors.New("JWT_SECRET not set in environment")
	}

	claims := dto.ShopTokenClaims{
		UserID:   userID,
		TenantID: tenantID,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(shopTokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// ValidateShopToken validates a shop token and returns its claims.
func ValidateShopToken(tokenString string) (*dto.ShopTokenClaims, error) {
	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		return nil, errors.New("JWT_SECRET not set in environment")
	}

	token, err := jwt.ParseWithClaims(tokenString, &dto.ShopTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*dto.ShopTokenClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

type catalogProduct struct {
	Name  string
	Price float64
}

func siteProducts(componentsData datatypes.JSON) (map[string]catalogProduct, error) {
	var components struct {
		Products []dto.Product `json:"products"`
	}
	if err := json.Unmarshal(componentsData, &components); err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to parse components data", err)
	}
	products := make(map[string]catalogProduct, len(components.Products))
	for _, p := range components.Products {
		products[p.ID] = catalogProduct{Name: p.Name, Price: p.Price}
	}
	return products, nil
}

func buildOrderMessage(order models.Order) string {
	lines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
	}
	return strings.Join([]string{
		"🛒 New Order Received!",
		"👤 Customer: " + order.CustomerName,
		"📞 Phone: " + order.Phone,
		fmt.Sprintf("🏠 Address: %s, %s, %s, %s", order.Address.Address, order.Address.City, order.Address.Zip, order.Address.Country),
		"📦 Items: " + strings.Join(lines, ", "),
		fmt.Sprintf("💰 Total: $%.2f", order.Total),
	}, "\n")
}

func toShopUserResponse(user models.ShopUser) dto.ShopUserResponse {
	resp := dto.ShopUserResponse{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}
	if user.Address.Address != "" || user.Address.FullName != "" {
		address := user.Address
		resp.Address = &address
	}
	return resp
}
