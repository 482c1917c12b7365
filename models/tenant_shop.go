package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// The types below live in each tenant's private database, not the shared
// platform database. They are migrated into a freshly provisioned tenant DB
// and reached through short-lived connections opened per request.

// Address is embedded shipping/contact data for a shop customer
type Address struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
}

func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, a)
}

// ShopUser is a customer (or the seeded admin) of one tenant shop
type ShopUser struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"not null"`
	Email       string    `json:"email" gorm:"uniqueIndex;not null"`
	Password    string    `json:"-" gorm:"not null"`
	PhoneNumber string    `json:"phoneNumber" gorm:"default:null"`
	Whatsapp    string    `json:"whatsapp" gorm:"default:null"`
	IsAdmin     bool      `json:"isAdmin" gorm:"default:false"`
	Address     Address   `json:"address" gorm:"type:jsonb;default:'{}'"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CartItems custom type for JSON storage
type CartItems []CartItem

// CartItem references a product defined in the site's components data
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (c CartItems) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *CartItems) Scan(value interface{}) error {
	if value == nil {
		*c = CartItems{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, c)
}

// Cart holds one customer's pending items, one cart per customer
type Cart struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID    string    `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	Items     CartItems `json:"items" gorm:"type:jsonb;default:'[]'"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderItems custom type for JSON storage
type OrderItems []OrderItem

// OrderItem snapshots product name and price at order time
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func (o OrderItems) Value() (driver.Value, error) {
	return json.Marshal(o)
}

func (o *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*o = OrderItems{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, o)
}

// Order is a placed order in one tenant shop
type Order struct {
	ID           string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID       string     `json:"userId" gorm:"type:uuid;not null;index"`
	CustomerName string     `json:"customerName" gorm:"not null"`
	Items        OrderItems `json:"items" gorm:"type:jsonb;default:'[]'"`
	Total        float64    `json:"total" gorm:"not null"`
	Phone        string     `json:"phone" gorm:"not null"`
	Address      Address    `json:"address" gorm:"type:jsonb;default:'{}'"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TenantModels lists everything migrated into a freshly provisioned tenant DB.
func TenantModels() []interface{} {
	return []interface{}{&ShopUser{}, &Cart{}, &Order{}}
}
