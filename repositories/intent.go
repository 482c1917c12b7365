package repositories

import (
	"github.com/craftsite-simple/database"
	"github.com/craftsite-simple/models"
)

// IntentRepository handles database operations for chatbot intents
type IntentRepository struct{}

// NewIntentRepository creates a new intent repository instance
func NewIntentRepository() *IntentRepository {
	return &IntentRepository{}
}

// FindAll retrieves all intents
func (r *IntentRepository) FindAll() ([]models.Intent, error) {
	var intents []models.Intent
	result := database.DB.Find(&intents)
	return intents, result.Error
}

// Count returns the number of seeded intents
func (r *IntentRepository) Count() (int64, error) {
	var count int64
	err := database.DB.Model(&models.Intent{}).Count(&count).Error
	return count, err
}

// CreateBatch inserts a set of intents
func (r *IntentRepository) CreateBatch(intents []models.Intent) error {
	if len(intents) == 0 {
		return nil
	}
	return database.DB.Create(&intents).Error
}
