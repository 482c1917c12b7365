package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringList custom type for JSON storage
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, s)
}

// Intent is a keyword-matched canned answer, the chatbot's fallback when the
// knowledge base has no relevant context.
type Intent struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Tags      StringList `json:"tags" gorm:"type:jsonb;default:'[]'"`
	Answer    string     `json:"answer" gorm:"not null"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
