package entity

import (
	"time"

	"gorm.io/datatypes"
)

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
)

// GameField declares one attribute key an acc of this game may carry.
type GameField struct {
	Key      string    `json:"key" firestore:"key"`
	Label    string    `json:"label" firestore:"label"`
	Type     FieldType `json:"type" firestore:"type"`
	Required bool      `json:"required" firestore:"required"`
	Options  []string  `json:"options,omitempty" firestore:"options,omitempty"`
}

type Game struct {
	ID        string                         `json:"id" gorm:"primaryKey;size:36" firestore:"id"`
	Name      string                         `json:"name" gorm:"size:120;not null" firestore:"name"`
	Slug      string                         `json:"slug" gorm:"size:160;not null;uniqueIndex" firestore:"slug"`
	Icon      string                         `json:"icon,omitempty" gorm:"size:512" firestore:"icon,omitempty"`
	IsActive  bool                           `json:"is_active" gorm:"not null" firestore:"isActive"`
	Fields    datatypes.JSONSlice[GameField] `json:"fields" firestore:"fields"`
	SortOrder int                            `json:"sort_order" gorm:"not null;default:0" firestore:"sortOrder"`
	CreatedAt time.Time                      `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time                      `json:"updated_at" firestore:"updatedAt"`
}

func (Game) TableName() string { return "games" }

func (g *Game) Field(key string) (GameField, bool) {
	for _, f := range g.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return GameField{}, false
}
