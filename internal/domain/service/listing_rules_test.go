package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accmarket/internal/domain/entity"
	"accmarket/pkg/errors"
)

func mobaGame() *entity.Game {
	return &entity.Game{
		Name: "Liên Quân",
		Fields: []entity.GameField{
			{Key: "rank", Label: "Rank", Type: entity.FieldSelect, Required: true, Options: []string{"Gold", "Diamond"}},
			{Key: "heroes", Label: "Heroes", Type: entity.FieldNumber, Required: true},
			{Key: "linked", Type: entity.FieldBoolean},
			{Key: "server", Type: entity.FieldString},
		},
	}
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeValidation, appErr.Code)
	return appErr.Details["field"]
}

func TestValidateAttributes(t *testing.T) {
	game := mobaGame()

	out, err := ValidateAttributes(game, map[string]interface{}{
		"rank":   "Diamond",
		"heroes": json.Number("87"),
		"linked": true,
		"server": "  Asia ",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"rank": "Diamond", "heroes": 87.0, "linked": true, "server": "Asia",
	}, out)

	tests := []struct {
		name  string
		attrs map[string]interface{}
		field string
	}{
		{"unknown key", map[string]interface{}{"rank": "Gold", "heroes": 1.0, "skins": 3.0}, "attributes.skins"},
		{"missing required", map[string]interface{}{"rank": "Gold"}, "attributes.heroes"},
		{"bad number", map[string]interface{}{"rank": "Gold", "heroes": "many"}, "attributes.heroes"},
		{"bad bool", map[string]interface{}{"rank": "Gold", "heroes": 1.0, "linked": "yes"}, "attributes.linked"},
		{"option not allowed", map[string]interface{}{"rank": "Bronze", "heroes": 1.0}, "attributes.rank"},
		{"string as number", map[string]interface{}{"rank": "Gold", "heroes": 1.0, "server": 5.0}, "attributes.server"},
		{"nil required", map[string]interface{}{"rank": nil, "heroes": 1.0}, "attributes.rank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAttributes(game, tt.attrs)
			assert.Equal(t, tt.field, fieldOf(t, err))
		})
	}
}

func TestValidateListing(t *testing.T) {
	valid := ListingDraft{
		Title:       "Acc full tướng",
		Description: "Rank kim cương, 87 tướng",
		Price:       100000,
		Images:      []string{"https://img/1.png"},
	}
	require.NoError(t, ValidateListing(valid, DefaultMinDescriptionLength))

	zero := int64(0)
	tests := []struct {
		name  string
		edit  func(d *ListingDraft)
		field string
	}{
		{"blank title", func(d *ListingDraft) { d.Title = "  " }, "title"},
		{"zero price", func(d *ListingDraft) { d.Price = 0 }, "price"},
		{"negative price", func(d *ListingDraft) { d.Price = -5 }, "price"},
		{"zero original price", func(d *ListingDraft) { d.OriginalPrice = &zero }, "original_price"},
		{"no images", func(d *ListingDraft) { d.Images = nil }, "images"},
		{"blank image", func(d *ListingDraft) { d.Images = []string{"a", ""} }, "images[1]"},
		{"short description", func(d *ListingDraft) { d.Description = "too short" }, "description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.edit(&d)
			assert.Equal(t, tt.field, fieldOf(t, ValidateListing(d, DefaultMinDescriptionLength)))
		})
	}

	// length is counted in characters, not bytes
	d := valid
	d.Description = strings.Repeat("ế", 10)
	assert.NoError(t, ValidateListing(d, DefaultMinDescriptionLength))
}

func TestValidateGameFields(t *testing.T) {
	assert.NoError(t, ValidateGameFields(mobaGame().Fields))
	assert.Error(t, ValidateGameFields([]entity.GameField{{Key: "a", Type: "date"}}))
	assert.Error(t, ValidateGameFields([]entity.GameField{{Key: "a", Type: entity.FieldSelect}}))
	assert.Error(t, ValidateGameFields([]entity.GameField{{Key: "a", Type: entity.FieldString}, {Key: "a", Type: entity.FieldNumber}}))
	assert.Error(t, ValidateGameFields([]entity.GameField{{Type: entity.FieldString}}))
}
