package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"accmarket/internal/domain/entity"
	"accmarket/pkg/errors"
)

const DefaultMinDescriptionLength = 10

// ListingDraft is the complete set of listing fields checked on submit and
// after an edit has been merged onto the stored acc.
type ListingDraft struct {
	Title         string
	Description   string
	Price         int64
	OriginalPrice *int64
	Images        []string
}

func ValidateListing(d ListingDraft, minDescription int) error {
	if strings.TrimSpace(d.Title) == "" {
		return errors.Validation("title", "title is required")
	}
	if d.Price <= 0 {
		return errors.Validation("price", "price must be greater than 0")
	}
	if d.OriginalPrice != nil && *d.OriginalPrice <= 0 {
		return errors.Validation("original_price", "original price must be greater than 0")
	}
	if len(d.Images) == 0 {
		return errors.Validation("images", "at least one image is required")
	}
	for i, img := range d.Images {
		if strings.TrimSpace(img) == "" {
			return errors.Validation(fmt.Sprintf("images[%d]", i), "image url must not be empty")
		}
	}
	if utf8.RuneCountInString(strings.TrimSpace(d.Description)) < minDescription {
		return errors.Validation("description", fmt.Sprintf("description must be at least %d characters", minDescription))
	}
	return nil
}

// ValidateAttributes checks attrs against the game's field schema: unknown
// keys are rejected, required keys must be present, and each value must
// match its declared type. The returned map holds normalised values.
func ValidateAttributes(game *entity.Game, attrs map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(attrs))

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, ok := game.Field(key)
		if !ok {
			return nil, errors.Validation("attributes."+key, fmt.Sprintf("%s is not a field of %s", key, game.Name))
		}
		v, err := coerce(field, attrs[key])
		if err != nil {
			return nil, errors.Validation("attributes."+key, err.Error())
		}
		if v != nil {
			out[key] = v
		}
	}

	for _, field := range game.Fields {
		if !field.Required {
			continue
		}
		if _, ok := out[field.Key]; !ok {
			return nil, errors.Validation("attributes."+field.Key, fmt.Sprintf("%s is required", labelOf(field)))
		}
	}
	return out, nil
}

func coerce(field entity.GameField, raw interface{}) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	switch field.Type {
	case entity.FieldNumber:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			return n.Float64()
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err != nil {
				return nil, fmt.Errorf("%s must be a number", labelOf(field))
			}
			return f, nil
		}
		return nil, fmt.Errorf("%s must be a number", labelOf(field))
	case entity.FieldBoolean:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("%s must be true or false", labelOf(field))
	case entity.FieldSelect:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be one of: %s", labelOf(field), strings.Join(field.Options, ", "))
		}
		for _, opt := range field.Options {
			if opt == s {
				return s, nil
			}
		}
		return nil, fmt.Errorf("%s must be one of: %s", labelOf(field), strings.Join(field.Options, ", "))
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be text", labelOf(field))
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		return s, nil
	}
}

func labelOf(f entity.GameField) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

// ValidateGameFields checks a schema definition before it is stored.
func ValidateGameFields(fields []entity.GameField) error {
	seen := map[string]bool{}
	for i, f := range fields {
		name := fmt.Sprintf("fields[%d]", i)
		if strings.TrimSpace(f.Key) == "" {
			return errors.Validation(name+".key", "field key is required")
		}
		if seen[f.Key] {
			return errors.Validation(name+".key", fmt.Sprintf("duplicate field key %q", f.Key))
		}
		seen[f.Key] = true
		switch f.Type {
		case entity.FieldString, entity.FieldNumber, entity.FieldBoolean:
		case entity.FieldSelect:
			if len(f.Options) == 0 {
				return errors.Validation(name+".options", "select fields need at least one option")
			}
		default:
			return errors.Validation(name+".type", fmt.Sprintf("unknown field type %q", f.Type))
		}
	}
	return nil
}
