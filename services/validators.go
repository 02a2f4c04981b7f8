package services

import (
	"fmt"
	"strings"
)

// AutoDetectedType is the placeholder type assigned to components straight
// out of the segmentation engine, before a reviewer has labelled them.
const AutoDetectedType = "auto_detected"

// valid component types for each room category
var roomComponentMappings = map[string][]string{
	"living_room": {"furniture", "decor"},
	"kitchen":     {"furniture", "appliance", "fixture"},
	"bedroom":     {"furniture", "decor", "fixture"},
	"bathroom":    {"fixture", "furniture"},
	"dining_room": {"furniture", "decor", "fixture"},
}

var knownComponentTypes = map[string]bool{
	"furniture": true,
	"appliance": true,
	"fixture":   true,
	"decor":     true,
}

// IsKnownComponentType reports whether componentType is one of the
// enumerated types the compatibility table covers. Free-text labels
// (including AutoDetectedType) are not subject to category validation.
func IsKnownComponentType(componentType string) bool {
	return knownComponentTypes[componentType]
}

// ValidateComponentCategory checks whether componentType is an allowed type
// for the given room category.
func ValidateComponentCategory(roomCategory, componentType string) (bool, string) {
	validTypes, ok := roomComponentMappings[roomCategory]
	if !ok {
		return false, fmt.Sprintf("unknown room category %q", roomCategory)
	}
	if !IsKnownComponentType(componentType) {
		return false, fmt.Sprintf("unknown component type %q", componentType)
	}
	for _, t := range validTypes {
		if t == componentType {
			return true, fmt.Sprintf("valid component type for %s", roomCategory)
		}
	}
	return false, fmt.Sprintf("component type %q not valid for %s. Valid types: %s",
		componentType, roomCategory, strings.Join(validTypes, ", "))
}

// AlternativeTypes returns the other valid component types for a room
// category, excluding currentType.
func AlternativeTypes(roomCategory, currentType string) []string {
	validTypes, ok := roomComponentMappings[roomCategory]
	if !ok {
		return nil
	}
	alternatives := make([]string, 0, len(validTypes))
	for _, t := range validTypes {
		if t != currentType {
			alternatives = append(alternatives, t)
		}
	}
	return alternatives
}
