package core

import (
	"fmt"
	"strings"
)

// EntityType is the closed set of entity categories recognized by the
// extractor and the graph collaborator.
type EntityType int

const (
	EntityTypeOther EntityType = iota
	EntityTypePerson
	EntityTypeOrganization
	EntityTypeLocation
	EntityTypeProduct
	EntityTypeEvent
	EntityTypeDate
	EntityTypeMoney
	EntityTypeLaw
	EntityTypeConcept
)

var entityTypeNames = [...]string{
	EntityTypeOther:        "other",
	EntityTypePerson:       "person",
	EntityTypeOrganization: "organization",
	EntityTypeLocation:     "location",
	EntityTypeProduct:      "product",
	EntityTypeEvent:        "event",
	EntityTypeDate:         "date",
	EntityTypeMoney:        "money",
	EntityTypeLaw:          "law",
	EntityTypeConcept:      "concept",
}

// EntityTypes lists every EntityType in declaration order.
func EntityTypes() []EntityType {
	types := make([]EntityType, len(entityTypeNames))
	for i := range entityTypeNames {
		types[i] = EntityType(i)
	}
	return types
}

// EntityTypeNames lists the string form of every EntityType, for prompts.
func EntityTypeNames() []string {
	return append([]string(nil), entityTypeNames[:]...)
}

func (t EntityType) String() string {
	if t < 0 || int(t) >= len(entityTypeNames) {
		return fmt.Sprintf("EntityType(%d)", int(t))
	}
	return entityTypeNames[t]
}

// Valid reports whether t is one of the declared constants.
func (t EntityType) Valid() bool {
	return t >= 0 && int(t) < len(entityTypeNames)
}

// ParseEntityType maps a name such as "Organization" or " person " to its
// EntityType. Spaces and hyphens are treated as underscores.
func ParseEntityType(s string) (EntityType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for i, name := range entityTypeNames {
		if name == norm {
			return EntityType(i), nil
		}
	}
	return EntityTypeOther, fmt.Errorf("%w: %q", ErrUnknownEntityType, s)
}

func (t EntityType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEntityType, int(t))
	}
	return []byte(t.String()), nil
}

func (t *EntityType) UnmarshalText(text []byte) error {
	parsed, err := ParseEntityType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// EntityMention is an entity recorded against a stored passage.
type EntityMention struct {
	Name string
	Type EntityType
}
