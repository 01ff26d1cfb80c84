package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityType(t *testing.T) {
	tests := []struct {
		input   string
		want    EntityType
		wantErr bool
	}{
		{"person", EntityTypePerson, false},
		{" Organization ", EntityTypeOrganization, false},
		{"LAW", EntityTypeLaw, false},
		{"other", EntityTypeOther, false},
		{"spaceship", EntityTypeOther, true},
		{"", EntityTypeOther, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEntityType(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownEntityType)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntityType_RoundTrip(t *testing.T) {
	for _, et := range EntityTypes() {
		parsed, err := ParseEntityType(et.String())
		require.NoError(t, err)
		assert.Equal(t, et, parsed)
		assert.True(t, et.Valid())
	}
	assert.Len(t, EntityTypeNames(), len(EntityTypes()))
}

func TestEntityType_Invalid(t *testing.T) {
	bad := EntityType(100)
	assert.False(t, bad.Valid())
	assert.Equal(t, "EntityType(100)", bad.String())
}

func TestEntityType_Text(t *testing.T) {
	text, err := EntityTypeOrganization.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "organization", string(text))

	var et EntityType
	require.NoError(t, et.UnmarshalText([]byte("Person")))
	assert.Equal(t, EntityTypePerson, et)

	assert.ErrorIs(t, et.UnmarshalText([]byte("spaceship")), ErrUnknownEntityType)
	assert.Equal(t, EntityTypePerson, et)

	_, err = EntityType(100).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownEntityType)
}
