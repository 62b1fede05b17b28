package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "promisetracker/pkg/domain-errors"
)

// TestParseUUID_Invariants: IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePromiseID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePromiseID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParsePromiseID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParsePromiseID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, PromiseID(validUUID), id)
	})
}

func TestParseID_HostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE promises;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Empty string", "", true},
		{"Nil UUID", uuid.Nil.String(), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errUser := ParseUserID(validUUID)
		_, errParty := ParsePartyID(validUUID)
		_, errConvocation := ParseConvocationID(validUUID)
		_, errPromise := ParsePromiseID(validUUID)
		_, errResult := ParseResultID(validUUID)

		require.NoError(t, errUser)
		require.NoError(t, errParty)
		require.NoError(t, errConvocation)
		require.NoError(t, errPromise)
		require.NoError(t, errResult)
	})

	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errParty := ParsePartyID(input)
			_, errConvocation := ParseConvocationID(input)
			_, errPromise := ParsePromiseID(input)
			_, errResult := ParseResultID(input)

			require.Error(t, errUser)
			require.Error(t, errParty)
			require.Error(t, errConvocation)
			require.Error(t, errPromise)
			require.Error(t, errResult)
		})
	}
}

func TestIDsInJSON(t *testing.T) {
	type payload struct {
		Party PartyID `json:"party"`
	}
	partyID := NewPartyID()

	body, err := json.Marshal(payload{Party: partyID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"party":"`+partyID.String()+`"}`, string(body))

	var decoded payload
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, partyID, decoded.Party)

	err = json.Unmarshal([]byte(`{"party":"nope"}`), &decoded)
	require.Error(t, err)
}
