package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatorCustomTags(t *testing.T) {
	v := NewValidator()

	ok := CreateUserRequest{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@fiu.edu",
		PantherID:      "6123456",
		Role:           "faculty",
		AuthorizedLabs: []string{"EC3625"},
	}
	require.NoError(t, v.Validate(&ok))

	badRole := ok
	badRole.Role = "owner"
	err := v.Validate(&badRole)
	require.Error(t, err)
	require.Equal(t, "Invalid role", ValidationMessage(err, "missing"))

	badLab := ok
	badLab.AuthorizedLabs = []string{"EC3625", "XX1"}
	err = v.Validate(&badLab)
	require.Equal(t, "Invalid lab", ValidationMessage(err, "missing"))

	noLabs := ok
	noLabs.AuthorizedLabs = []string{}
	err = v.Validate(&noLabs)
	require.Equal(t, "missing", ValidationMessage(err, "missing"))

	noName := ok
	noName.FirstName = ""
	err = v.Validate(&noName)
	require.Equal(t, "missing", ValidationMessage(err, "missing"))
}

func TestValidatorEquipment(t *testing.T) {
	v := NewValidator()
	req := EquipmentRequest{
		Name:         "Scope",
		Category:     "Tek",
		Lab:          "EC3625",
		SerialNumber: "S1",
		Quantity:     "1",
		Status:       "Surplus",
	}
	require.NoError(t, v.Validate(&req))

	req.Status = "Lost"
	require.Equal(t, "Invalid status", ValidationMessage(v.Validate(&req), MissingEquipmentFields))

	req.Status = "Surplus"
	req.ManualLink = "not a url"
	require.Equal(t, "Invalid manual link URL", ValidationMessage(v.Validate(&req), MissingEquipmentFields))

	req.ManualLink = ""
	req.SerialNumber = ""
	require.Equal(t, MissingEquipmentFields, ValidationMessage(v.Validate(&req), MissingEquipmentFields))
}

func TestValidationMessagePassword(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&SetupPasswordRequest{Token: "t", Password: "123"})
	require.Equal(t, "Password must be at least 6 characters", ValidationMessage(err, "missing"))

	require.Equal(t, "boom", ValidationMessage(errors.New("boom"), "missing"))
}

func TestEquipmentRequestJSON(t *testing.T) {
	var req EquipmentRequest
	body := `{"name":"Scope","serialNumber":12345,"quantity":2,"price":"10.5","keepImage":true}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Equal(t, "12345", string(req.SerialNumber))
	require.Equal(t, "2", string(req.Quantity))
	require.Equal(t, "10.5", string(req.Price))
	require.True(t, bool(req.KeepImage))

	var f Flag
	require.NoError(t, json.Unmarshal([]byte(`"TRUE"`), &f))
	require.True(t, bool(f))
	require.NoError(t, f.UnmarshalParam("false"))
	require.False(t, bool(f))

	it := req.Item()
	require.Equal(t, "Scope", it.Name)
	require.Equal(t, "12345", string(it.SerialNumber))
}
