package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHikeRequest_Validate(t *testing.T) {
	tests := []struct {
		name       string
		req        HikeRequest
		wantFields []string
	}{
		{
			name: "valid",
			req:  HikeRequest{Name: "Ridge", Description: "Long ridge walk", TotalDistance: 12},
		},
		{
			name:       "blank name and description",
			req:        HikeRequest{Name: "  ", Description: ""},
			wantFields: []string{"name", "description"},
		},
		{
			name:       "negative numbers",
			req:        HikeRequest{Name: "a", Description: "b", TotalDistance: -1, TotalDurationInMinutes: -1, TotalElevationGain: -5},
			wantFields: []string{"totalDistance", "totalDurationInMinutes", "totalElevationGain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
			assert.Len(t, verrs, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, verrs, f)
			}
		})
	}
}

func TestRouteRequest_Validate(t *testing.T) {
	err := RouteRequest{Description: "x"}.Validate()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "hikeId")
	assert.Contains(t, verrs, "navigationNotes")
	assert.NotContains(t, verrs, "description")

	assert.NoError(t, RouteRequest{HikeID: "H1", Description: "x", NavigationNotes: "left at fork"}.Validate())
}

func TestPointRequest_Validate(t *testing.T) {
	err := PointRequest{Latitude: 91, Longitude: -181, RouteID: ""}.Validate()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 3)

	assert.NoError(t, PointRequest{Latitude: 46.5, Longitude: 7.9, RouteID: "R1"}.Validate())
}

func TestValidateLoginAndRegistration(t *testing.T) {
	assert.NoError(t, ValidateLogin("a@b.com", "pw"))
	assert.Error(t, ValidateLogin("not-an-email", "pw"))
	assert.Error(t, ValidateLogin("a@b", "pw"))
	assert.Error(t, ValidateLogin("a@b.com", ""))

	assert.NoError(t, ValidateRegistration("a@b.com", "Passw0rd!", "ann"))

	err := ValidateRegistration("a@b.com", "password", "")
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "password")
	assert.Contains(t, verrs, "userName")
}

func TestValidationErrors_ErrorIsOrdered(t *testing.T) {
	err := ValidationErrors{"b": "second", "a": "first"}
	assert.Equal(t, "validation failed: a: first; b: second", err.Error())
}

func TestHikeWithRoutes_FlattensHike(t *testing.T) {
	raw := `{"id":"H1","name":"Ridge","routes":[{"id":"R1","hikeId":"H1"}]}`
	var hwr HikeWithRoutes
	require.NoError(t, json.Unmarshal([]byte(raw), &hwr))
	assert.Equal(t, "H1", hwr.ID)
	assert.Equal(t, "Ridge", hwr.Name)
	assert.True(t, hwr.HasRoute("R1"))
	assert.False(t, hwr.HasRoute("R2"))
}
