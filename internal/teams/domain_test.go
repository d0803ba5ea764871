package teams

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleOrdering(t *testing.T) {
	require.True(t, RoleOwner.Meets(RoleAdmin))
	require.True(t, RoleAdmin.Meets(RoleEditor))
	require.True(t, RoleEditor.Meets(RoleViewer))
	require.True(t, RoleViewer.Meets(RoleViewer))

	require.False(t, RoleViewer.Meets(RoleEditor))
	require.False(t, RoleEditor.Meets(RoleAdmin))
	require.False(t, RoleAdmin.Meets(RoleOwner))
}

func TestParseRole(t *testing.T) {
	for _, name := range []string{"viewer", "editor", "admin", "owner"} {
		role, err := ParseRole(name)
		require.NoError(t, err)
		require.Equal(t, name, role.String())
	}

	_, err := ParseRole("manager")
	require.ErrorIs(t, err, ErrUnknownRole)
	_, err = ParseRole("Admin")
	require.ErrorIs(t, err, ErrUnknownRole, "role names are case-sensitive")
}

func TestRoleJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, `"admin"`, string(data))

	var role Role
	require.NoError(t, json.Unmarshal([]byte(`"owner"`), &role))
	require.Equal(t, RoleOwner, role)

	require.Error(t, json.Unmarshal([]byte(`"superuser"`), &role))
}
