package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRoles(t *testing.T) {
	assert.Equal(t, []string{"teacher", "um_teacher"}, splitRoles(" teacher, ,um_teacher"))
	assert.Empty(t, splitRoles(""))
}

func TestJoinIDs(t *testing.T) {
	assert.Equal(t, "23,45,56", joinIDs([]int64{23, 45, 56}))
}

func TestParseUserRequiresEmail(t *testing.T) {
	_, err := parseUser([]string{"-id", "3", "-name", "Ada"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-email")

	_, err = parseUser([]string{"-id", "3", "-email", "   "})
	assert.Error(t, err)

	_, err = parseUser([]string{"-email", "ada@example.com"})
	assert.Error(t, err)

	identity, err := parseUser([]string{"-id", "3", "-email", " ada@example.com ", "-roles", "student,um_student"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), identity.ID)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.Equal(t, []string{"student", "um_student"}, identity.Roles)
}
