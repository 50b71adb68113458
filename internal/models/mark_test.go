package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSubjectMarks(t *testing.T) {
	marks := NormalizeSubjectMarks([]SubjectMark{
		{Subject: " Math ", Mark: 85},
		{Subject: "   ", Mark: 99},
		{Subject: "English", Mark: 62},
		{Subject: "Math", Mark: 90},
	})

	assert.Equal(t, SubjectMarks{{Subject: "Math", Mark: 90}, {Subject: "English", Mark: 62}}, marks)
	assert.Equal(t, []float64{90, 62}, marks.Values())

	mark, ok := marks.Lookup("English")
	assert.True(t, ok)
	assert.Equal(t, 62.0, mark)
	_, ok = marks.Lookup("Art")
	assert.False(t, ok)
}

func TestNormalizeSubjectMarksEmpty(t *testing.T) {
	assert.Empty(t, NormalizeSubjectMarks(nil))
	assert.Empty(t, NormalizeSubjectMarks([]SubjectMark{{Subject: ""}}))
}

func TestIdentityName(t *testing.T) {
	assert.Equal(t, "Ada", (&Identity{ID: 1, DisplayName: "Ada"}).Name())
	assert.Equal(t, "ID 42", (&Identity{ID: 42}).Name())
}

func TestClaimsActor(t *testing.T) {
	claims := &JWTClaims{UserID: 7, Roles: []string{"teacher"}, Email: "t@school.test"}
	actor := claims.Actor()
	assert.Equal(t, int64(7), actor.ID)
	assert.Equal(t, []string{"teacher"}, actor.Roles)

	assert.Equal(t, Actor{}, (*JWTClaims)(nil).Actor())
}
