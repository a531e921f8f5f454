package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
	assert.False(t, (&User{}).IsAdmin())
}

func TestUser_Summary(t *testing.T) {
	avatar := "/avatars/5.png"
	user := &User{ID: 5, Name: "John", Email: "john@example.com", Avatar: &avatar}

	summary := user.Summary()

	assert.Equal(t, int64(5), summary.ID)
	assert.Equal(t, "John", summary.Name)
	assert.Equal(t, &avatar, summary.Avatar)
}
