package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPlatforms(t *testing.T) {
	p := NewPlatforms([]string{" Twitter", "linkedin", "", "TWITTER", "mastodon"})

	assert.Equal(t, []string{"twitter", "linkedin", "mastodon"}, p.Tags())
	assert.True(t, p.Contains("LinkedIn "))
	assert.False(t, p.Contains("instagram"))
	assert.False(t, p.Contains(""))

	tags := p.Tags()
	tags[0] = "changed"
	assert.Equal(t, "twitter", p.Tags()[0], "Tags returns a copy")
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@example.com", NormalizeEmail("  Ann@Example.COM\t"))
}

func TestRoles(t *testing.T) {
	assert.True(t, ValidRole(RoleUser))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("Admin"))

	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
	var nilUser *User
	assert.False(t, nilUser.IsAdmin())
}
