package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLocalhostOrigin(t *testing.T) {
	assert.True(t, isLocalhostOrigin("http://localhost:5173"))
	assert.True(t, isLocalhostOrigin("http://localhost"))
	assert.False(t, isLocalhostOrigin("https://localhost:5173"))
	assert.False(t, isLocalhostOrigin("http://localhost.evil.com"))
	assert.False(t, isLocalhostOrigin("http://example.com"))
	assert.False(t, isLocalhostOrigin("::"))
}

func TestCORSConfig(t *testing.T) {
	c := corsConfig(nil)
	assert.NotNil(t, c.AllowOriginFunc)
	assert.Empty(t, c.AllowOrigins)
	assert.True(t, c.AllowCredentials)

	c = corsConfig([]string{"https://app.example.com"})
	assert.Equal(t, []string{"https://app.example.com"}, c.AllowOrigins)
	assert.Nil(t, c.AllowOriginFunc)
}
