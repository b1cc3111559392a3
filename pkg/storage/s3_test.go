package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoverKey(t *testing.T) {
	key := CoverKey("abc-123", "poster.png")
	assert.Equal(t, "covers/abc-123/poster.png", key)

	// Path components in the filename are stripped.
	assert.Equal(t, "covers/abc-123/poster.png", CoverKey("abc-123", "../../poster.png"))
}

func TestCoverKeyFromURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{
			"public cover url",
			"https://my-bucket.s3.us-east-1.amazonaws.com/covers/abc-123/poster.png",
			"covers/abc-123/poster.png",
		},
		{
			"non-cover object",
			"https://my-bucket.s3.us-east-1.amazonaws.com/avatars/abc.png",
			"",
		},
		{
			"external host",
			"https://cdn.example.com/covers/abc-123/poster.png",
			"",
		},
		{
			"empty",
			"",
			"",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CoverKeyFromURL(tc.url))
		})
	}
}

func TestValidateCoverFileType(t *testing.T) {
	assert.True(t, ValidateCoverFileType("image/png", "cover.png"))
	assert.True(t, ValidateCoverFileType("", "cover.webp"))
	assert.True(t, ValidateCoverFileType("image/jpeg", "noext"))
	assert.False(t, ValidateCoverFileType("application/pdf", "cover.pdf"))
	assert.False(t, ValidateCoverFileType("", ""))
}
