package goemitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportedName(t *testing.T) {
	cases := map[string]string{
		"users":         "Users",
		"userId":        "UserID",
		"x-request-id":  "XRequestID",
		"api_key":       "APIKey",
		"HTTPServer":    "HTTPServer",
		"loyalty.tiers": "LoyaltyTiers",
		"":              "",
		"--":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, exportedName(in), in)
	}
}

func TestLowerFirst(t *testing.T) {
	cases := map[string]string{
		"Users":      "users",
		"APIKeys":    "apiKeys",
		"API":        "api",
		"HTTPServer": "httpServer",
		"Type":       "type_",
		"already":    "already",
	}
	for in, want := range cases {
		assert.Equal(t, want, lowerFirst(in), in)
	}
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "rewards", packageName("example.com/acme/rewards"))
	assert.Equal(t, "rewards", packageName("example.com/acme/rewards/v2"))
	assert.Equal(t, "rewardssdk", packageName("example.com/rewards-sdk"))
	assert.Equal(t, "sdk", packageName("example.com/42"))
	assert.Equal(t, "sdk", packageName("example.com/go"))
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "loyalty_tiers", fileName("LoyaltyTiers"))
	assert.Equal(t, "users.go", goFileName("users"))
	assert.Equal(t, "linux.go", goFileName("linux"))
	assert.Equal(t, "user_linux_controller.go", goFileName("user_linux"))
	assert.Equal(t, "smoke_test_controller.go", goFileName("smoke_test"))
}

func TestUniqueNamer(t *testing.T) {
	n := uniqueNamer{}
	assert.Equal(t, "A", n.next("A"))
	assert.Equal(t, "A2", n.next("A"))
	assert.Equal(t, "A3", n.next("A"))
	assert.Equal(t, "B", n.next("B"))
}

func TestCommentLines(t *testing.T) {
	assert.Equal(t, "", commentLines("  ", ""))
	assert.Equal(t, "\t// one\n\t//\n\t// two\n", commentLines("one\n\ntwo\n", "\t"))
}
