package httpclient

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURLBlocksLocalhostByDefault(t *testing.T) {
	c := New(5 * time.Second)

	for _, u := range []string{
		"http://localhost:3000/api/relay-signature",
		"http://127.0.0.1:3000/api/relay-signature",
		"http://sub.localhost/x",
	} {
		_, err := c.ValidateURL(u)
		assert.Error(t, err, u)
	}
}

func TestAllowPrivatePermitsLoopback(t *testing.T) {
	c := New(5*time.Second, AllowPrivate())

	_, err := c.ValidateURL("http://localhost:3000/api/relay-signature")
	require.NoError(t, err)
	_, err = c.ValidateURL("http://127.0.0.1:3000/api/relay-signature")
	require.NoError(t, err)
}

func TestValidateURLRejectsSchemes(t *testing.T) {
	c := New(5*time.Second, AllowPrivate())

	for _, u := range []string{
		"file:///etc/passwd",
		"gopher://example.com",
		"ftp://example.com/x",
	} {
		_, err := c.ValidateURL(u)
		assert.Error(t, err, u)
	}
}

func TestValidateURLRejectsUserinfo(t *testing.T) {
	c := New(5 * time.Second)

	_, err := c.ValidateURL("http://evil.com@example.com/")
	require.Error(t, err)
}

func TestRestrictedIPRanges(t *testing.T) {
	restricted := []string{
		"127.0.0.1", "10.1.2.3", "172.16.0.1", "192.168.1.1",
		"169.254.0.1", "0.0.0.0", "224.0.0.1", "240.0.0.1",
		"::1", "fe80::1", "fc00::1", "fd12::1", "2001:db8::1", "::",
	}
	for _, s := range restricted {
		assert.True(t, isRestrictedIP(net.ParseIP(s)), s)
	}

	public := []string{"1.1.1.1", "8.8.8.8", "93.184.216.34", "2606:4700::1111"}
	for _, s := range public {
		assert.False(t, isRestrictedIP(net.ParseIP(s)), s)
	}
}
