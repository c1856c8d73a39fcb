package validator

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AllowsOrdinaryHTTPS(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate("https://example.com/page"))
}

func TestValidate_RejectsDisallowedScheme(t *testing.T) {
	v := New()
	err := v.Validate("ftp://example.com/file")
	assert.ErrorIs(t, err, ErrSchemeNotAllowed)
}

func TestValidate_RejectsBlockedHosts(t *testing.T) {
	v := New()

	for _, host := range []string{"localhost", "127.0.0.1", "0.0.0.0", "metadata.google.internal"} {
		err := v.Validate("http://" + host + "/")
		assert.ErrorIsf(t, err, ErrHostBlocked, "host %q should be blocked", host)
	}
}

func TestValidate_RejectsBlockedCIDRs(t *testing.T) {
	v := New()

	for _, ip := range []string{"10.1.2.3", "172.16.0.5", "192.168.1.1", "169.254.169.254"} {
		err := v.Validate("http://" + ip + "/")
		assert.ErrorIsf(t, err, ErrIPBlocked, "ip %q should be blocked", ip)
	}
}

func TestValidate_AllowHostBypassesBlocklist(t *testing.T) {
	v := New().AllowHost("internal.example.com")
	v.BlockHost("internal.example.com")

	assert.NoError(t, v.Validate("https://internal.example.com/"))
}

func TestValidateWithDNS_BlocksRebinding(t *testing.T) {
	v := New().WithResolver(func(_ context.Context, host string) ([]net.IP, error) {
		return []net.IP{net.ParseIP("169.254.169.254")}, nil
	})

	err := v.ValidateWithDNS(context.Background(), "https://sneaky.example.com/")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIPBlocked)
}

func TestValidateWithDNS_SkipsResolutionForIPLiterals(t *testing.T) {
	called := false

	v := New().WithResolver(func(_ context.Context, host string) ([]net.IP, error) {
		called = true
		return nil, nil
	})

	assert.NoError(t, v.ValidateWithDNS(context.Background(), "https://93.184.216.34/"))
	assert.False(t, called, "DNS resolution should be skipped for IP-literal hosts")
}

func TestValidateWithDNS_SkipsResolutionForAllowedHosts(t *testing.T) {
	called := false

	v := New().AllowHost("trusted.example.com").WithResolver(func(_ context.Context, host string) ([]net.IP, error) {
		called = true
		return []net.IP{net.ParseIP("10.0.0.1")}, nil
	})

	assert.NoError(t, v.ValidateWithDNS(context.Background(), "https://trusted.example.com/"))
	assert.False(t, called)
}
