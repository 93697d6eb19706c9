package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyAndParseRoundTrip(t *testing.T) {
	in := &ServiceInstance{Name: "storefront-api", Host: "10.0.0.5", Port: 8080}

	assert.Equal(t, "/services/storefront-api/10.0.0.5:8080", Key("/services/", in))

	out, err := ParseInstance("storefront-api", in.Addr())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseInstance_Rejects(t *testing.T) {
	for _, v := range []string{"10.0.0.5", "host:port", ""} {
		_, err := ParseInstance("svc", v)
		assert.Error(t, err, v)
	}
}

func TestContains(t *testing.T) {
	self := &ServiceInstance{Name: "storefront-api", Host: "10.0.0.5", Port: 8080}
	others := []*ServiceInstance{
		{Name: "storefront-api", Host: "10.0.0.6", Port: 8080},
		{Name: "storefront-api", Host: "10.0.0.5", Port: 9090},
	}

	assert.False(t, Contains(others, self))
	assert.False(t, Contains(nil, self))
	assert.True(t, Contains(append(others, &ServiceInstance{Name: "storefront-api", Host: "10.0.0.5", Port: 8080}), self))
}
