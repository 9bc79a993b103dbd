package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDomains_Single(t *testing.T) {
	enabled, err := ResolveDomains([]string{"work-items"})
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.True(t, enabled[DomainWorkItems])
}

func TestResolveDomains_CaseInsensitiveAndTrimmed(t *testing.T) {
	enabled, err := ResolveDomains([]string{" Repositories ", "PIPELINES"})
	require.NoError(t, err)
	assert.True(t, enabled[DomainRepositories])
	assert.True(t, enabled[DomainPipelines])
	assert.Len(t, enabled, 2)
}

func TestResolveDomains_All(t *testing.T) {
	enabled, err := ResolveDomains([]string{"all"})
	require.NoError(t, err)
	require.Len(t, enabled, len(AvailableDomains()))
	for _, d := range AvailableDomains() {
		assert.True(t, enabled[d], "domain %s should be enabled", d)
	}
}

func TestResolveDomains_AllPlusOthersIsIdempotent(t *testing.T) {
	all, err := ResolveDomains([]string{"all"})
	require.NoError(t, err)

	mixed, err := ResolveDomains([]string{"all", "wiki", "core"})
	require.NoError(t, err)

	if diff := cmp.Diff(all, mixed); diff != "" {
		t.Fatalf("all+others differs from all alone (-all +mixed):\n%s", diff)
	}
}

func TestResolveDomains_UnknownDomain(t *testing.T) {
	_, err := ResolveDomains([]string{"core", "bogus"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownDomain)
	assert.Contains(t, err.Error(), "bogus")
}

func TestResolveDomains_EmptyRequest(t *testing.T) {
	_, err := ResolveDomains(nil)
	require.Error(t, err)

	_, err = ResolveDomains([]string{"  ", ""})
	require.Error(t, err)
}

func TestResolveDomains_Deduplicates(t *testing.T) {
	enabled, err := ResolveDomains([]string{"wiki", "wiki", "Wiki"})
	require.NoError(t, err)
	assert.Len(t, enabled, 1)
}

func TestParseAuthMode(t *testing.T) {
	for _, valid := range []string{"interactive", "azcli", "env", "pat"} {
		mode, err := ParseAuthMode(valid)
		require.NoError(t, err)
		assert.Equal(t, AuthMode(valid), mode)
	}

	_, err := ParseAuthMode("oauth")
	require.Error(t, err)
}

func TestParseTransportMode(t *testing.T) {
	for _, valid := range []string{"stdio", "http"} {
		mode, err := ParseTransportMode(valid)
		require.NoError(t, err)
		assert.Equal(t, TransportMode(valid), mode)
	}

	_, err := ParseTransportMode("grpc")
	require.Error(t, err)
}
