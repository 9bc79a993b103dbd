package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"adomcp/internal/domain"
	"adomcp/internal/infra/registry"
)

func buildDispatcher(t *testing.T, catalog []domain.ToolDescriptor, enabled map[domain.Domain]bool) *Dispatcher {
	t.Helper()
	reg, err := registry.New(catalog, enabled, zap.NewNop())
	require.NoError(t, err)
	return New(reg, nil, zap.NewNop())
}

func echoHandler(_ context.Context, args map[string]any, _ domain.Credential) (any, error) {
	return args, nil
}

func testCredential() domain.Credential {
	return domain.Credential{Token: "token", Mode: domain.AuthEnv}
}

func TestInvoke_UnknownTool(t *testing.T) {
	d := buildDispatcher(t, []domain.ToolDescriptor{
		{Name: "core_list_projects", Domain: domain.DomainCore, Handler: echoHandler},
	}, map[domain.Domain]bool{domain.DomainCore: true})

	result := d.Invoke(context.Background(), domain.CallRequest{
		Tool:       "nope",
		Credential: testCredential(),
	})
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, domain.ErrUnknownTool)
	assert.Nil(t, result.Value)
}

func TestInvoke_DisabledToolIsUnknown(t *testing.T) {
	catalog := []domain.ToolDescriptor{
		{Name: "core_list_projects", Domain: domain.DomainCore, Handler: echoHandler},
		{Name: "wiki_list_wikis", Domain: domain.DomainWiki, Handler: echoHandler},
	}
	d := buildDispatcher(t, catalog, map[domain.Domain]bool{domain.DomainCore: true})

	// Present in the full catalog, absent from the enabled set.
	result := d.Invoke(context.Background(), domain.CallRequest{
		Tool:       "wiki_list_wikis",
		Credential: testCredential(),
	})
	assert.ErrorIs(t, result.Err, domain.ErrUnknownTool)
}

func TestInvoke_MissingRequiredParameter(t *testing.T) {
	catalog := []domain.ToolDescriptor{
		{
			Name:   "wit_get_work_item",
			Domain: domain.DomainWorkItems,
			Params: []domain.Param{
				{Name: "id", Type: domain.TypeInteger, Required: true},
			},
			Handler: echoHandler,
		},
	}
	d := buildDispatcher(t, catalog, map[domain.Domain]bool{domain.DomainWorkItems: true})

	result := d.Invoke(context.Background(), domain.CallRequest{
		Tool:       "wit_get_work_item",
		Args:       map[string]any{},
		Credential: testCredential(),
	})
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, domain.ErrInvalidArguments)
	assert.Contains(t, result.Err.Error(), "id")
}

func TestInvoke_AppliesDefaults(t *testing.T) {
	var seen map[string]any
	catalog := []domain.ToolDescriptor{
		{
			Name:   "core_list_projects",
			Domain: domain.DomainCore,
			Params: []domain.Param{
				{Name: "stateFilter", Type: domain.TypeString, Default: "wellFormed"},
				{Name: "top", Type: domain.TypeInteger, Default: 100},
			},
			Handler: func(_ context.Context, args map[string]any, _ domain.Credential) (any, error) {
				seen = args
				return "ok", nil
			},
		},
	}
	d := buildDispatcher(t, catalog, map[domain.Domain]bool{domain.DomainCore: true})

	result := d.Invoke(context.Background(), domain.CallRequest{
		Tool:       "core_list_projects",
		Args:       map[string]any{"top": float64(5)},
		Credential: testCredential(),
	})
	require.NoError(t, result.Err)
	assert.Equal(t, "wellFormed", seen["stateFilter"])
	assert.Equal(t, 5, seen["top"])
}

func TestInvoke_RejectsUnknownArguments(t *testing.T) {
	catalog := []domain.ToolDescriptor{
		{
			Name:   "core_list_projects",
			Domain: domain.DomainCore,
			Params: []domain.Param{
				{Name: "top", Type: domain.TypeInteger},
			},
			Handler: echoHandler,
		},
	}
	d := buildDispatcher(t, catalog, map[domain.Domain]bool{domain.DomainCore: true})

	result := d.Invoke(context.Background(), domain.CallRequest{
		Tool:       "core_list_projects",
		Args:       map[string]any{"top": float64(1), "bogus": "x", "extra": true},
		Credential: testCredential(),
	})
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, domain.ErrInvalidArguments)
	assert.Contains(t, result.Err.Error(), "bogus")
	assert.Contains(t, result.Err.Error(), "extra")
}

func TestInvoke_TypeMismatch(t *testing.T) {
	catalog := []domain.ToolDescriptor{
		{
			Name:   "wit_get_work_item",
			Domain: domain.DomainWorkItems,
			Params: []domain.Param{
				{Name: "id", Type: domain.TypeInteger, Required: true},
			},
			Handler: echoHandler,
		},
	}
	d := buildDispatcher(t, catalog, map[domain.Domain]bool{domain.DomainWorkItems: true})

	result := d.Invoke(context.Background(), domain.CallRequest{
		Tool:       "wit_get_work_item",
		Args:       map[string]any{"id": "twelve"},
		Credential: testCredential(),
	})
	assert.ErrorIs(t, result.Err, domain.ErrInvalidArguments)

	result = d.Invoke(context.Background(), domain.CallRequest{
		Tool:       "wit_get_work_item",
		Args:       map[string]any{"id": 12.5},
		Credential: testCredential(),
	})
	assert.ErrorIs(t, result.Err, domain.ErrInvalidArguments)
}

func TestInvoke_MissingCredential(t *testing.T) {
	catalog := []domain.ToolDescriptor{
		{Name: "core_list_projects", Domain: domain.DomainCore, Handler: echoHandler},
	}
	d := buildDispatcher(t, catalog, map[domain.Domain]bool{domain.DomainCore: true})

	result := d.Invoke(context.Background(), domain.CallRequest{
		Tool: "core_list_projects",
	})
	assert.ErrorIs(t, result.Err, domain.ErrMissingCredential)
}

func TestInvoke_BackendErrorPassthrough(t *testing.T) {
	backendErr := &domain.BackendError{Status: 503, Message: "service unavailable"}
	catalog := []domain.ToolDescriptor{
		{
			Name:   "core_list_projects",
			Domain: domain.DomainCore,
			Handler: func(context.Context, map[string]any, domain.Credential) (any, error) {
				return nil, backendErr
			},
		},
	}
	d := buildDispatcher(t, catalog, map[domain.Domain]bool{domain.DomainCore: true})

	result := d.Invoke(context.Background(), domain.CallRequest{
		Tool:       "core_list_projects",
		Credential: testCredential(),
	})
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, domain.ErrBackend)

	var be *domain.BackendError
	require.True(t, errors.As(result.Err, &be))
	assert.Equal(t, 503, be.Status)
}

func TestInvoke_UntypedHandlerErrorIsNormalized(t *testing.T) {
	catalog := []domain.ToolDescriptor{
		{
			Name:   "core_list_projects",
			Domain: domain.DomainCore,
			Handler: func(context.Context, map[string]any, domain.Credential) (any, error) {
				return nil, errors.New("socket reset")
			},
		},
	}
	d := buildDispatcher(t, catalog, map[domain.Domain]bool{domain.DomainCore: true})

	result := d.Invoke(context.Background(), domain.CallRequest{
		Tool:       "core_list_projects",
		Credential: testCredential(),
	})
	assert.ErrorIs(t, result.Err, domain.ErrBackend)
}

func TestInvoke_ConcurrentCredentialIsolation(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]string)

	catalog := []domain.ToolDescriptor{
		{
			Name:   "record_credential",
			Domain: domain.DomainCore,
			Params: []domain.Param{
				{Name: "caller", Type: domain.TypeString, Required: true},
			},
			Handler: func(_ context.Context, args map[string]any, cred domain.Credential) (any, error) {
				mu.Lock()
				defer mu.Unlock()
				seen[args["caller"].(string)] = cred.Token
				return "ok", nil
			},
		},
	}
	d := buildDispatcher(t, catalog, map[domain.Domain]bool{domain.DomainCore: true})

	var wg sync.WaitGroup
	for _, caller := range []string{"alice", "bob"} {
		wg.Add(1)
		go func(caller string) {
			defer wg.Done()
			result := d.Invoke(context.Background(), domain.CallRequest{
				Tool:       "record_credential",
				Args:       map[string]any{"caller": caller},
				Credential: domain.Credential{Token: "pat-" + caller, Mode: domain.AuthPAT},
			})
			assert.NoError(t, result.Err)
		}(caller)
	}
	wg.Wait()

	assert.Equal(t, "pat-alice", seen["alice"])
	assert.Equal(t, "pat-bob", seen["bob"])
	assert.NotEqual(t, seen["alice"], seen["bob"])
}

func TestListTools_CatalogOrder(t *testing.T) {
	catalog := []domain.ToolDescriptor{
		{Name: "wit_get_work_item", Domain: domain.DomainWorkItems, Handler: echoHandler},
		{Name: "pipelines_get_builds", Domain: domain.DomainPipelines, Handler: echoHandler},
		{Name: "wiki_list_wikis", Domain: domain.DomainWiki, Handler: echoHandler},
		{Name: "wit_create_work_item", Domain: domain.DomainWorkItems, Handler: echoHandler},
	}
	enabled, err := domain.ResolveDomains([]string{"work-items", "pipelines"})
	require.NoError(t, err)

	d := buildDispatcher(t, catalog, enabled)

	var names []string
	for _, desc := range d.ListTools() {
		names = append(names, desc.Name)
	}
	assert.Equal(t, []string{"wit_get_work_item", "pipelines_get_builds", "wit_create_work_item"}, names)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, domain.CallStatusSuccess, StatusOf(nil))
	assert.Equal(t, domain.CallStatusUnknownTool, StatusOf(domain.ErrUnknownTool))
	assert.Equal(t, domain.CallStatusInvalidArguments, StatusOf(domain.ErrInvalidArguments))
	assert.Equal(t, domain.CallStatusMissingCredential, StatusOf(domain.ErrMissingCredential))
	assert.Equal(t, domain.CallStatusBackendError, StatusOf(&domain.BackendError{Message: "x"}))
	assert.Equal(t, domain.CallStatusError, StatusOf(errors.New("other")))
}

func TestInputSchema(t *testing.T) {
	desc := &domain.ToolDescriptor{
		Name: "core_list_project_teams",
		Params: []domain.Param{
			{Name: "project", Type: domain.TypeString, Required: true},
			{Name: "top", Type: domain.TypeInteger, Default: 100},
			{Name: "mine", Type: domain.TypeBoolean, Default: false},
		},
	}

	schema := InputSchema(desc)
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"project"}, schema.Required)
	require.Contains(t, schema.Properties, "top")
	assert.Equal(t, "integer", schema.Properties["top"].Type)
	require.NotNil(t, schema.AdditionalProperties)
}
