package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"adomcp/internal/domain"
	"adomcp/internal/infra/azdo"
)

func coreTools(factory *azdo.Factory) []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "core_list_projects",
			Domain:      domain.DomainCore,
			Description: "Retrieve a list of projects in your Azure DevOps organization.",
			Params: []domain.Param{
				{Name: "stateFilter", Type: domain.TypeString, Default: "wellFormed", Description: "Filter projects by their state."},
				{Name: "top", Type: domain.TypeInteger, Default: 100, Description: "Maximum number of projects to return."},
				{Name: "skip", Type: domain.TypeInteger, Default: 0, Description: "Number of projects to skip for pagination."},
				{Name: "continuationToken", Type: domain.TypeString, Description: "Continuation token for fetching the next page."},
				{Name: "projectNameFilter", Type: domain.TypeString, Description: "Case-insensitive substring filter on project names."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)

				query := url.Values{}
				setString(query, "stateFilter", args, "stateFilter")
				setInt(query, "$top", args, "top")
				setInt(query, "$skip", args, "skip")
				setString(query, "continuationToken", args, "continuationToken")

				raw, err := client.Get(ctx, client.OrgURL("_apis", "projects"), query)
				if err != nil {
					return nil, err
				}

				filter, ok := argString(args, "projectNameFilter")
				if !ok {
					return raw, nil
				}
				return filterProjectsByName(raw, filter)
			},
		},
		{
			Name:        "core_list_project_teams",
			Domain:      domain.DomainCore,
			Description: "Retrieve a list of teams for the specified Azure DevOps project.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "mine", Type: domain.TypeBoolean, Default: false, Description: "If true, return only teams the authenticated user is a member of."},
				{Name: "top", Type: domain.TypeInteger, Default: 100, Description: "Maximum number of teams to return."},
				{Name: "skip", Type: domain.TypeInteger, Default: 0, Description: "Number of teams to skip for pagination."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")

				query := url.Values{}
				setBool(query, "$mine", args, "mine")
				setInt(query, "$top", args, "top")
				setInt(query, "$skip", args, "skip")

				return client.Get(ctx, client.OrgURL("_apis", "projects", project, "teams"), query)
			},
		},
		{
			Name:        "core_get_identity_ids",
			Domain:      domain.DomainCore,
			Description: "Retrieve Azure DevOps identity IDs for a search filter, such as a display name or email.",
			Params: []domain.Param{
				{Name: "searchFilter", Type: domain.TypeString, Required: true, Description: "The name or email to look up identities for."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				filter, _ := argString(args, "searchFilter")

				query := url.Values{}
				query.Set("searchFilter", "General")
				query.Set("filterValue", filter)

				return client.Get(ctx, client.VsspsURL("_apis", "identities"), query)
			},
		},
	}
}

// filterProjectsByName applies the substring filter the REST API does
// not offer server-side.
func filterProjectsByName(raw json.RawMessage, filter string) (any, error) {
	var page struct {
		Count int               `json:"count"`
		Value []json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decoding project list: %w", err)
	}

	needle := strings.ToLower(filter)
	filtered := make([]json.RawMessage, 0, len(page.Value))
	for _, item := range page.Value {
		var probe struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &probe); err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(probe.Name), needle) {
			filtered = append(filtered, item)
		}
	}

	return map[string]any{
		"count": len(filtered),
		"value": filtered,
	}, nil
}
