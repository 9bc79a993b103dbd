package tools

import (
	"context"

	"adomcp/internal/domain"
	"adomcp/internal/infra/azdo"
)

func searchTools(factory *azdo.Factory) []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		searchTool(factory, "search_code", "Search for code across repositories in the organization.", "codesearchresults"),
		searchTool(factory, "search_wiki", "Search wiki pages in the organization.", "wikisearchresults"),
		searchTool(factory, "search_workitem", "Search work items in the organization.", "workitemsearchresults"),
	}
}

// The three search endpoints share one request shape, only the
// resource segment differs.
func searchTool(factory *azdo.Factory, name, description, resource string) domain.ToolDescriptor {
	return domain.ToolDescriptor{
		Name:        name,
		Domain:      domain.DomainSearch,
		Description: description,
		Params: []domain.Param{
			{Name: "searchText", Type: domain.TypeString, Required: true, Description: "The text to search for."},
			{Name: "project", Type: domain.TypeString, Description: "Restrict the search to this project."},
			{Name: "top", Type: domain.TypeInteger, Default: 5, Description: "Maximum number of results to return."},
			{Name: "skip", Type: domain.TypeInteger, Default: 0, Description: "Number of results to skip for pagination."},
			{Name: "includeFacets", Type: domain.TypeBoolean, Default: false, Description: "Whether to include facet counts in the response."},
		},
		Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
			client := factory.New(cred)
			searchText, _ := argString(args, "searchText")

			body := map[string]any{
				"searchText":    searchText,
				"includeFacets": argBool(args, "includeFacets"),
			}
			if top, ok := argInt(args, "top"); ok {
				body["$top"] = top
			}
			if skip, ok := argInt(args, "skip"); ok {
				body["$skip"] = skip
			}

			target := client.SearchURL("_apis", "search", resource)
			if project, ok := argString(args, "project"); ok {
				target = client.SearchURL(project, "_apis", "search", resource)
			}
			return client.PostJSON(ctx, target, nil, body)
		},
	}
}
