package tools

import (
	"context"
	"net/url"

	"adomcp/internal/domain"
	"adomcp/internal/infra/azdo"
)

func wikiTools(factory *azdo.Factory) []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "wiki_list_wikis",
			Domain:      domain.DomainWiki,
			Description: "Retrieve the wikis in a project, or in the whole organization when no project is given.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Description: "The name or ID of the Azure DevOps project."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)

				target := client.OrgURL("_apis", "wiki", "wikis")
				if project, ok := argString(args, "project"); ok {
					target = client.OrgURL(project, "_apis", "wiki", "wikis")
				}
				return client.Get(ctx, target, nil)
			},
		},
		{
			Name:        "wiki_get_wiki",
			Domain:      domain.DomainWiki,
			Description: "Get a wiki by its name or ID.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "wikiIdentifier", Type: domain.TypeString, Required: true, Description: "The name or ID of the wiki."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				wiki, _ := argString(args, "wikiIdentifier")

				return client.Get(ctx, client.OrgURL(project, "_apis", "wiki", "wikis", wiki), nil)
			},
		},
		{
			Name:        "wiki_list_pages",
			Domain:      domain.DomainWiki,
			Description: "Retrieve the page tree of a wiki.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "wikiIdentifier", Type: domain.TypeString, Required: true, Description: "The name or ID of the wiki."},
				{Name: "path", Type: domain.TypeString, Default: "/", Description: "The page path to start from."},
				{Name: "recursionLevel", Type: domain.TypeString, Default: "full", Description: "How deep to traverse: none, oneLevel, or full."},
				{Name: "includeContent", Type: domain.TypeBoolean, Default: false, Description: "Whether to include page content."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				wiki, _ := argString(args, "wikiIdentifier")

				query := url.Values{}
				setString(query, "path", args, "path")
				setString(query, "recursionLevel", args, "recursionLevel")
				setBool(query, "includeContent", args, "includeContent")

				return client.Get(ctx, client.OrgURL(project, "_apis", "wiki", "wikis", wiki, "pages"), query)
			},
		},
		{
			Name:        "wiki_get_page_content",
			Domain:      domain.DomainWiki,
			Description: "Get the content of a wiki page.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "wikiIdentifier", Type: domain.TypeString, Required: true, Description: "The name or ID of the wiki."},
				{Name: "path", Type: domain.TypeString, Required: true, Description: "The path of the page."},
				{Name: "includeContent", Type: domain.TypeBoolean, Default: true, Description: "Whether to include page content."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				wiki, _ := argString(args, "wikiIdentifier")

				query := url.Values{}
				setString(query, "path", args, "path")
				setBool(query, "includeContent", args, "includeContent")

				return client.Get(ctx, client.OrgURL(project, "_apis", "wiki", "wikis", wiki, "pages"), query)
			},
		},
	}
}
