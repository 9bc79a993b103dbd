package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"adomcp/internal/domain"
	"adomcp/internal/infra/azdo"
)

// The comments API has no GA surface on 7.1 yet.
const commentsAPIVersion = "7.1-preview.3"

var linkTypeRefs = map[string]string{
	"related":     "System.LinkTypes.Related",
	"parent":      "System.LinkTypes.Hierarchy-Reverse",
	"child":       "System.LinkTypes.Hierarchy-Forward",
	"duplicate":   "System.LinkTypes.Duplicate-Forward",
	"predecessor": "System.LinkTypes.Dependency-Reverse",
	"successor":   "System.LinkTypes.Dependency-Forward",
}

func workItemTools(factory *azdo.Factory) []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "wit_get_work_item",
			Domain:      domain.DomainWorkItems,
			Description: "Get a single work item by ID.",
			Params: []domain.Param{
				{Name: "id", Type: domain.TypeInteger, Required: true, Description: "The ID of the work item."},
				{Name: "fields", Type: domain.TypeArray, Description: "Field reference names to include in the response."},
				{Name: "expand", Type: domain.TypeString, Description: "Expand option: none, relations, fields, links, or all."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				id, _ := argInt(args, "id")

				query := url.Values{}
				if fields := argStringSlice(args, "fields"); len(fields) > 0 {
					query.Set("fields", strings.Join(fields, ","))
				}
				setString(query, "$expand", args, "expand")

				return client.Get(ctx, client.OrgURL("_apis", "wit", "workitems", itoa(id)), query)
			},
		},
		{
			Name:        "wit_my_work_items",
			Domain:      domain.DomainWorkItems,
			Description: "Retrieve a list of work items relevant to the authenticated user.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "top", Type: domain.TypeInteger, Default: 50, Description: "Maximum number of work items to return."},
				{Name: "includeCompleted", Type: domain.TypeBoolean, Default: false, Description: "Whether to include completed work items."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")

				query := url.Values{}
				setInt(query, "$top", args, "top")
				setBool(query, "includeCompleted", args, "includeCompleted")

				return client.Get(ctx, client.OrgURL(project, "_apis", "work", "predefinedQueries", "myactivity"), query)
			},
		},
		{
			Name:        "wit_create_work_item",
			Domain:      domain.DomainWorkItems,
			Description: "Create a new work item in a project.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "type", Type: domain.TypeString, Required: true, Description: "The work item type, e.g. Task or Bug."},
				{Name: "title", Type: domain.TypeString, Required: true, Description: "The title of the work item."},
				{Name: "fields", Type: domain.TypeObject, Description: "Additional fields as reference name to value pairs."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				workItemType, _ := argString(args, "type")
				title, _ := argString(args, "title")

				patch := []map[string]any{
					{"op": "add", "path": "/fields/System.Title", "value": title},
				}
				patch = append(patch, fieldPatchOps("add", argObject(args, "fields"))...)

				return client.Do(ctx, azdo.Request{
					Method:      "POST",
					URL:         client.OrgURL(project, "_apis", "wit", "workitems", "$"+workItemType),
					Body:        patch,
					ContentType: "application/json-patch+json",
				})
			},
		},
		{
			Name:        "wit_update_work_item",
			Domain:      domain.DomainWorkItems,
			Description: "Update fields on an existing work item.",
			Params: []domain.Param{
				{Name: "id", Type: domain.TypeInteger, Required: true, Description: "The ID of the work item to update."},
				{Name: "fields", Type: domain.TypeObject, Required: true, Description: "Fields to update as reference name to value pairs."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				id, _ := argInt(args, "id")

				patch := fieldPatchOps("replace", argObject(args, "fields"))
				if len(patch) == 0 {
					return nil, fmt.Errorf("%w: fields must contain at least one entry", domain.ErrInvalidArguments)
				}

				return client.Do(ctx, azdo.Request{
					Method:      "PATCH",
					URL:         client.OrgURL("_apis", "wit", "workitems", itoa(id)),
					Body:        patch,
					ContentType: "application/json-patch+json",
				})
			},
		},
		{
			Name:        "wit_get_work_items_batch_by_ids",
			Domain:      domain.DomainWorkItems,
			Description: "Retrieve a batch of work items by their IDs.",
			Params: []domain.Param{
				{Name: "ids", Type: domain.TypeArray, Required: true, Description: "The IDs of the work items to retrieve."},
				{Name: "fields", Type: domain.TypeArray, Description: "Field reference names to include in the response."},
				{Name: "expand", Type: domain.TypeString, Description: "Expand option: none, relations, fields, links, or all."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)

				body := map[string]any{"ids": argIntSlice(args, "ids")}
				if fields := argStringSlice(args, "fields"); len(fields) > 0 {
					body["fields"] = fields
				}
				if expand, ok := argString(args, "expand"); ok {
					body["$expand"] = expand
				}

				return client.PostJSON(ctx, client.OrgURL("_apis", "wit", "workitemsbatch"), nil, body)
			},
		},
		{
			Name:        "wit_list_work_item_comments",
			Domain:      domain.DomainWorkItems,
			Description: "Retrieve the comments on a work item.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "workItemId", Type: domain.TypeInteger, Required: true, Description: "The ID of the work item."},
				{Name: "top", Type: domain.TypeInteger, Default: 50, Description: "Maximum number of comments to return."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				workItemID, _ := argInt(args, "workItemId")

				query := url.Values{}
				setInt(query, "$top", args, "top")

				return client.Do(ctx, azdo.Request{
					Method:     "GET",
					URL:        client.OrgURL(project, "_apis", "wit", "workItems", itoa(workItemID), "comments"),
					Query:      query,
					APIVersion: commentsAPIVersion,
				})
			},
		},
		{
			Name:        "wit_add_work_item_comment",
			Domain:      domain.DomainWorkItems,
			Description: "Add a comment to a work item.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "workItemId", Type: domain.TypeInteger, Required: true, Description: "The ID of the work item."},
				{Name: "text", Type: domain.TypeString, Required: true, Description: "The comment text."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				workItemID, _ := argInt(args, "workItemId")
				text, _ := argString(args, "text")

				return client.Do(ctx, azdo.Request{
					Method:     "POST",
					URL:        client.OrgURL(project, "_apis", "wit", "workItems", itoa(workItemID), "comments"),
					Body:       map[string]any{"text": text},
					APIVersion: commentsAPIVersion,
				})
			},
		},
		{
			Name:        "wit_work_items_link",
			Domain:      domain.DomainWorkItems,
			Description: "Link two work items together.",
			Params: []domain.Param{
				{Name: "sourceId", Type: domain.TypeInteger, Required: true, Description: "The ID of the source work item."},
				{Name: "targetId", Type: domain.TypeInteger, Required: true, Description: "The ID of the target work item."},
				{Name: "linkType", Type: domain.TypeString, Default: "related", Description: "Link type: related, parent, child, duplicate, predecessor, or successor."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				sourceID, _ := argInt(args, "sourceId")
				targetID, _ := argInt(args, "targetId")
				linkType, _ := argString(args, "linkType")

				rel, ok := linkTypeRefs[strings.ToLower(linkType)]
				if !ok {
					return nil, fmt.Errorf("%w: unknown link type %q", domain.ErrInvalidArguments, linkType)
				}

				patch := []map[string]any{{
					"op":   "add",
					"path": "/relations/-",
					"value": map[string]any{
						"rel": rel,
						"url": client.OrgURL("_apis", "wit", "workItems", itoa(targetID)),
					},
				}}

				return client.Do(ctx, azdo.Request{
					Method:      "PATCH",
					URL:         client.OrgURL("_apis", "wit", "workitems", itoa(sourceID)),
					Body:        patch,
					ContentType: "application/json-patch+json",
				})
			},
		},
	}
}

func fieldPatchOps(op string, fields map[string]any) []map[string]any {
	if len(fields) == 0 {
		return nil
	}
	ops := make([]map[string]any, 0, len(fields))
	for name, value := range fields {
		ops = append(ops, map[string]any{
			"op":    op,
			"path":  "/fields/" + name,
			"value": value,
		})
	}
	return ops
}
