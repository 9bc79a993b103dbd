package tools

import (
	"context"
	"net/url"

	"adomcp/internal/domain"
	"adomcp/internal/infra/azdo"
)

func workTools(factory *azdo.Factory) []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "work_list_team_iterations",
			Domain:      domain.DomainWork,
			Description: "Retrieve a list of iterations for a specific team in a project.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "team", Type: domain.TypeString, Required: true, Description: "The name or ID of the team."},
				{Name: "timeframe", Type: domain.TypeString, Description: "Filter iterations by timeframe, e.g. 'current'."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				team, _ := argString(args, "team")

				query := url.Values{}
				setString(query, "$timeframe", args, "timeframe")

				return client.Get(ctx, client.OrgURL(project, team, "_apis", "work", "teamsettings", "iterations"), query)
			},
		},
		{
			Name:        "work_create_iterations",
			Domain:      domain.DomainWork,
			Description: "Create a new iteration in a project.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "name", Type: domain.TypeString, Required: true, Description: "The name of the iteration to create."},
				{Name: "path", Type: domain.TypeString, Description: "Parent classification node path to create the iteration under."},
				{Name: "startDate", Type: domain.TypeString, Description: "Iteration start date in YYYY-MM-DD format."},
				{Name: "finishDate", Type: domain.TypeString, Description: "Iteration finish date in YYYY-MM-DD format."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				name, _ := argString(args, "name")

				body := map[string]any{"name": name}
				attributes := map[string]any{}
				if v, ok := argString(args, "startDate"); ok {
					attributes["startDate"] = v
				}
				if v, ok := argString(args, "finishDate"); ok {
					attributes["finishDate"] = v
				}
				if len(attributes) > 0 {
					body["attributes"] = attributes
				}

				segments := []string{project, "_apis", "wit", "classificationnodes", "Iterations"}
				if parent, ok := argString(args, "path"); ok {
					segments = append(segments, parent)
				}
				return client.PostJSON(ctx, client.OrgURL(segments...), nil, body)
			},
		},
		{
			Name:        "work_assign_iterations",
			Domain:      domain.DomainWork,
			Description: "Assign existing iterations to a team's backlog.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "team", Type: domain.TypeString, Required: true, Description: "The name or ID of the team."},
				{Name: "iterationIds", Type: domain.TypeArray, Required: true, Description: "Identifiers of the iterations to assign."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				team, _ := argString(args, "team")

				target := client.OrgURL(project, team, "_apis", "work", "teamsettings", "iterations")
				assigned := make([]any, 0, len(argStringSlice(args, "iterationIds")))
				for _, id := range argStringSlice(args, "iterationIds") {
					raw, err := client.PostJSON(ctx, target, nil, map[string]any{"id": id})
					if err != nil {
						return nil, err
					}
					assigned = append(assigned, raw)
				}
				return map[string]any{"assigned": assigned}, nil
			},
		},
		{
			Name:        "work_get_team_capacity",
			Domain:      domain.DomainWork,
			Description: "Retrieve team member capacities for an iteration.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "team", Type: domain.TypeString, Required: true, Description: "The name or ID of the team."},
				{Name: "iterationId", Type: domain.TypeString, Required: true, Description: "The identifier of the iteration."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				team, _ := argString(args, "team")
				iterationID, _ := argString(args, "iterationId")

				return client.Get(ctx, client.OrgURL(project, team, "_apis", "work", "teamsettings", "iterations", iterationID, "capacities"), nil)
			},
		},
	}
}
