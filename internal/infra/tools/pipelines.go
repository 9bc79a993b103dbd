package tools

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"adomcp/internal/domain"
	"adomcp/internal/infra/azdo"
)

func pipelineTools(factory *azdo.Factory) []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "pipelines_get_build_definitions",
			Domain:      domain.DomainPipelines,
			Description: "Retrieve build definitions for a project.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "name", Type: domain.TypeString, Description: "Filter definitions by name, wildcards allowed."},
				{Name: "top", Type: domain.TypeInteger, Default: 50, Description: "Maximum number of definitions to return."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")

				query := url.Values{}
				setString(query, "name", args, "name")
				setInt(query, "$top", args, "top")

				return client.Get(ctx, client.OrgURL(project, "_apis", "build", "definitions"), query)
			},
		},
		{
			Name:        "pipelines_get_builds",
			Domain:      domain.DomainPipelines,
			Description: "Retrieve builds for a project, optionally filtered by definition.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "definitionIds", Type: domain.TypeArray, Description: "Restrict results to these definition IDs."},
				{Name: "top", Type: domain.TypeInteger, Default: 50, Description: "Maximum number of builds to return."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")

				query := url.Values{}
				if ids := argIntSlice(args, "definitionIds"); len(ids) > 0 {
					parts := make([]string, len(ids))
					for i, id := range ids {
						parts[i] = strconv.Itoa(id)
					}
					query.Set("definitions", strings.Join(parts, ","))
				}
				setInt(query, "$top", args, "top")

				return client.Get(ctx, client.OrgURL(project, "_apis", "build", "builds"), query)
			},
		},
		{
			Name:        "pipelines_get_build_log",
			Domain:      domain.DomainPipelines,
			Description: "Retrieve a log from a build, or the list of logs when no log ID is given.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "buildId", Type: domain.TypeInteger, Required: true, Description: "The ID of the build."},
				{Name: "logId", Type: domain.TypeInteger, Description: "The ID of the log to fetch. Omit to list all logs."},
				{Name: "startLine", Type: domain.TypeInteger, Description: "First line of the log to return."},
				{Name: "endLine", Type: domain.TypeInteger, Description: "Last line of the log to return."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				buildID, _ := argInt(args, "buildId")

				logID, ok := argInt(args, "logId")
				if !ok {
					return client.Get(ctx, client.OrgURL(project, "_apis", "build", "builds", itoa(buildID), "logs"), nil)
				}

				query := url.Values{}
				setInt(query, "startLine", args, "startLine")
				setInt(query, "endLine", args, "endLine")

				return client.Get(ctx, client.OrgURL(project, "_apis", "build", "builds", itoa(buildID), "logs", itoa(logID)), query)
			},
		},
		{
			Name:        "pipelines_get_build_status",
			Domain:      domain.DomainPipelines,
			Description: "Get the status of a build.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "buildId", Type: domain.TypeInteger, Required: true, Description: "The ID of the build."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				buildID, _ := argInt(args, "buildId")

				return client.Get(ctx, client.OrgURL(project, "_apis", "build", "builds", itoa(buildID)), nil)
			},
		},
		{
			Name:        "pipelines_run_pipeline",
			Domain:      domain.DomainPipelines,
			Description: "Queue a run of a pipeline.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "pipelineId", Type: domain.TypeInteger, Required: true, Description: "The ID of the pipeline to run."},
				{Name: "branchName", Type: domain.TypeString, Description: "The branch to run against. Defaults to the pipeline's default branch."},
				{Name: "parameters", Type: domain.TypeObject, Description: "Template parameters passed to the run."},
				{Name: "variables", Type: domain.TypeObject, Description: "Variables passed to the run."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				pipelineID, _ := argInt(args, "pipelineId")

				body := map[string]any{}
				if branch, ok := argString(args, "branchName"); ok {
					body["resources"] = map[string]any{
						"repositories": map[string]any{
							"self": map[string]any{"refName": asRefName(branch)},
						},
					}
				}
				if params := argObject(args, "parameters"); len(params) > 0 {
					body["templateParameters"] = params
				}
				if vars := argObject(args, "variables"); len(vars) > 0 {
					runVars := make(map[string]any, len(vars))
					for name, value := range vars {
						runVars[name] = map[string]any{"value": value}
					}
					body["variables"] = runVars
				}

				return client.PostJSON(ctx, client.OrgURL(project, "_apis", "pipelines", itoa(pipelineID), "runs"), nil, body)
			},
		},
	}
}
