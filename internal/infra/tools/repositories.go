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

const zeroObjectID = "0000000000000000000000000000000000000000"

func repositoryTools(factory *azdo.Factory) []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "repo_list_repos_by_project",
			Domain:      domain.DomainRepositories,
			Description: "Retrieve a list of repositories for a given project.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "includeLinks", Type: domain.TypeBoolean, Default: false, Description: "Whether to include reference links."},
				{Name: "includeAllUrls", Type: domain.TypeBoolean, Default: false, Description: "Whether to include all remote URLs."},
				{Name: "includeHidden", Type: domain.TypeBoolean, Default: false, Description: "Whether to include hidden repositories."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")

				query := url.Values{}
				setBool(query, "includeLinks", args, "includeLinks")
				setBool(query, "includeAllUrls", args, "includeAllUrls")
				setBool(query, "includeHidden", args, "includeHidden")

				return client.Get(ctx, client.OrgURL(project, "_apis", "git", "repositories"), query)
			},
		},
		{
			Name:        "repo_get_repo_by_name_or_id",
			Domain:      domain.DomainRepositories,
			Description: "Get a repository by its name or ID.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "repositoryNameOrId", Type: domain.TypeString, Required: true, Description: "The name or ID of the repository."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				repository, _ := argString(args, "repositoryNameOrId")

				return client.Get(ctx, client.OrgURL(project, "_apis", "git", "repositories", repository), nil)
			},
		},
		{
			Name:        "repo_list_branches_by_repo",
			Domain:      domain.DomainRepositories,
			Description: "Retrieve the branches of a repository.",
			Params: []domain.Param{
				{Name: "repositoryId", Type: domain.TypeString, Required: true, Description: "The ID of the repository."},
				{Name: "top", Type: domain.TypeInteger, Default: 100, Description: "Maximum number of branches to return."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				repository, _ := argString(args, "repositoryId")

				query := url.Values{}
				query.Set("filter", "heads/")
				setInt(query, "$top", args, "top")

				return client.Get(ctx, client.OrgURL("_apis", "git", "repositories", repository, "refs"), query)
			},
		},
		{
			Name:        "repo_create_branch",
			Domain:      domain.DomainRepositories,
			Description: "Create a new branch from an existing source branch.",
			Params: []domain.Param{
				{Name: "repositoryId", Type: domain.TypeString, Required: true, Description: "The ID of the repository."},
				{Name: "branchName", Type: domain.TypeString, Required: true, Description: "The name of the branch to create."},
				{Name: "sourceBranch", Type: domain.TypeString, Default: "main", Description: "The branch to create from."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				repository, _ := argString(args, "repositoryId")
				branchName, _ := argString(args, "branchName")
				sourceBranch, _ := argString(args, "sourceBranch")

				objectID, err := resolveBranchObjectID(ctx, client, repository, sourceBranch)
				if err != nil {
					return nil, err
				}

				body := []map[string]any{{
					"name":        "refs/heads/" + branchName,
					"oldObjectId": zeroObjectID,
					"newObjectId": objectID,
				}}
				return client.PostJSON(ctx, client.OrgURL("_apis", "git", "repositories", repository, "refs"), nil, body)
			},
		},
		{
			Name:        "repo_list_pull_requests_by_repo_or_project",
			Domain:      domain.DomainRepositories,
			Description: "Retrieve pull requests for a repository or a whole project.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "repositoryId", Type: domain.TypeString, Description: "Restrict results to this repository."},
				{Name: "status", Type: domain.TypeString, Default: "active", Description: "Pull request status: active, completed, abandoned, or all."},
				{Name: "top", Type: domain.TypeInteger, Default: 50, Description: "Maximum number of pull requests to return."},
				{Name: "skip", Type: domain.TypeInteger, Default: 0, Description: "Number of pull requests to skip for pagination."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")

				query := url.Values{}
				setString(query, "searchCriteria.status", args, "status")
				setInt(query, "$top", args, "top")
				setInt(query, "$skip", args, "skip")

				target := client.OrgURL(project, "_apis", "git", "pullrequests")
				if repository, ok := argString(args, "repositoryId"); ok {
					target = client.OrgURL(project, "_apis", "git", "repositories", repository, "pullrequests")
				}
				return client.Get(ctx, target, query)
			},
		},
		{
			Name:        "repo_get_pull_request_by_id",
			Domain:      domain.DomainRepositories,
			Description: "Get a pull request by its ID.",
			Params: []domain.Param{
				{Name: "repositoryId", Type: domain.TypeString, Required: true, Description: "The ID of the repository."},
				{Name: "pullRequestId", Type: domain.TypeInteger, Required: true, Description: "The ID of the pull request."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				repository, _ := argString(args, "repositoryId")
				pullRequestID, _ := argInt(args, "pullRequestId")

				return client.Get(ctx, client.OrgURL("_apis", "git", "repositories", repository, "pullrequests", itoa(pullRequestID)), nil)
			},
		},
		{
			Name:        "repo_create_pull_request",
			Domain:      domain.DomainRepositories,
			Description: "Create a pull request between two branches.",
			Params: []domain.Param{
				{Name: "repositoryId", Type: domain.TypeString, Required: true, Description: "The ID of the repository."},
				{Name: "sourceBranch", Type: domain.TypeString, Required: true, Description: "The branch with the changes."},
				{Name: "targetBranch", Type: domain.TypeString, Default: "main", Description: "The branch to merge into."},
				{Name: "title", Type: domain.TypeString, Required: true, Description: "The pull request title."},
				{Name: "description", Type: domain.TypeString, Description: "The pull request description."},
				{Name: "isDraft", Type: domain.TypeBoolean, Default: false, Description: "Whether to create the pull request as a draft."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				repository, _ := argString(args, "repositoryId")
				sourceBranch, _ := argString(args, "sourceBranch")
				targetBranch, _ := argString(args, "targetBranch")
				title, _ := argString(args, "title")

				body := map[string]any{
					"sourceRefName": asRefName(sourceBranch),
					"targetRefName": asRefName(targetBranch),
					"title":         title,
					"isDraft":       argBool(args, "isDraft"),
				}
				if description, ok := argString(args, "description"); ok {
					body["description"] = description
				}
				return client.PostJSON(ctx, client.OrgURL("_apis", "git", "repositories", repository, "pullrequests"), nil, body)
			},
		},
		{
			Name:        "repo_list_pull_request_threads",
			Domain:      domain.DomainRepositories,
			Description: "Retrieve the comment threads on a pull request.",
			Params: []domain.Param{
				{Name: "repositoryId", Type: domain.TypeString, Required: true, Description: "The ID of the repository."},
				{Name: "pullRequestId", Type: domain.TypeInteger, Required: true, Description: "The ID of the pull request."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				repository, _ := argString(args, "repositoryId")
				pullRequestID, _ := argInt(args, "pullRequestId")

				return client.Get(ctx, client.OrgURL("_apis", "git", "repositories", repository, "pullRequests", itoa(pullRequestID), "threads"), nil)
			},
		},
	}
}

func asRefName(branch string) string {
	if strings.HasPrefix(branch, "refs/") {
		return branch
	}
	return "refs/heads/" + branch
}

func resolveBranchObjectID(ctx context.Context, client *azdo.Client, repository, branch string) (string, error) {
	query := url.Values{}
	query.Set("filter", "heads/"+branch)

	raw, err := client.Get(ctx, client.OrgURL("_apis", "git", "repositories", repository, "refs"), query)
	if err != nil {
		return "", err
	}

	var refs struct {
		Value []struct {
			Name     string `json:"name"`
			ObjectID string `json:"objectId"`
		} `json:"value"`
	}
	if err := json.Unmarshal(raw, &refs); err != nil {
		return "", fmt.Errorf("decoding refs response: %w", err)
	}

	want := asRefName(branch)
	for _, ref := range refs.Value {
		if ref.Name == want {
			return ref.ObjectID, nil
		}
	}
	return "", &domain.BackendError{Status: 404, Message: fmt.Sprintf("source branch %q not found", branch)}
}
