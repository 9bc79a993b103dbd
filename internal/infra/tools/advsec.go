package tools

import (
	"context"
	"net/url"

	"adomcp/internal/domain"
	"adomcp/internal/infra/azdo"
)

func advancedSecurityTools(factory *azdo.Factory) []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "advsec_get_alerts",
			Domain:      domain.DomainAdvancedSecurity,
			Description: "Retrieve Advanced Security alerts for a repository.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "repository", Type: domain.TypeString, Required: true, Description: "The name or ID of the repository."},
				{Name: "alertType", Type: domain.TypeString, Description: "Filter by alert type: code, secret, or dependency."},
				{Name: "onlyDefaultBranch", Type: domain.TypeBoolean, Default: true, Description: "Whether to return only alerts on the default branch."},
				{Name: "top", Type: domain.TypeInteger, Default: 100, Description: "Maximum number of alerts to return."},
				{Name: "orderBy", Type: domain.TypeString, Default: "severity", Description: "Sort order for the returned alerts."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				repository, _ := argString(args, "repository")

				query := url.Values{}
				setString(query, "criteria.alertType", args, "alertType")
				setBool(query, "criteria.onlyDefaultBranchAlerts", args, "onlyDefaultBranch")
				setInt(query, "top", args, "top")
				setString(query, "orderBy", args, "orderBy")

				return client.Get(ctx, client.AdvSecURL(project, "_apis", "alert", "repositories", repository, "alerts"), query)
			},
		},
		{
			Name:        "advsec_get_alert_details",
			Domain:      domain.DomainAdvancedSecurity,
			Description: "Get the details of a single Advanced Security alert.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "repository", Type: domain.TypeString, Required: true, Description: "The name or ID of the repository."},
				{Name: "alertId", Type: domain.TypeInteger, Required: true, Description: "The ID of the alert."},
				{Name: "ref", Type: domain.TypeString, Description: "The git ref the alert was detected on."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				repository, _ := argString(args, "repository")
				alertID, _ := argInt(args, "alertId")

				query := url.Values{}
				setString(query, "ref", args, "ref")

				return client.Get(ctx, client.AdvSecURL(project, "_apis", "alert", "repositories", repository, "alerts", itoa(alertID)), query)
			},
		},
	}
}
