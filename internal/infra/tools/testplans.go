package tools

import (
	"context"
	"net/url"

	"adomcp/internal/domain"
	"adomcp/internal/infra/azdo"
)

func testPlanTools(factory *azdo.Factory) []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "testplan_list_test_plans",
			Domain:      domain.DomainTestPlans,
			Description: "Retrieve the test plans in a project.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "filterActivePlans", Type: domain.TypeBoolean, Default: true, Description: "Whether to return only active test plans."},
				{Name: "includePlanDetails", Type: domain.TypeBoolean, Default: false, Description: "Whether to include detailed plan information."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")

				query := url.Values{}
				setBool(query, "filterActivePlans", args, "filterActivePlans")
				setBool(query, "includePlanDetails", args, "includePlanDetails")

				return client.Get(ctx, client.OrgURL(project, "_apis", "testplan", "plans"), query)
			},
		},
		{
			Name:        "testplan_create_test_plan",
			Domain:      domain.DomainTestPlans,
			Description: "Create a new test plan in a project.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "name", Type: domain.TypeString, Required: true, Description: "The name of the test plan."},
				{Name: "iteration", Type: domain.TypeString, Required: true, Description: "The iteration path for the test plan."},
				{Name: "description", Type: domain.TypeString, Default: "", Description: "The description of the test plan."},
				{Name: "areaPath", Type: domain.TypeString, Description: "The area path for the test plan."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				name, _ := argString(args, "name")
				iteration, _ := argString(args, "iteration")

				body := map[string]any{
					"name":      name,
					"iteration": iteration,
				}
				if description, ok := argString(args, "description"); ok {
					body["description"] = description
				}
				if areaPath, ok := argString(args, "areaPath"); ok {
					body["areaPath"] = areaPath
				}

				return client.PostJSON(ctx, client.OrgURL(project, "_apis", "testplan", "plans"), nil, body)
			},
		},
		{
			Name:        "testplan_create_test_suite",
			Domain:      domain.DomainTestPlans,
			Description: "Create a static test suite under a test plan.",
			Params: []domain.Param{
				{Name: "project", Type: domain.TypeString, Required: true, Description: "The name or ID of the Azure DevOps project."},
				{Name: "planId", Type: domain.TypeInteger, Required: true, Description: "The ID of the test plan."},
				{Name: "suiteName", Type: domain.TypeString, Required: true, Description: "The name of the suite to create."},
				{Name: "parentSuiteId", Type: domain.TypeInteger, Description: "The parent suite ID. Defaults to the plan's root suite."},
			},
			Handler: func(ctx context.Context, args map[string]any, cred domain.Credential) (any, error) {
				client := factory.New(cred)
				project, _ := argString(args, "project")
				planID, _ := argInt(args, "planId")
				suiteName, _ := argString(args, "suiteName")

				body := map[string]any{
					"name":      suiteName,
					"suiteType": "staticTestSuite",
				}
				if parentID, ok := argInt(args, "parentSuiteId"); ok {
					body["parentSuite"] = map[string]any{"id": parentID}
				}

				return client.PostJSON(ctx, client.OrgURL(project, "_apis", "testplan", "Plans", itoa(planID), "suites"), nil, body)
			},
		},
	}
}
