// Package tools declares the Azure DevOps tool catalog. Each domain
// file contributes descriptors whose handlers translate validated
// arguments into REST calls.
package tools

import (
	"adomcp/internal/domain"
	"adomcp/internal/infra/azdo"
)

// Catalog returns every tool descriptor in declaration order. Domain
// enablement filtering happens in the registry, not here.
func Catalog(factory *azdo.Factory) []domain.ToolDescriptor {
	var catalog []domain.ToolDescriptor
	catalog = append(catalog, coreTools(factory)...)
	catalog = append(catalog, workTools(factory)...)
	catalog = append(catalog, workItemTools(factory)...)
	catalog = append(catalog, repositoryTools(factory)...)
	catalog = append(catalog, pipelineTools(factory)...)
	catalog = append(catalog, wikiTools(factory)...)
	catalog = append(catalog, testPlanTools(factory)...)
	catalog = append(catalog, searchTools(factory)...)
	catalog = append(catalog, advancedSecurityTools(factory)...)
	return catalog
}
