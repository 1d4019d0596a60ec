package services

import (
	"strings"

	"nezhabot/internal/models"
)

// Lookups are a linear scan in the order the dashboard returned the records;
// the first match wins. Name matching is a case-insensitive substring test.
// Users see which record "wins", so the order is part of the contract.

func containsFold(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// FindGroup returns the first group whose name contains query
func FindGroup(groups []models.ServerGroupItem, query string) (models.ServerGroupItem, bool) {
	for _, g := range groups {
		if containsFold(g.Group.Name, query) {
			return g, true
		}
	}
	return models.ServerGroupItem{}, false
}

// FilterByGroup restricts servers to the members of the first group matching
// query. An empty query keeps every server and matches no group. ok is false
// when a query was given but no group matched.
func FilterByGroup(servers []models.Server, groups []models.ServerGroupItem, query string) (filtered []models.Server, group *models.ServerGroupItem, ok bool) {
	if query == "" {
		return servers, nil, true
	}

	g, found := FindGroup(groups, query)
	if !found {
		return nil, nil, false
	}

	filtered = make([]models.Server, 0, len(g.Servers))
	for _, s := range servers {
		if g.HasServer(s.ID) {
			filtered = append(filtered, s)
		}
	}
	return filtered, &g, true
}

// FindServerByID returns the server with the given id
func FindServerByID(servers []models.Server, id uint64) (models.Server, bool) {
	for _, s := range servers {
		if s.ID == id {
			return s, true
		}
	}
	return models.Server{}, false
}

// FindServerByName returns the first server whose name contains query
func FindServerByName(servers []models.Server, query string) (models.Server, bool) {
	for _, s := range servers {
		if containsFold(s.Name, query) {
			return s, true
		}
	}
	return models.Server{}, false
}

// FindService returns the first monitored service whose name contains query
func FindService(services map[string]models.ServiceItem, query string) (models.ServiceItem, bool) {
	for _, k := range orderedKeys(services) {
		if s := services[k]; containsFold(s.ServiceName, query) {
			return s, true
		}
	}
	return models.ServiceItem{}, false
}

// FindCycleTransfer returns the first transfer cycle whose name contains query
func FindCycleTransfer(stats map[string]models.CycleTransferStats, query string) (models.CycleTransferStats, bool) {
	for _, k := range orderedKeys(stats) {
		if s := stats[k]; containsFold(s.Name, query) {
			return s, true
		}
	}
	return models.CycleTransferStats{}, false
}
