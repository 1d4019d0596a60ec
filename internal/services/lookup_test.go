package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nezhabot/internal/models"
)

func testServers() []models.Server {
	return []models.Server{
		{ID: 1, Name: "web-1"},
		{ID: 2, Name: "db-1"},
		{ID: 3, Name: "web-2"},
	}
}

func testGroups() []models.ServerGroupItem {
	return []models.ServerGroupItem{
		{Group: models.ServerGroup{ID: 1, Name: "Frontend"}, Servers: []uint64{1, 3}},
		{Group: models.ServerGroup{ID: 2, Name: "Storage"}, Servers: []uint64{2}},
	}
}

func TestFindServerByName(t *testing.T) {
	servers := testServers()

	s, ok := FindServerByName(servers, "web")
	require.True(t, ok)
	assert.Equal(t, "web-1", s.Name, "first match in dashboard order wins")

	s, ok = FindServerByName(servers, "DB")
	require.True(t, ok)
	assert.Equal(t, uint64(2), s.ID)

	_, ok = FindServerByName(servers, "zzz")
	assert.False(t, ok)
}

func TestFindServerByID(t *testing.T) {
	s, ok := FindServerByID(testServers(), 3)
	require.True(t, ok)
	assert.Equal(t, "web-2", s.Name)

	_, ok = FindServerByID(testServers(), 42)
	assert.False(t, ok)
}

func TestFilterByGroup(t *testing.T) {
	servers := testServers()
	groups := testGroups()

	t.Run("empty query keeps all", func(t *testing.T) {
		filtered, group, ok := FilterByGroup(servers, groups, "")
		require.True(t, ok)
		assert.Nil(t, group)
		assert.Len(t, filtered, 3)
	})

	t.Run("matching group", func(t *testing.T) {
		filtered, group, ok := FilterByGroup(servers, groups, "front")
		require.True(t, ok)
		require.NotNil(t, group)
		assert.Equal(t, "Frontend", group.Group.Name)
		require.Len(t, filtered, 2)
		assert.Equal(t, "web-1", filtered[0].Name)
		assert.Equal(t, "web-2", filtered[1].Name)
	})

	t.Run("no group matches", func(t *testing.T) {
		filtered, group, ok := FilterByGroup(servers, groups, "zzz")
		assert.False(t, ok)
		assert.Nil(t, group)
		assert.Nil(t, filtered)
	})

	t.Run("group without live members", func(t *testing.T) {
		groups := []models.ServerGroupItem{{Group: models.ServerGroup{Name: "ghost"}, Servers: []uint64{99}}}
		filtered, _, ok := FilterByGroup(servers, groups, "ghost")
		require.True(t, ok)
		assert.Empty(t, filtered)
	})
}

func TestFindService(t *testing.T) {
	services := map[string]models.ServiceItem{
		"7": {ServiceName: "API health"},
		"3": {ServiceName: "API gateway"},
	}

	s, ok := FindService(services, "api")
	require.True(t, ok)
	assert.Equal(t, "API gateway", s.ServiceName, "lowest id wins")

	_, ok = FindService(services, "mail")
	assert.False(t, ok)

	_, ok = FindService(nil, "api")
	assert.False(t, ok)
}

func TestFindCycleTransfer(t *testing.T) {
	stats := map[string]models.CycleTransferStats{
		"1": {Name: "Monthly quota"},
		"2": {Name: "weekly_quota"},
	}

	s, ok := FindCycleTransfer(stats, "WEEKLY")
	require.True(t, ok)
	assert.Equal(t, "weekly_quota", s.Name)

	_, ok = FindCycleTransfer(stats, "daily")
	assert.False(t, ok)
}
