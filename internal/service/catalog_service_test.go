package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/ticket-service/internal/domain"
	apperrors "github.com/helpdesk-io/ticket-service/pkg/util/errorutil"
)

func newCatalog(f *fixture) *CatalogService {
	return NewCatalogService(CatalogDependencies{
		DepartmentRepo: f.departments,
		PriorityRepo:   f.priorities,
		StatusRepo:     memStatuses{},
	})
}

func TestListPrioritiesExposesResponseHours(t *testing.T) {
	f := newFixture()
	views, err := newCatalog(f).ListPriorities(context.Background())
	require.NoError(t, err)

	hours := map[string]int{}
	for _, v := range views {
		hours[v.Name] = v.ExpectedResponseHours
	}
	assert.Equal(t, map[string]int{"High": 4, "Medium": 24, "Low": 72, "Someday": 24}, hours)
}

func TestListStatusesMarksOpenSet(t *testing.T) {
	f := newFixture()
	views, err := newCatalog(f).ListStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 5)

	open := map[domain.StatusID]bool{}
	for _, v := range views {
		open[v.ID] = v.Open
	}
	assert.Equal(t, map[domain.StatusID]bool{1: true, 2: true, 3: true, 4: false, 5: false}, open)
}

func TestDepartmentAdministration(t *testing.T) {
	f := newFixture()
	catalog := newCatalog(f)
	ctx := context.Background()
	name := "  Facilities "

	_, err := catalog.CreateDepartment(ctx, f.principal(agentAna), DepartmentInput{Name: &name})
	assert.True(t, apperrors.IsKind(err, apperrors.CodeForbidden))

	dept, err := catalog.CreateDepartment(ctx, f.principal(adminRoot), DepartmentInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Facilities", dept.Name)
	assert.True(t, dept.IsActive)

	dup := "support"
	_, err = catalog.CreateDepartment(ctx, f.principal(adminRoot), DepartmentInput{Name: &dup})
	assert.True(t, apperrors.IsKind(err, apperrors.CodeConflict))

	_, err = catalog.CreateDepartment(ctx, f.principal(adminRoot), DepartmentInput{})
	assert.True(t, apperrors.IsKind(err, apperrors.CodeValidationFailed))

	inactive := false
	updated, err := catalog.UpdateDepartment(ctx, f.principal(adminRoot), dept.ID, DepartmentInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Facilities", updated.Name)

	_, err = catalog.UpdateDepartment(ctx, f.principal(adminRoot), 404, DepartmentInput{IsActive: &inactive})
	assert.True(t, apperrors.IsKind(err, apperrors.CodeNotFound))

	visible, err := catalog.ListDepartments(ctx, f.principal(clientAlice), true)
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	everything, err := catalog.ListDepartments(ctx, f.principal(adminRoot), true)
	require.NoError(t, err)
	assert.Len(t, everything, 4)
}
