package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_ByID(t *testing.T) {
	repo := newStubIngredientRepo()
	dept := uuid.New()
	lavender := seedIngredient(repo, dept, "Lavender", 500)
	svc := NewResolverService(repo)

	ing, err := svc.Resolve(context.Background(), dept, "whatever", &lavender.ID)
	require.NoError(t, err)
	assert.Equal(t, lavender.ID, ing.ID)
}

func TestResolve_NameCaseInsensitive(t *testing.T) {
	repo := newStubIngredientRepo()
	dept := uuid.New()
	lavender := seedIngredient(repo, dept, "Lavender", 500)
	svc := NewResolverService(repo)

	ing, err := svc.Resolve(context.Background(), dept, "LAVENDER", nil)
	require.NoError(t, err)
	assert.Equal(t, lavender.ID, ing.ID)
}

func TestResolve_StaleIDFallsBackToName(t *testing.T) {
	repo := newStubIngredientRepo()
	dept := uuid.New()
	lavender := seedIngredient(repo, dept, "Lavender", 500)
	svc := NewResolverService(repo)

	staleID := uuid.New()
	ing, err := svc.Resolve(context.Background(), dept, "lavender", &staleID)
	require.NoError(t, err)
	assert.Equal(t, lavender.ID, ing.ID)
}

func TestResolve_IDInOtherDepartmentFallsBack(t *testing.T) {
	repo := newStubIngredientRepo()
	deptA := uuid.New()
	deptB := uuid.New()
	// Same name in both departments; the id points at B's record, the sale
	// belongs to A — resolution must land on A's.
	foreign := seedIngredient(repo, deptB, "Vanilla", 300)
	local := seedIngredient(repo, deptA, "Vanilla", 200)
	svc := NewResolverService(repo)

	ing, err := svc.Resolve(context.Background(), deptA, "Vanilla", &foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, local.ID, ing.ID)
}

func TestResolve_NameNeverCrossesDepartments(t *testing.T) {
	repo := newStubIngredientRepo()
	deptA := uuid.New()
	deptB := uuid.New()
	seedIngredient(repo, deptB, "Vanilla", 300)
	svc := NewResolverService(repo)

	_, err := svc.Resolve(context.Background(), deptA, "Vanilla", nil)
	assert.ErrorIs(t, err, ErrIngredientNotFound)
}

func TestResolve_FailsClosedWithoutDepartment(t *testing.T) {
	repo := newStubIngredientRepo()
	seedIngredient(repo, uuid.New(), "Lavender", 500)
	svc := NewResolverService(repo)

	// No department scope: even a unique global name must not resolve.
	_, err := svc.Resolve(context.Background(), uuid.Nil, "Lavender", nil)
	assert.ErrorIs(t, err, ErrIngredientNotFound)
}

func TestResolve_NotFound(t *testing.T) {
	repo := newStubIngredientRepo()
	dept := uuid.New()
	svc := NewResolverService(repo)

	_, err := svc.Resolve(context.Background(), dept, "Bergamot", nil)
	assert.ErrorIs(t, err, ErrIngredientNotFound)
}
