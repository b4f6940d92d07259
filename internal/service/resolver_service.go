package service

import (
	"context"

	"aromapos/internal/model"
	"aromapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ResolverService resolves a named ingredient to exactly one record, scoped
// to a department. Identifier lookup wins; a case-insensitive name match is
// the fallback. Resolution never crosses department boundaries — with a
// missing department it fails closed instead of searching globally, so a
// same-named ingredient in another department can never be deducted.
type ResolverService interface {
	Resolve(ctx context.Context, departmentID uuid.UUID, name string, ingredientID *uuid.UUID) (*model.Ingredient, error)
}

type resolverService struct {
	ingredients repository.IngredientRepository
}

func NewResolverService(ingredients repository.IngredientRepository) ResolverService {
	return &resolverService{ingredients: ingredients}
}

func (s *resolverService) Resolve(ctx context.Context, departmentID uuid.UUID, name string, ingredientID *uuid.UUID) (*model.Ingredient, error) {
	// 1. Identifier lookup. A stale id is logged but not fatal — the name
	// search below gets its chance.
	if ingredientID != nil && *ingredientID != uuid.Nil {
		ing, err := s.ingredients.FindByID(ctx, *ingredientID)
		switch {
		case err != nil:
			log.Error().
				Str("ingredient_id", ingredientID.String()).
				Str("name", name).
				Err(err).
				Msg("resolver: id lookup failed, falling back to name search")
		case ing.DepartmentID != departmentID:
			// An id pointing into another department is as good as stale.
			log.Error().
				Str("ingredient_id", ingredientID.String()).
				Str("want_department", departmentID.String()).
				Str("got_department", ing.DepartmentID.String()).
				Msg("resolver: id resolves outside the sale's department, falling back to name search")
		default:
			return ing, nil
		}
	}

	// 2. Name search, strictly department-scoped. Fail closed on a missing
	// department.
	if departmentID == uuid.Nil {
		log.Warn().Str("name", name).Msg("resolver: no department scope, refusing global name search")
		return nil, ErrIngredientNotFound
	}

	matches, err := s.ingredients.FindByNameInDepartment(ctx, departmentID, name)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrIngredientNotFound
	}
	if len(matches) > 1 {
		log.Warn().
			Str("name", name).
			Str("department_id", departmentID.String()).
			Int("matches", len(matches)).
			Msg("resolver: ambiguous ingredient name, taking first match")
	}
	return &matches[0], nil
}
