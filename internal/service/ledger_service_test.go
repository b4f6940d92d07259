package service

import (
	"context"
	"testing"

	"aromapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLedger() (LedgerService, *stubProductRepo, *stubVariantRepo, *stubIngredientRepo, *stubMovementRepo, *stubAlertSink) {
	products := newStubProductRepo()
	variants := newStubVariantRepo()
	ingredients := newStubIngredientRepo()
	movements := &stubMovementRepo{}
	alerts := &stubAlertSink{}
	resolver := NewResolverService(ingredients)
	svc := NewLedgerService(products, variants, ingredients, movements, resolver, alerts)
	return svc, products, variants, ingredients, movements, alerts
}

func testSale(departmentID uuid.UUID) *model.Sale {
	return &model.Sale{ID: uuid.New(), DepartmentID: departmentID, ReceiptNumber: 42}
}

func TestDeduct_ProductQuantity(t *testing.T) {
	svc, products, _, _, movements, _ := buildLedger()
	dept := uuid.New()
	p := seedProduct(products, dept, "Soap Bar", 10, 5)
	sale := testSale(dept)

	warnings, err := svc.Deduct(context.Background(), nil, sale, &model.SaleItem{
		Kind: model.KindProduct, Name: p.Name, Quantity: 3, ProductID: &p.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 7, p.StockQty)

	require.Len(t, movements.movements, 1)
	m := movements.movements[0]
	assert.Equal(t, model.MovementSale, m.Type)
	assert.Equal(t, "-3", m.Delta.String())
	assert.Equal(t, "10", m.Before.String())
	assert.Equal(t, "7", m.After.String())
	assert.Equal(t, "sale #42", m.Reason)
	require.NotNil(t, m.SaleID)
	assert.Equal(t, sale.ID, *m.SaleID)
}

func TestDeduct_ClampsAtZero(t *testing.T) {
	svc, products, _, _, movements, _ := buildLedger()
	dept := uuid.New()
	p := seedProduct(products, dept, "Soap Bar", 2, 5)

	warnings, err := svc.Deduct(context.Background(), nil, testSale(dept), &model.SaleItem{
		Kind: model.KindProduct, Name: p.Name, Quantity: 5, ProductID: &p.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 0, p.StockQty)
	assert.Equal(t, "0", movements.movements[0].After.String())
}

func TestDeduct_VolumeProductMultipliesByQuantity(t *testing.T) {
	svc, products, _, _, _, _ := buildLedger()
	dept := uuid.New()
	p := seedVolumeProduct(products, dept, "Carrier Oil", 200, 0.8)

	// Two units of 30ml each → 60ml total.
	warnings, err := svc.Deduct(context.Background(), nil, testSale(dept), &model.SaleItem{
		Kind: model.KindProduct, Name: p.Name, Quantity: 2,
		Volume: decimal.NewFromInt(30), ProductID: &p.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "140", p.StockVolume.String())
}

func TestDeduct_VariantRoundTripAndClamp(t *testing.T) {
	svc, _, variants, _, movements, _ := buildLedger()
	dept := uuid.New()
	v := seedVariant(variants, uuid.New(), "Candle 200g / Sandalwood", 5, 25)
	sale := testSale(dept)

	item := &model.SaleItem{Kind: model.KindVariant, Name: v.Name, Quantity: 3, VariantID: &v.ID}

	warnings, err := svc.Deduct(context.Background(), nil, sale, item)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 2, v.StockQty)

	require.Len(t, movements.movements, 1)
	m := movements.movements[0]
	assert.Equal(t, model.EntityVariant, m.EntityType)
	assert.Equal(t, model.MovementSale, m.Type)
	assert.Equal(t, "-3", m.Delta.String())
	assert.Equal(t, "2", m.After.String())
	assert.Equal(t, "sale #42", m.Reason)

	_, err = svc.Restore(context.Background(), nil, sale, item, uuid.New(), "void of sale #42")
	require.NoError(t, err)
	assert.Equal(t, 5, v.StockQty)
	require.Len(t, movements.movements, 2)
	assert.Equal(t, model.MovementVoidRestore, movements.movements[1].Type)

	// Overselling clamps at zero rather than erroring.
	warnings, err = svc.Deduct(context.Background(), nil, sale, &model.SaleItem{
		Kind: model.KindVariant, Name: v.Name, Quantity: 99, VariantID: &v.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 0, v.StockQty)
	assert.Equal(t, "0", movements.movements[2].After.String())
}

func TestDeduct_MissingVariantIsWarningNotError(t *testing.T) {
	svc, _, _, _, movements, _ := buildLedger()
	missing := uuid.New()

	warnings, err := svc.Deduct(context.Background(), nil, testSale(uuid.New()), &model.SaleItem{
		Kind: model.KindVariant, Name: "Ghost Variant", Quantity: 1, VariantID: &missing,
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Ghost Variant")
	assert.Empty(t, movements.movements)
}

func TestDeduct_MissingProductIsWarningNotError(t *testing.T) {
	svc, _, _, _, movements, _ := buildLedger()
	dept := uuid.New()
	missing := uuid.New()

	warnings, err := svc.Deduct(context.Background(), nil, testSale(dept), &model.SaleItem{
		Kind: model.KindProduct, Name: "Ghost", Quantity: 1, ProductID: &missing,
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Ghost")
	assert.Empty(t, movements.movements)
}

func TestDeduct_MixtureSkipsUnresolvableComponent(t *testing.T) {
	svc, _, _, ingredients, movements, _ := buildLedger()
	dept := uuid.New()
	lavender := seedIngredient(ingredients, dept, "Lavender", 100)

	warnings, err := svc.Deduct(context.Background(), nil, testSale(dept), &model.SaleItem{
		Kind: model.KindMixture, Name: "blend 30ml", Quantity: 1,
		Mixture: []model.MixtureComponent{
			{Name: "Lavender", Volume: decimal.NewFromInt(15)},
			{Name: "Unicorn Tears", Volume: decimal.NewFromInt(15)},
		},
	})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Unicorn Tears")

	// The resolvable component still deducted.
	assert.Equal(t, "85", lavender.VolumeOnHand.String())
	assert.Len(t, movements.movements, 1)
}

func TestRestore_RoundTripsDeduct(t *testing.T) {
	svc, products, _, ingredients, _, _ := buildLedger()
	dept := uuid.New()
	p := seedProduct(products, dept, "Soap Bar", 10, 5)
	lavender := seedIngredient(ingredients, dept, "Lavender", 100)
	sale := testSale(dept)

	productItem := &model.SaleItem{Kind: model.KindProduct, Name: p.Name, Quantity: 3, ProductID: &p.ID}
	mixItem := &model.SaleItem{
		Kind: model.KindMixture, Name: "blend", Quantity: 1,
		Mixture: []model.MixtureComponent{{Name: "Lavender", Volume: decimal.NewFromInt(25)}},
	}

	_, err := svc.Deduct(context.Background(), nil, sale, productItem)
	require.NoError(t, err)
	_, err = svc.Deduct(context.Background(), nil, sale, mixItem)
	require.NoError(t, err)
	assert.Equal(t, 7, p.StockQty)
	assert.Equal(t, "75", lavender.VolumeOnHand.String())

	actor := uuid.New()
	_, err = svc.Restore(context.Background(), nil, sale, productItem, actor, "void of sale #42")
	require.NoError(t, err)
	_, err = svc.Restore(context.Background(), nil, sale, mixItem, actor, "void of sale #42")
	require.NoError(t, err)

	assert.Equal(t, 10, p.StockQty)
	assert.Equal(t, "100", lavender.VolumeOnHand.String())
}

func TestWriteOffMixture_RecordsShrinkageWithoutMutation(t *testing.T) {
	svc, _, _, ingredients, movements, _ := buildLedger()
	dept := uuid.New()
	lavender := seedIngredient(ingredients, dept, "Lavender", 100)
	sale := testSale(dept)

	err := svc.WriteOffMixture(context.Background(), nil, sale, &model.SaleItem{
		Kind: model.KindMixture, Name: "blend",
		Mixture: []model.MixtureComponent{{Name: "Lavender", Volume: decimal.NewFromInt(25)}},
	}, uuid.New(), "void of sale #42: wrong customer")
	require.NoError(t, err)

	// Stock untouched, decision auditable.
	assert.Equal(t, "100", lavender.VolumeOnHand.String())
	require.Len(t, movements.movements, 1)
	m := movements.movements[0]
	assert.Equal(t, model.MovementShrinkage, m.Type)
	assert.True(t, m.Delta.IsZero())
}

func TestAdjustProduct_NegativeDeltaClamps(t *testing.T) {
	svc, products, _, _, movements, _ := buildLedger()
	dept := uuid.New()
	p := seedProduct(products, dept, "Soap Bar", 3, 5)

	err := svc.AdjustProduct(context.Background(), p.ID, -10, decimal.Zero, uuid.New(), "inventory recount")
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQty)

	require.Len(t, movements.movements, 1)
	m := movements.movements[0]
	assert.Equal(t, model.MovementAdjustment, m.Type)
	assert.Equal(t, "inventory recount", m.Reason)
	assert.Equal(t, "0", m.After.String())
	assert.Nil(t, m.SaleID)
	assert.NotNil(t, m.ActorID)
}

func TestAdjustIngredient_PositiveDelta(t *testing.T) {
	svc, _, _, ingredients, movements, _ := buildLedger()
	dept := uuid.New()
	ing := seedIngredient(ingredients, dept, "Lavender", 40)

	err := svc.AdjustIngredient(context.Background(), ing.ID, decimal.NewFromInt(60), uuid.New(), "restock delivery")
	require.NoError(t, err)
	assert.Equal(t, "100", ing.VolumeOnHand.String())
	require.Len(t, movements.movements, 1)
	assert.Equal(t, "60", movements.movements[0].Delta.String())
}

func TestDeduct_LowStockAlertFires(t *testing.T) {
	svc, products, _, _, _, alerts := buildLedger()
	dept := uuid.New()
	p := seedProduct(products, dept, "Soap Bar", 5, 5)
	p.MinStockQty = 3

	_, err := svc.Deduct(context.Background(), nil, testSale(dept), &model.SaleItem{
		Kind: model.KindProduct, Name: p.Name, Quantity: 3, ProductID: &p.ID,
	})
	require.NoError(t, err)
	require.Len(t, alerts.alerts, 1)
	assert.Equal(t, "Soap Bar", alerts.alerts[0])
}
