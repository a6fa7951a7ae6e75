package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/project-analyzer/internal/errors"
	"github.com/project-analyzer/internal/models"
	"github.com/project-analyzer/internal/types"
)

type fakePaymentStore struct {
	payments map[string]*models.ToolPayment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]*models.ToolPayment)}
}

func (f *fakePaymentStore) Create(ctx context.Context, payment *models.ToolPayment) error {
	f.payments[payment.ID] = payment
	return nil
}

func (f *fakePaymentStore) GetByID(ctx context.Context, id string) (*models.ToolPayment, error) {
	payment, ok := f.payments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("payment", id)
	}
	return payment, nil
}

func (f *fakePaymentStore) ExistsByTxHash(ctx context.Context, txHash string) (bool, error) {
	for _, p := range f.payments {
		if p.TxHash == txHash {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePaymentStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.ToolPayment, error) {
	var out []*models.ToolPayment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePaymentStore) UpdateStatus(ctx context.Context, id string, status types.PaymentStatus) error {
	f.payments[id].Status = status
	return nil
}

func TestPaymentServiceCreate(t *testing.T) {
	store := newFakePaymentStore()
	svc := NewPaymentService(store, testLogger())

	payment, err := svc.Create(context.Background(), CreatePaymentInput{
		UserID:    "u1",
		Tool:      types.ToolBlockchain,
		TxHash:    "0xabc",
		AmountWei: "5000000000000000",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, payment.ID)
	assert.Equal(t, types.PaymentPending, payment.Status)
	assert.Len(t, store.payments, 1)
}

func TestPaymentServiceRejectsDuplicateTxHash(t *testing.T) {
	store := newFakePaymentStore()
	svc := NewPaymentService(store, testLogger())

	_, err := svc.Create(context.Background(), CreatePaymentInput{
		UserID: "u1", Tool: types.ToolBlockchain, TxHash: "0xabc", AmountWei: "1",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreatePaymentInput{
		UserID: "u2", Tool: types.ToolKeyword, TxHash: "0xabc", AmountWei: "2",
	})

	var catErr *apperrors.CategorizedError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, http.StatusConflict, catErr.StatusCode)
	assert.Equal(t, "DUPLICATE_TX_HASH", catErr.Code)
	assert.Len(t, store.payments, 1, "duplicate must not create a second row")
}

func TestPaymentServiceGetOwnershipMismatch(t *testing.T) {
	store := newFakePaymentStore()
	svc := NewPaymentService(store, testLogger())

	payment, err := svc.Create(context.Background(), CreatePaymentInput{
		UserID: "owner", Tool: types.ToolBlockchain, TxHash: "0x1", AmountWei: "1",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), payment.ID, "intruder")

	var catErr *apperrors.CategorizedError
	require.ErrorAs(t, err, &catErr)
	assert.Equal(t, http.StatusForbidden, catErr.StatusCode)
}

func TestPaymentServiceConfirm(t *testing.T) {
	store := newFakePaymentStore()
	svc := NewPaymentService(store, testLogger())

	payment, err := svc.Create(context.Background(), CreatePaymentInput{
		UserID: "u1", Tool: types.ToolBlockchain, TxHash: "0x2", AmountWei: "1",
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(context.Background(), payment.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, types.PaymentConfirmed, confirmed.Status)
	assert.Equal(t, types.PaymentConfirmed, store.payments[payment.ID].Status)
}
