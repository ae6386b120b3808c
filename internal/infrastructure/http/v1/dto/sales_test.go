package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/id"
)

func TestRecordSaleRequestRequiresUnitPrice(t *testing.T) {
	outletID, productID := id.New(), id.New()

	var req RecordSaleRequest
	body := `{
		"outletId": "` + outletID.String() + `",
		"lines": [{"productId": "` + productID.String() + `", "qtySold": 2}]
	}`
	err := binding.JSON.BindBody([]byte(body), &req)
	require.Error(t, err, "a line without unitPrice must not bind")
}

func TestRecordSaleRequestAcceptsZeroUnitPrice(t *testing.T) {
	outletID, productID := id.New(), id.New()

	var req RecordSaleRequest
	body := `{
		"outletId": "` + outletID.String() + `",
		"lines": [{"productId": "` + productID.String() + `", "qtySold": 2, "unitPrice": 0}]
	}`
	require.NoError(t, binding.JSON.BindBody([]byte(body), &req))

	in := req.ToInput("Rep", id.New())
	require.Len(t, in.Lines, 1)
	assert.True(t, in.Lines[0].UnitPrice.IsZero(), "an explicit zero price is a valid giveaway")
}

func TestRecordSaleRequestFreezesSuppliedPrice(t *testing.T) {
	outletID, productID := id.New(), id.New()

	var req RecordSaleRequest
	body := `{
		"outletId": "` + outletID.String() + `",
		"lines": [{"productId": "` + productID.String() + `", "qtySold": 3, "unitPrice": "12.50"}]
	}`
	require.NoError(t, binding.JSON.BindBody([]byte(body), &req))

	in := req.ToInput("Rep", id.New())
	require.Len(t, in.Lines, 1)
	assert.Equal(t, "12.5", in.Lines[0].UnitPrice.String())
}

func TestEditTransactionRequestRequiresUnitPrice(t *testing.T) {
	productID := id.New()

	var req EditTransactionRequest
	body := `{"lines": [{"productId": "` + productID.String() + `", "qtySold": 1}]}`
	err := binding.JSON.BindBody([]byte(body), &req)
	require.Error(t, err)
}
