package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportWorkbook(t *testing.T) {
	st, products, _ := newProductFixture(t)
	ctx := context.Background()

	auth := &AuthService{Store: st}
	userID := registerTestUser(t, auth, "gabi")
	resp := firstResponsible(t, st)

	_, err := products.Create(ctx, userID, ProductInput{EAN: "7891234567895", Name: "Batedeira Planetária", Quantity: 2})
	require.NoError(t, err)
	_, err = products.SendList(ctx, userID, resp.ID, resp.PIN)
	require.NoError(t, err)

	export := &ExportService{Store: st}
	data, filename, err := export.Workbook(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	require.Contains(t, filename, "listas_enviadas_")
	require.Contains(t, filename, ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2) // header + one product

	require.Equal(t, exportHeader, rows[0])
	require.Equal(t, "7891234567895", rows[1][0])
	require.Equal(t, "Batedeira Planetária", rows[1][1])
	require.Equal(t, "2", rows[1][2])
	require.Equal(t, "gabi", rows[1][3])
	require.Equal(t, "NÃO", rows[1][5])
	require.Equal(t, resp.Name, rows[1][8])
}
