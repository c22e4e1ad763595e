package parsers

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestParseNormalizesHeaders(t *testing.T) {
	p := NewCSVParser()

	result, err := p.Parse(strings.NewReader("Order ID,Symbol, Price\n1,GFG,120.5\n"))

	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "symbol", "price"}, result.Headers)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "120.5", result.Rows[0]["price"])
}

func TestParseEmptyInputIsFatal(t *testing.T) {
	p := NewCSVParser()

	_, err := p.Parse(strings.NewReader(""))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestParseMalformedLineBecomesWarning(t *testing.T) {
	p := NewCSVParser()

	input := "order_id,symbol\n1,GFG\n2,bro\"ken\n3,ALUA\n"
	result, err := p.Parse(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "line 3")
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "ALUA", result.Rows[1]["symbol"])
}

func TestParseSkipsEmptyRecords(t *testing.T) {
	p := NewCSVParser()

	result, err := p.Parse(strings.NewReader("order_id,symbol\n1,GFG\n,\n2,ALUA\n"))

	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
}

func TestParseShortRecordKeepsKnownColumns(t *testing.T) {
	p := NewCSVParser()

	result, err := p.Parse(strings.NewReader("order_id,symbol,price\n1,GFG\n"))

	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "GFG", result.Rows[0]["symbol"])
	assert.Empty(t, result.Rows[0]["price"])
}
