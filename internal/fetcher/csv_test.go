package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectCSV(t *testing.T, rows <-chan []string, errs <-chan error) [][]string {
	t.Helper()
	var out [][]string
	for row := range rows {
		out = append(out, row)
	}
	require.NoError(t, <-errs)
	return out
}

func TestStreamCSVSemicolon(t *testing.T) {
	input := "CODGEO;LIBGEO;P21_MEN\n75056; Paris ;1153044\n69123;Lyon;267523\n"
	headerCh := make(chan []string, 1)

	rows, errs := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: ';',
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	got := collectCSV(t, rows, errs)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"75056", "Paris", "1153044"}, got[0])
	assert.Equal(t, []string{"CODGEO", "LIBGEO", "P21_MEN"}, <-headerCh)
}

func TestStreamCSVDefaultComma(t *testing.T) {
	input := "a,b\n1,2\n"

	rows, errs := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	got := collectCSV(t, rows, errs)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"a", "b"}, got[0])
	assert.Equal(t, []string{"1", "2"}, got[1])
}

func TestStreamCSVVariableFieldCounts(t *testing.T) {
	input := "a;b;c\n1;2\n1;2;3;4\n"

	rows, errs := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{Delimiter: ';'})
	got := collectCSV(t, rows, errs)
	require.Len(t, got, 3)
	assert.Len(t, got[1], 2)
	assert.Len(t, got[2], 4)
}

func TestStreamCSVLazyQuotes(t *testing.T) {
	input := "code,name\n01001,L'Abergement \"dit\" Clemenciat\n"

	rows, errs := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader:  true,
		LazyQuotes: true,
	})
	got := collectCSV(t, rows, errs)
	require.Len(t, got, 1)
	assert.Equal(t, `L'Abergement "dit" Clemenciat`, got[0][1])
}

func TestStreamCSVMalformedRow(t *testing.T) {
	input := "a,b\n\"unterminated,2\n"

	rows, errs := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	for range rows { //nolint:revive // drain
	}
	err := <-errs
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read row")
}

func TestStreamCSVCancellation(t *testing.T) {
	var b strings.Builder
	b.WriteString("code;name\n")
	for range 10000 {
		b.WriteString("01001;x\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rows, errs := StreamCSV(ctx, strings.NewReader(b.String()), CSVOptions{Delimiter: ';', HasHeader: true})

	count := 0
	for range rows {
		count++
		if count == 5 {
			cancel()
			break
		}
	}
	for range rows { //nolint:revive // drain
	}
	for range errs { //nolint:revive // drain
	}
}
