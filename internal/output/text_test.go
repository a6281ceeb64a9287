package output

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/metaharvest/internal/models"
)

var sample = models.ResultSet{
	{Hash: "aa11", BlockTime: 1709251200, Metadata: []models.MetadataRecord{
		{Label: "674", Text: "Hello\n  world  \nHello"},
		{Label: "721", Text: ""},
	}},
	{Hash: "bb22", Metadata: []models.MetadataRecord{
		{Label: "674", Text: "world\nbye"},
	}},
}

func TestUniqueLines(t *testing.T) {
	assert.Equal(t, []string{"Hello", "world", "bye"}, UniqueLines(sample))
	assert.Empty(t, UniqueLines(nil))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample)
	assert.Equal(t, Stats{Transactions: 2, MetadataItems: 3, UniqueLabels: 2, TotalCharacters: 30}, s)
	assert.Equal(t, "2 transaction(s), 3 metadata item(s), 2 unique label(s), 30 characters", s.String())
}

func TestFormatCount(t *testing.T) {
	cases := map[int]string{0: "0", 999: "999", 1000: "1.0K", 1550: "1.6K", 2_000_000: "2.0M"}
	for n, want := range cases {
		assert.Equal(t, want, FormatCount(n))
	}
}

func TestTextOutputHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewTextOutputHandler(&buf, true)
	require.NoError(t, h.WriteResults(context.Background(), models.Preprod, sample))

	out := buf.String()
	assert.Contains(t, out, "https://preprod.cardanoscan.io/transaction/aa11\n")
	assert.Contains(t, out, "  block time: 2024-03-01T00:00:00Z\n")
	assert.Contains(t, out, "  2 metadata item(s)\n")
	assert.Contains(t, out, "  label 674:\n    Hello\n      world  \n    Hello\n")
	assert.Contains(t, out, "  label 721:\n    (no string values found in this metadata)\n")
	assert.Contains(t, out, "2 transaction(s), 3 metadata item(s)")
	assert.Contains(t, out, "\nHello\nworld\nbye\n")

	loaded, err := h.LoadResults(context.Background(), models.Preprod, 10)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
	assert.NoError(t, h.Close())
}

func TestTextOutputHandlerWithoutUnique(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextOutputHandler(&buf, false).WriteResults(context.Background(), models.Mainnet, nil))
	assert.Equal(t, "0 transaction(s), 0 metadata item(s), 0 unique label(s), 0 characters\n", buf.String())
}
