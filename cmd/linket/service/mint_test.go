package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/common/apperror"
)

func TestMint_QuantityBounds(t *testing.T) {
	env := newTestEnv()

	for _, qty := range []int{0, -1, MintMaxQuantity + 1} {
		_, err := env.mint.Mint(context.Background(), qty, "run")
		require.Error(t, err, "quantity %d must be rejected", qty)
		assert.Equal(t, http.StatusBadRequest, apperror.Code(err))
	}

	result, err := env.mint.Mint(context.Background(), MintMaxQuantity, "full run")
	require.NoError(t, err)
	assert.Len(t, result.Tags, MintMaxQuantity)
}

func TestMint_TagsAreUniqueUnclaimedAndClaimable(t *testing.T) {
	env := newTestEnv()

	result, err := env.mint.Mint(context.Background(), 50, "spring run")
	require.NoError(t, err)
	require.Len(t, result.Tags, 50)
	assert.Equal(t, "spring run", result.Batch.Label)

	tokens := make(map[string]bool)
	codes := make(map[string]bool)
	chips := make(map[string]bool)
	for _, tag := range result.Tags {
		assert.Equal(t, models.TagStatusUnclaimed, tag.Status)
		require.NotNil(t, tag.BatchID)
		assert.Equal(t, result.Batch.ID, *tag.BatchID)
		assert.Equal(t, testOrigin+"/l/"+tag.PublicToken, tag.URL)

		tokens[tag.PublicToken] = true
		require.NotNil(t, tag.ClaimCode)
		codes[*tag.ClaimCode] = true
		chips[tag.ChipUID] = true
	}
	assert.Len(t, tokens, 50)
	assert.Len(t, codes, 50)
	assert.Len(t, chips, 50)
}

func TestMint_ClaimCodeShape(t *testing.T) {
	env := newTestEnv()

	result, err := env.mint.Mint(context.Background(), 5, "")
	require.NoError(t, err)

	for _, tag := range result.Tags {
		code := *tag.ClaimCode
		require.Len(t, code, claimCodeLength)
		for _, r := range code {
			assert.Contains(t, claimCodeAlphabet, string(r))
		}
		// AB12-CD34-EF56 shape
		display := tag.ClaimCodeDisplay
		require.Len(t, display, claimCodeLength+2)
		assert.Equal(t, code, models.NormalizeClaimCode(display))
		parts := strings.Split(display, "-")
		require.Len(t, parts, 3)
		for _, part := range parts {
			assert.Len(t, part, 4)
		}
	}
}

func TestMint_EmptyLabelDefaultsToDate(t *testing.T) {
	env := newTestEnv()

	result, err := env.mint.Mint(context.Background(), 1, "   ")
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006-01-02"), result.Batch.Label)
}

func TestSanitizeLabel_Truncates(t *testing.T) {
	long := strings.Repeat("x", MintMaxLabelLen+10)
	assert.Len(t, SanitizeLabel(long), MintMaxLabelLen)
	assert.Equal(t, "spring", SanitizeLabel("  spring  "))
}

func TestExport_MintedTagsRoundTrip(t *testing.T) {
	env := newTestEnv()

	result, err := env.mint.Mint(context.Background(), 3, "spring run")
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := env.mint.Export(context.Background(), &result.Batch.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4) // header + 3 rows
	assert.Equal(t, ExportHeader, records[0])

	byToken := make(map[string]*MintedTag)
	for _, tag := range result.Tags {
		byToken[tag.PublicToken] = tag
	}
	for _, record := range records[1:] {
		tag, ok := byToken[record[1]]
		require.True(t, ok, "exported token %q was not minted", record[1])
		assert.Equal(t, tag.ID.String(), record[0])
		assert.Equal(t, tag.URL, record[2])
		assert.Equal(t, *tag.ClaimCode, record[3])
		assert.Equal(t, tag.ClaimCodeDisplay, record[4])
		assert.Equal(t, result.Batch.ID.String(), record[5])
		assert.Equal(t, "spring run", record[6])
	}
}

func TestExport_FiltersToBatch(t *testing.T) {
	env := newTestEnv()

	first, err := env.mint.Mint(context.Background(), 4, "first")
	require.NoError(t, err)
	_, err = env.mint.Mint(context.Background(), 6, "second")
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := env.mint.Export(context.Background(), &first.Batch.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, written)
}

func TestExport_MasterLogSpansBatches(t *testing.T) {
	env := newTestEnv()

	_, err := env.mint.Mint(context.Background(), 4, "first")
	require.NoError(t, err)
	_, err = env.mint.Mint(context.Background(), 6, "second")
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := env.mint.Export(context.Background(), nil, &buf)
	require.NoError(t, err)
	assert.Equal(t, 10, written)
}

func TestExport_WindowedReadIsStable(t *testing.T) {
	env := newTestEnv()

	// Larger than two read windows, to exercise the cursor.
	result, err := env.mint.Mint(context.Background(), exportWindowSize*2+17, "big run")
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := env.mint.Export(context.Background(), &result.Batch.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, exportWindowSize*2+17, written)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, record := range records[1:] {
		require.False(t, seen[record[0]], "tag %s exported twice", record[0])
		seen[record[0]] = true
	}
	assert.Len(t, seen, exportWindowSize*2+17)
}

func TestExport_UnknownBatch(t *testing.T) {
	env := newTestEnv()

	missing := uuid.New()
	var buf bytes.Buffer
	_, err := env.mint.Export(context.Background(), &missing, &buf)

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperror.Code(err))
}
