package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkethq/linket/cmd/linket/models"
	"github.com/linkethq/linket/cmd/linket/repository"
	"github.com/linkethq/linket/common/apperror"
	"github.com/linkethq/linket/common/csvutil"
	"github.com/linkethq/linket/common/logger"
)

// Mint bounds and defaults
const (
	MintMinQuantity = 1
	MintMaxQuantity = 20000
	MintMaxLabelLen = 64

	exportWindowSize = 500
)

// MintService mints batches of tags and exports them as CSV for
// manufacturing
type MintService struct {
	batches BatchStore
	tags    TagStore
	origin  string
	log     *logger.Logger
}

// NewMintService creates a new mint service
func NewMintService(batches BatchStore, tags TagStore, origin string, log *logger.Logger) *MintService {
	return &MintService{
		batches: batches,
		tags:    tags,
		origin:  origin,
		log:     log,
	}
}

// MintedTag is a freshly minted tag with its derived public URL and
// display-formatted claim code
type MintedTag struct {
	models.HardwareTag
	URL              string `json:"url"`
	ClaimCodeDisplay string `json:"claim_code_display"`
}

// MintResult is the outcome of one mint operation
type MintResult struct {
	Batch *models.HardwareTagBatch `json:"batch"`
	Tags  []*MintedTag             `json:"tags"`
}

// Mint creates quantity new unclaimed tags under a new batch. The batch
// and all rows are written in one transaction; a failure produces nothing.
func (s *MintService) Mint(ctx context.Context, quantity int, label string) (*MintResult, error) {
	if quantity < MintMinQuantity || quantity > MintMaxQuantity {
		return nil, apperror.NewInvalidInput(
			fmt.Sprintf("quantity must be between %d and %d", MintMinQuantity, MintMaxQuantity))
	}

	label = SanitizeLabel(label)

	now := time.Now()
	batch := &models.HardwareTagBatch{
		ID:        uuid.New(),
		Label:     label,
		CreatedAt: now,
	}

	tags := make([]*models.HardwareTag, 0, quantity)
	minted := make([]*MintedTag, 0, quantity)
	for i := 0; i < quantity; i++ {
		token, err := newPublicToken()
		if err != nil {
			return nil, apperror.NewUpstream(err)
		}
		code, err := newClaimCode()
		if err != nil {
			return nil, apperror.NewUpstream(err)
		}
		chipUID, err := newChipUID()
		if err != nil {
			return nil, apperror.NewUpstream(err)
		}

		batchID := batch.ID
		tag := &models.HardwareTag{
			ID:          uuid.New(),
			ChipUID:     chipUID,
			PublicToken: token,
			ClaimCode:   &code,
			Status:      models.TagStatusUnclaimed,
			BatchID:     &batchID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		tags = append(tags, tag)
		minted = append(minted, &MintedTag{
			HardwareTag:      *tag,
			URL:              s.TagURL(token),
			ClaimCodeDisplay: models.FormatClaimCode(code),
		})
	}

	if err := s.batches.Mint(ctx, batch, tags); err != nil {
		return nil, apperror.NewUpstream(err)
	}

	s.log.Info("minted tag batch",
		"batch_id", batch.ID,
		"label", batch.Label,
		"quantity", quantity,
	)

	return &MintResult{Batch: batch, Tags: minted}, nil
}

// ExportHeader is the CSV column set of every export
var ExportHeader = []string{
	"id", "public_token", "url", "claim_code", "claim_code_display", "batch_id", "batch_label",
}

// Export streams tags as CSV to w, optionally filtered to one batch
// (nil batchID exports everything, the master log). Rows are read in
// fixed-size windows over a stable (created_at, id) sort so none are
// skipped or duplicated. Returns the number of data rows written.
func (s *MintService) Export(ctx context.Context, batchID *uuid.UUID, w io.Writer) (int, error) {
	if batchID != nil {
		batch, err := s.batches.GetByID(ctx, *batchID)
		if err != nil {
			return 0, apperror.NewUpstream(err)
		}
		if batch == nil {
			return 0, apperror.NewNotFound("batch not found")
		}
	}

	cw, err := csvutil.NewWriter(w, ExportHeader)
	if err != nil {
		return 0, apperror.NewUpstream(err)
	}

	written := 0
	var cursor *repository.ExportCursor
	for {
		rows, err := s.tags.ListExportWindow(ctx, batchID, cursor, exportWindowSize)
		if err != nil {
			return written, apperror.NewUpstream(err)
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			claimCode := ""
			if row.ClaimCode != nil {
				claimCode = *row.ClaimCode
			}
			rowBatchID := ""
			if row.BatchID != nil {
				rowBatchID = row.BatchID.String()
			}
			batchLabel := ""
			if row.BatchLabel != nil {
				batchLabel = *row.BatchLabel
			}

			err := cw.WriteRow(
				row.ID.String(),
				row.PublicToken,
				s.TagURL(row.PublicToken),
				claimCode,
				models.FormatClaimCode(claimCode),
				rowBatchID,
				batchLabel,
			)
			if err != nil {
				return written, apperror.NewUpstream(err)
			}
			written++
		}

		last := rows[len(rows)-1]
		cursor = &repository.ExportCursor{CreatedAt: last.CreatedAt, ID: last.ID}

		if len(rows) < exportWindowSize {
			break
		}
	}

	if err := cw.Flush(); err != nil {
		return written, apperror.NewUpstream(err)
	}

	return written, nil
}

// TagURL derives the public scan URL for a token
func (s *MintService) TagURL(token string) string {
	return s.origin + "/l/" + token
}

// SanitizeLabel trims a batch label to the allowed length, defaulting to
// the current date
func SanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return time.Now().Format("2006-01-02")
	}
	if len(label) > MintMaxLabelLen {
		label = label[:MintMaxLabelLen]
	}
	return label
}

// claimCodeAlphabet avoids ambiguous characters (0/O, 1/I/L)
const claimCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const claimCodeLength = 12

// newPublicToken generates a URL-safe token for the NFC/QR payload
func newPublicToken() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate public token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// newClaimCode generates a human-typeable claim code
func newClaimCode() (string, error) {
	buf := make([]byte, claimCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate claim code: %w", err)
	}
	code := make([]byte, claimCodeLength)
	for i, b := range buf {
		code[i] = claimCodeAlphabet[int(b)%len(claimCodeAlphabet)]
	}
	return string(code), nil
}

// newChipUID generates a placeholder chip identifier; the physical UID is
// written back when the batch is programmed at manufacturing
func newChipUID() (string, error) {
	buf := make([]byte, 7)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate chip uid: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
