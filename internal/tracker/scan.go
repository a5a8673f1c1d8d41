package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/ml"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/storage"
)

// ScanResult is a successful stool scan and the record it produced.
type ScanResult struct {
	Analysis ml.StoolAnalysis  `json:"analysis"`
	Record   models.CareRecord `json:"record"`
}

// ScanStool analyzes a stool photo and logs an ELIMINATION/STOOL record.
// On analysis failure nothing is recorded.
func (s *Service) ScanStool(ctx context.Context, image []byte, mimeType string) (ScanResult, error) {
	if len(image) == 0 {
		return ScanResult{}, fmt.Errorf("%w: empty image", apperr.ErrInvalid)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return ScanResult{}, fmt.Errorf("%w: unsupported content type %q", apperr.ErrInvalid, mimeType)
	}

	a, err := s.model.AnalyzeStool(ctx, image, mimeType)
	if err != nil {
		s.metrics.CollaboratorErrors.WithLabelValues("stool_scan").Inc()
		if errors.Is(err, ml.ErrUnavailable) {
			return ScanResult{}, fmt.Errorf("%w: %w", apperr.ErrUnavailable, err)
		}
		s.logger.Warn("stool scan failed", slog.String("error", err.Error()))
		return ScanResult{}, fmt.Errorf("tracker: scan: %w", err)
	}

	rec := models.CareRecord{
		Kind:        models.KindElimination,
		StartTime:   s.now().In(s.loc),
		Elimination: &models.Elimination{Type: models.EliminationStool},
		Note:        scanNote(a),
	}
	out, err := s.records.Add(ctx, rec)
	if err != nil {
		s.persistFailed(storage.KeyRecords, err)
		return ScanResult{}, err
	}
	s.recordSaved(out, true)
	return ScanResult{Analysis: a, Record: out}, nil
}

func scanNote(a ml.StoolAnalysis) string {
	return strings.TrimSpace(fmt.Sprintf("AI scan: %s, %s, %s", a.Color, a.Firmness, a.StatusLabel))
}
