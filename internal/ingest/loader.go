package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"notewise/internal/logging"
	"notewise/internal/services"
)

// Loader reads uploads and applies the per-kind ingestion rules.
type Loader struct {
	maxBytes   int64
	licenseKey string
	logger     *slog.Logger
}

// NewLoader constructs a Loader. maxBytes <= 0 disables the size limit.
func NewLoader(maxBytes int64, licenseKey string, logger *slog.Logger) *Loader {
	return &Loader{
		maxBytes:   maxBytes,
		licenseKey: licenseKey,
		logger:     logging.NewComponentLogger(logger, "ingest"),
	}
}

// Load classifies and reads one file.
func (l *Loader) Load(ctx context.Context, name, declaredType string, r io.Reader) (Input, error) {
	data, err := l.readAll(r)
	if err != nil {
		return Input{}, err
	}
	head := data
	if len(head) > 3072 {
		head = head[:3072]
	}
	kind := Classify(name, declaredType, head)
	logger := logging.WithContext(ctx, l.logger)
	logger.Debug("input classified",
		logging.String("file", name),
		logging.String("declared_type", declaredType),
		logging.String("kind", string(kind)),
		logging.Int("bytes", len(data)),
	)

	switch kind {
	case KindDOCX:
		text, err := ExtractDOCXText(data, l.licenseKey)
		if err != nil {
			logging.WarnWithContext(logger, "docx extraction failed", "docx_extraction_failed",
				logging.String("file", name),
				logging.Error(err),
				logging.String(logging.FieldImpact, "input reset; no notes produced"),
				logging.String(logging.FieldErrorHint, "re-save the document as .docx or upload a PDF"),
			)
			return Input{}, services.Wrap(services.ErrExtraction, "ingest", "docx",
				fmt.Sprintf("Failed to extract text from DOCX: %v", err), err)
		}
		return Input{Mode: ModeText, Text: text, Source: name}, nil
	case KindPDF, KindTXT:
		return Input{
			Mode:   ModeFile,
			Source: name,
			Document: &Document{
				Name:      name,
				MediaType: kind.MediaType(),
				Kind:      kind,
				Data:      data,
			},
		}, nil
	default:
		return Input{}, services.Wrap(services.ErrUnsupportedInput, "ingest", "classify",
			fmt.Sprintf("Unsupported file type: %s. Please upload PDF, TXT, or DOCX.", name), nil)
	}
}

func (l *Loader) readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "read", "no file provided", nil)
	}
	if l.maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "ingest", "read", "could not read upload", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ingest", "read", "could not read upload", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, services.Wrap(services.ErrValidation, "ingest", "read",
			fmt.Sprintf("File is too large. The limit is %d bytes.", l.maxBytes), nil)
	}
	return data, nil
}
