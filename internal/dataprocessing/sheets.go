package dataprocessing

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apierrors "retailpulse/internal/errors"
	"retailpulse/pkg/contracts/domain"
)

// DefaultSheetsRange is read when the caller names no range.
const DefaultSheetsRange = "A:Z"

// ValuesGetter fetches a rectangular range of cell values.
type ValuesGetter interface {
	GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]any, error)
}

// SheetsClient reads spreadsheet ranges through the Sheets v4 API.
type SheetsClient struct {
	service *sheets.Service
}

// NewSheetsClient creates a read-only client. An empty credentialsFile
// falls back to application default credentials.
func NewSheetsClient(ctx context.Context, credentialsFile string) (*SheetsClient, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apierrors.NewSourceError("failed to create sheets service", err)
	}
	return &SheetsClient{service: srv}, nil
}

// GetValues implements ValuesGetter. Dates come back as serial numbers.
func (c *SheetsClient) GetValues(ctx context.Context, spreadsheetID, readRange string) ([][]any, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, readRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// ReadSheet loads a spreadsheet range as raw rows. ref may be a bare
// spreadsheet id or a docs.google.com URL.
func ReadSheet(ctx context.Context, getter ValuesGetter, ref, readRange string) ([]domain.RawRow, error) {
	id, err := ParseSpreadsheetID(ref)
	if err != nil {
		return nil, err
	}
	if readRange == "" {
		readRange = DefaultSheetsRange
	}
	values, err := getter.GetValues(ctx, id, readRange)
	if err != nil {
		return nil, apierrors.NewSourceError("failed to read spreadsheet", err).
			WithContext("spreadsheet_id", id).
			WithContext("range", readRange)
	}
	return buildRows(values), nil
}

var (
	spreadsheetURL = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`)
	spreadsheetID  = regexp.MustCompile(`^[a-zA-Z0-9_-]{10,}$`)
)

// ParseSpreadsheetID extracts the id from a sheet URL or validates a bare id.
func ParseSpreadsheetID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if m := spreadsheetURL.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if spreadsheetID.MatchString(ref) {
		return ref, nil
	}
	return "", apierrors.NewAppValidationError(fmt.Sprintf("not a spreadsheet id or URL: %q", ref))
}
