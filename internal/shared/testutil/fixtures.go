package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	apierrors "github.com/Adolanium/SWLic/internal/errors"
	"github.com/Adolanium/SWLic/internal/servicepack"
	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

// SampleSerial is the serial SampleRecord describes
const SampleSerial = "9000 0000 1234"

// SampleRecord returns a 2021 record with one inactive and one active
// machine. Its maintenance end of 5/1/2021 resolves to SP1 in
// ServicePackTable.
func SampleRecord() *domain.SerialRecord {
	return &domain.SerialRecord{
		ProductName:    "SOLIDWORKS Premium",
		Version:        "2021 SP5",
		SerialNumber:   SampleSerial,
		MaintenanceEnd: "5/1/2021",
		Activations: []domain.Activation{
			{Row: 2, MachineName: "OLD-PC", Activated: false},
			{Row: 3, MachineName: "CAD-WS01", Activated: true},
		},
	}
}

// ServicePackTable returns a single-year table: 2021 SP0, SP1 and SP2
// released on the first of January, April and July.
func ServicePackTable() *servicepack.Table {
	return servicepack.NewTable(map[string][]servicepack.Entry{
		"2021": {
			{Label: "SP0", ReleaseDate: servicepack.MustParseDate("2021-01-01")},
			{Label: "SP1", ReleaseDate: servicepack.MustParseDate("2021-04-01")},
			{Label: "SP2", ReleaseDate: servicepack.MustParseDate("2021-07-01")},
		},
	})
}

// StubScraper answers lookups from a map of records. Unknown serials fail
// with ErrSerialNotFound; Err, when set, fails every lookup.
type StubScraper struct {
	mu      sync.Mutex
	records map[string]*domain.SerialRecord
	Err     error

	calls atomic.Int32
}

// NewStubScraper returns a stub serving the given records by serial number
func NewStubScraper(records ...*domain.SerialRecord) *StubScraper {
	s := &StubScraper{records: make(map[string]*domain.SerialRecord, len(records))}
	for _, rec := range records {
		s.records[rec.SerialNumber] = rec
	}
	return s
}

// Lookup implements portal.Scraper
func (s *StubScraper) Lookup(ctx context.Context, serial string) (*domain.SerialRecord, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[serial]
	if !ok {
		return nil, apierrors.NewPortalError("open serial", fmt.Errorf("%w: %s", apierrors.ErrSerialNotFound, serial))
	}
	cp := *rec
	cp.Activations = append([]domain.Activation(nil), rec.Activations...)
	return &cp, nil
}

// Calls returns the number of lookups made
func (s *StubScraper) Calls() int {
	return int(s.calls.Load())
}
