// Package csvsource streams climate observations out of a CSV file in
// fixed-size chunks using the Apache Arrow CSV reader.
package csvsource

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
)

// ErrMissingColumn is returned by Open when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// legacyTempHeader is accepted in place of domain.ColGlobalAvgTemp.
const legacyTempHeader = "Global Average Temperature"

type columnKind int

const (
	kindString columnKind = iota
	kindInt
	kindFloat
)

var required = []struct {
	name string
	kind columnKind
}{
	{domain.ColYear, kindInt},
	{domain.ColTemperatureCategory, kindString},
	{domain.ColCO2Category, kindString},
	{domain.ColSeaLevelCategory, kindString},
	{domain.ColExtremeEventType, kindString},
	{domain.ColRegion, kindString},
	{domain.ColEcosystem, kindString},
	{domain.ColDataSource, kindString},
	{domain.ColGlobalAvgTemp, kindFloat},
	{domain.ColCO2Concentration, kindFloat},
	{domain.ColSeaLevelRise, kindFloat},
	{domain.ColExtremeEventsCount, kindFloat},
	{domain.ColEconomicLoss, kindFloat},
}

// Reader yields domain.Chunk values from a CSV file.
type Reader struct {
	file   *os.File
	rdr    *csv.Reader
	index  map[string]int // required column name -> position in file
	path   string
	chunk  int
	row    int
	logger *slog.Logger
}

// Open validates the header of the CSV at path and prepares a chunked reader.
func Open(path string, chunkSize int, logger *slog.Logger) (*Reader, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	header, err := stdcsv.NewReader(f).Read()
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv %s: empty file", path)
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	schema, index, err := buildSchema(header)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csv %s: %w", path, err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("rewind csv: %w", err)
	}

	rdr := csv.NewReader(f, schema,
		csv.WithAllocator(memory.NewGoAllocator()),
		csv.WithHeader(true),
		csv.WithChunk(chunkSize),
		csv.WithNullReader(true, ""),
	)

	logger.Info("csv source opened", "path", path, "columns", len(header), "chunk_size", chunkSize)

	return &Reader{
		file:   f,
		rdr:    rdr,
		index:  index,
		path:   path,
		logger: logger,
	}, nil
}

// buildSchema types each header column and locates the required ones. Columns
// the loader does not use are read as nullable strings.
func buildSchema(header []string) (*arrow.Schema, map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == legacyTempHeader {
			h = domain.ColGlobalAvgTemp
		}
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	kinds := make([]columnKind, len(header))
	index := make(map[string]int, len(required))
	for _, col := range required {
		i, ok := pos[col.name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrMissingColumn, col.name)
		}
		index[col.name] = i
		kinds[i] = col.kind
	}

	fields := make([]arrow.Field, len(header))
	for i, h := range header {
		var typ arrow.DataType = arrow.BinaryTypes.String
		switch kinds[i] {
		case kindInt:
			typ = arrow.PrimitiveTypes.Int64
		case kindFloat:
			typ = arrow.PrimitiveTypes.Float64
		}
		fields[i] = arrow.Field{Name: h, Type: typ, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), index, nil
}

// NextChunk reads up to the configured chunk size of rows. It returns io.EOF
// once the file is exhausted.
func (r *Reader) NextChunk(ctx context.Context) (domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return domain.Chunk{}, err
	}

	if !r.rdr.Next() {
		if err := r.rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
			return domain.Chunk{}, fmt.Errorf("read csv chunk %d: %w", r.chunk, err)
		}
		return domain.Chunk{}, io.EOF
	}

	// A parse failure inside the chunk still yields a record.
	if err := r.rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return domain.Chunk{}, fmt.Errorf("read csv chunk %d: %w", r.chunk, err)
	}

	rec := r.rdr.Record()
	if rec == nil || rec.NumRows() == 0 {
		return domain.Chunk{}, io.EOF
	}

	obs, err := r.decode(rec)
	if err != nil {
		return domain.Chunk{}, err
	}

	c := domain.Chunk{Index: r.chunk, Observations: obs}
	r.chunk++
	r.logger.Debug("csv chunk read", "chunk", c.Index, "rows", c.Len())
	return c, nil
}

// decode copies a record into observations. The record is only valid until
// the next call to Next, so nothing from it is retained.
func (r *Reader) decode(rec arrow.Record) ([]domain.Observation, error) {
	str := func(name string) *array.String { return rec.Column(r.index[name]).(*array.String) }
	num := func(name string) *array.Float64 { return rec.Column(r.index[name]).(*array.Float64) }

	var (
		years     = rec.Column(r.index[domain.ColYear]).(*array.Int64)
		tempCat   = str(domain.ColTemperatureCategory)
		co2Cat    = str(domain.ColCO2Category)
		seaCat    = str(domain.ColSeaLevelCategory)
		eventType = str(domain.ColExtremeEventType)
		region    = str(domain.ColRegion)
		ecosystem = str(domain.ColEcosystem)
		source    = str(domain.ColDataSource)
		temp      = num(domain.ColGlobalAvgTemp)
		co2       = num(domain.ColCO2Concentration)
		sea       = num(domain.ColSeaLevelRise)
		count     = num(domain.ColExtremeEventsCount)
		loss      = num(domain.ColEconomicLoss)
	)

	n := int(rec.NumRows())
	obs := make([]domain.Observation, n)
	for i := 0; i < n; i++ {
		r.row++
		if years.IsNull(i) {
			return nil, fmt.Errorf("row %d: %q is empty", r.row, domain.ColYear)
		}
		obs[i] = domain.Observation{
			Row:                 r.row,
			Year:                int(years.Value(i)),
			TemperatureCategory: text(tempCat, i),
			CO2Category:         text(co2Cat, i),
			SeaLevelCategory:    text(seaCat, i),
			ExtremeEventType:    text(eventType, i),
			Region:              text(region, i),
			Ecosystem:           text(ecosystem, i),
			DataSource:          text(source, i),
			GlobalAvgTemp:       number(temp, i),
			CO2Concentration:    number(co2, i),
			SeaLevelRise:        number(sea, i),
			ExtremeEventsCount:  number(count, i),
			EconomicLoss:        number(loss, i),
		}
	}
	return obs, nil
}

func text(col *array.String, i int) string {
	if col.IsNull(i) {
		return ""
	}
	// Value aliases the record buffer.
	return strings.Clone(col.Value(i))
}

func number(col *array.Float64, i int) float64 {
	if col.IsNull(i) {
		return math.NaN()
	}
	return col.Value(i)
}

// Path returns the file being read.
func (r *Reader) Path() string { return r.path }

// Close releases the Arrow reader and the underlying file.
func (r *Reader) Close() error {
	if r.rdr != nil {
		r.rdr.Release()
		r.rdr = nil
	}
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
