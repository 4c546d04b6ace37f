package readers

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow/go/arrow/memory"
	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/godataset/core"
)

// ParquetReaderError provides structured error information for parquet reader operations
type ParquetReaderError struct {
	Op  string // Operation that failed (e.g., "read", "load_batch", "open_file", "schema")
	Err error  // Underlying error
}

func (e *ParquetReaderError) Error() string {
	return fmt.Sprintf("parquet reader %s: %v", e.Op, e.Err)
}

func (e *ParquetReaderError) Unwrap() error {
	return e.Err
}

// ParquetReader streams one Parquet file as rows via an Arrow RecordReader.
// Supports optional column projection and safe resource management.
type ParquetReader struct {
	fileHandle      *os.File
	reader          *file.Reader
	arrowReader     *pqarrow.FileReader
	recordReader    pqarrow.RecordReader
	currentBatch    arrow.Record
	currentBatchIdx int
	currentRow      int64
	totalRows       int64
	schema          *arrow.Schema
	columnNames     []string
	stats           ReaderStats
	opts            *ParquetReaderOptions
}

// ReaderStats holds statistics about the Parquet reader's performance
type ReaderStats struct {
	RecordsRead     int64
	BatchesRead     int64
	BytesRead       int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
}

// ParquetReaderOptions configures the Parquet reader
// BatchSize: rows per batch
// Columns: optional list of column names to project
type ParquetReaderOptions struct {
	BatchSize   int64
	Columns     []string
	MemoryLimit int64 // Memory usage limit for batches
}

// ReaderOption represents a configuration function
type ReaderOption func(*ParquetReaderOptions)

func WithBatchSize(size int64) ReaderOption {
	return func(opts *ParquetReaderOptions) {
		opts.BatchSize = size
	}
}

func WithColumnProjection(columns ...string) ReaderOption {
	return func(opts *ParquetReaderOptions) {
		// Defensive copy to avoid shared slices
		opts.Columns = make([]string, len(columns))
		copy(opts.Columns, columns)
	}
}

func WithMemoryLimit(limit int64) ReaderOption {
	return func(opts *ParquetReaderOptions) {
		opts.MemoryLimit = limit
	}
}

// NewParquetReader opens a Parquet file and prepares an Arrow RecordReader
func NewParquetReader(filename string, options ...ReaderOption) (*ParquetReader, error) {
	// Start with defaults
	opts := (&ParquetReaderOptions{}).withDefaults()

	// Apply functional options
	for _, option := range options {
		option(opts)
	}

	return createParquetReader(filename, opts)
}

// createParquetReader initializes the Parquet reader with the given options.
// It handles file opening, Arrow reader creation, schema retrieval,
// and optional column projection.
func createParquetReader(filename string, opts *ParquetReaderOptions) (*ParquetReader, error) {
	// Open underlying file
	f, err := os.Open(filename)
	if err != nil {
		return nil, &ParquetReaderError{Op: "open_file", Err: err}
	}

	// Create Parquet reader
	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "create_reader", Err: err}
	}

	// Create Arrow FileReader with memory allocator
	allocator := memory.NewGoAllocator()
	arrowReader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{}, allocator)
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "create_arrow_reader", Err: err}
	}

	// Retrieve schema
	sch, err := arrowReader.Schema()
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "get_schema", Err: err}
	}

	// Prepare column index projection if requested
	var colIndices []int
	if len(opts.Columns) > 0 {
		for _, name := range opts.Columns {
			idx := -1
			for i, field := range sch.Fields() {
				if field.Name == name {
					idx = i
					break
				}
			}
			if idx < 0 {
				f.Close()
				return nil, &ParquetReaderError{Op: "column_projection", Err: fmt.Errorf("column %q not found in schema", name)}
			}
			colIndices = append(colIndices, idx)
		}
	}

	// Create RecordReader with optional projection
	recordReader, err := arrowReader.GetRecordReader(context.Background(), colIndices, nil)
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "create_record_reader", Err: err}
	}

	names := opts.Columns
	if len(names) == 0 {
		names = make([]string, 0, len(sch.Fields()))
		for _, field := range sch.Fields() {
			names = append(names, field.Name)
		}
	}

	reader := &ParquetReader{
		fileHandle:   f,
		reader:       parquetReader,
		arrowReader:  arrowReader,
		recordReader: recordReader,
		totalRows:    parquetReader.NumRows(),
		schema:       sch,
		columnNames:  names,
		stats:        ReaderStats{NullValueCounts: make(map[string]int64)},
		opts:         opts,
	}

	return reader, nil
}

// Next reads the next row from the Parquet file, returning io.EOF at the end.
func (p *ParquetReader) Next(ctx context.Context) (core.Row, error) {
	startTime := time.Now()
	defer func() {
		p.stats.ReadDuration += time.Since(startTime)
		p.stats.LastReadTime = time.Now()
	}()

	// Check context cancellation
	select {
	case <-ctx.Done():
		return nil, &ParquetReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	// Load next batch if needed
	if p.currentBatch == nil || p.currentBatchIdx >= int(p.currentBatch.NumRows()) {
		if err := p.loadNextBatch(); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, &ParquetReaderError{Op: "load_batch", Err: err}
		}
	}

	// Extract one row
	if p.currentBatch.NumRows() == 0 {
		return nil, io.EOF
	}

	result := p.extractRowFromBatch(p.currentBatch, p.currentBatchIdx)
	p.currentBatchIdx++
	p.currentRow++
	p.stats.RecordsRead++

	return result, nil
}

// Columns implements the RowReader interface.
func (p *ParquetReader) Columns() []string {
	return p.columnNames
}

// ColumnTypes maps each file column to the closest dataset column type, for
// cross-checking a declared schema against the file.
func (p *ParquetReader) ColumnTypes() map[string]core.ColumnType {
	types := make(map[string]core.ColumnType, len(p.schema.Fields()))
	for _, field := range p.schema.Fields() {
		types[field.Name] = arrowColumnType(field.Type)
	}
	return types
}

// NumRows returns the file's total row count.
func (p *ParquetReader) NumRows() int64 {
	return p.totalRows
}

// Close releases resources and closes the underlying file
func (p *ParquetReader) Close() error {
	if p.currentBatch != nil {
		p.currentBatch.Release()
		p.currentBatch = nil
	}
	if p.recordReader != nil {
		p.recordReader.Release()
		p.recordReader = nil
	}
	if p.fileHandle != nil {
		return p.fileHandle.Close()
	}
	return nil
}

// Schema returns the Arrow schema of the Parquet file
func (p *ParquetReader) Schema() *arrow.Schema {
	return p.schema
}

// Stats returns statistics about the Parquet reader's performance
// such as number of records read, batches processed, and null value counts
func (p *ParquetReader) Stats() ReaderStats {
	return p.stats
}

func (opts *ParquetReaderOptions) withDefaults() *ParquetReaderOptions {
	result := &ParquetReaderOptions{}

	// Copy existing values if opts is not nil
	if opts != nil {
		*result = *opts
	}

	// Apply defaults for zero values
	if result.BatchSize <= 0 {
		result.BatchSize = 1000
	}
	if result.MemoryLimit <= 0 {
		result.MemoryLimit = 64 * 1024 * 1024 // 64MB default
	}

	return result
}

// Extract batch loading logic for better error handling and stats
func (p *ParquetReader) loadNextBatch() error {
	// Check memory limit before loading new batch
	if p.stats.BytesRead > 0 && p.stats.BytesRead >= p.opts.MemoryLimit {
		return &ParquetReaderError{
			Op:  "load_batch",
			Err: fmt.Errorf("memory limit exceeded: %d bytes >= %d limit", p.stats.BytesRead, p.opts.MemoryLimit),
		}
	}

	if p.currentBatch != nil {
		p.currentBatch.Release()
		p.currentBatch = nil
	}

	rec, err := p.recordReader.Read()
	if err != nil {
		return err
	}
	if rec == nil || rec.NumRows() == 0 {
		return io.EOF
	}

	p.currentBatch = rec
	p.currentBatchIdx = 0
	p.stats.BatchesRead++

	// More accurate byte tracking based on Arrow data types
	if rec.NumRows() > 0 {
		var estimatedBytes int64
		for i := 0; i < int(rec.NumCols()); i++ {
			col := rec.Column(i)
			switch col.DataType().ID() {
			case arrow.BOOL:
				estimatedBytes += rec.NumRows() // 1 byte per bool (simplified)
			case arrow.INT8, arrow.UINT8:
				estimatedBytes += rec.NumRows() * 1
			case arrow.INT16, arrow.UINT16:
				estimatedBytes += rec.NumRows() * 2
			case arrow.INT32, arrow.UINT32, arrow.FLOAT32:
				estimatedBytes += rec.NumRows() * 4
			case arrow.INT64, arrow.UINT64, arrow.FLOAT64, arrow.TIMESTAMP:
				estimatedBytes += rec.NumRows() * 8
			case arrow.STRING, arrow.BINARY:
				// For variable-length types, use a rough estimate
				estimatedBytes += rec.NumRows() * 32 // Average string/binary size
			default:
				// Fallback for other types
				estimatedBytes += rec.NumRows() * 8
			}
		}
		p.stats.BytesRead += estimatedBytes
	}
	return nil
}

// extractRowFromBatch builds a core.Row from a row in an Arrow Record batch
func (p *ParquetReader) extractRowFromBatch(record arrow.Record, pos int) core.Row {
	res := make(core.Row)
	sch := record.Schema()
	for i := 0; i < int(record.NumCols()); i++ {
		field := sch.Field(i)
		col := record.Column(i)
		res[field.Name] = p.extractValueFromColumn(col, pos, field.Name)
	}
	return res
}

// extractValueFromColumn converts one Arrow cell to a Go value with null counting
func (p *ParquetReader) extractValueFromColumn(col arrow.Array, rowIdx int, fieldName string) any {
	if col.IsNull(rowIdx) {
		p.stats.NullValueCounts[fieldName]++
		return nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(rowIdx)
	case *array.Int8:
		return int8(arr.Value(rowIdx))
	case *array.Int16:
		return int16(arr.Value(rowIdx))
	case *array.Int32:
		return int32(arr.Value(rowIdx))
	case *array.Int64:
		return int64(arr.Value(rowIdx))
	case *array.Uint8:
		return uint8(arr.Value(rowIdx))
	case *array.Uint16:
		return uint16(arr.Value(rowIdx))
	case *array.Uint32:
		return uint32(arr.Value(rowIdx))
	case *array.Uint64:
		return uint64(arr.Value(rowIdx))
	case *array.Float32:
		return float32(arr.Value(rowIdx))
	case *array.Float64:
		return arr.Value(rowIdx)
	case *array.String:
		return arr.Value(rowIdx)
	case *array.Binary:
		return arr.Value(rowIdx) // Return []byte instead of string
	case *array.Timestamp:
		return arr.Value(rowIdx).ToTime(arrow.Microsecond)
	case *array.Date32:
		return arr.Value(rowIdx).ToTime()
	case *array.Date64:
		return arr.Value(rowIdx).ToTime()
	default:
		// Fallback to string representation
		return fmt.Sprintf("%v", col.GetOneForMarshal(rowIdx))
	}
}

// arrowColumnType maps an Arrow field type to the dataset column type used
// in declared schemas.
func arrowColumnType(t arrow.DataType) core.ColumnType {
	switch t.ID() {
	case arrow.BOOL:
		return core.TypeBool
	case arrow.INT8:
		return core.TypeInt8
	case arrow.INT16:
		return core.TypeInt16
	case arrow.INT32:
		return core.TypeInt32
	case arrow.INT64:
		return core.TypeInt64
	case arrow.UINT8:
		return core.TypeUInt8
	case arrow.UINT16:
		return core.TypeUInt16
	case arrow.UINT32:
		return core.TypeUInt32
	case arrow.UINT64:
		return core.TypeUInt64
	case arrow.FLOAT32:
		return core.TypeFloat32
	case arrow.FLOAT64:
		return core.TypeFloat64
	case arrow.STRING:
		return core.TypeString
	case arrow.BINARY:
		return core.TypeBytes
	}
	return core.TypeUnknown
}
