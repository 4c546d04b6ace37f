package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/godataset/readers"
)

// Inspects a Parquet file produced by a dataset export: physical and Arrow
// schemas, row group layout, and the first rows as the Parquet source would
// deliver them.
func main() {
	path := "events.parquet"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	fmt.Printf("Inspecting %s\n", path)

	reader, err := file.OpenParquetFile(path, false)
	if err != nil {
		log.Fatalf("open: %v", err)
	}

	fmt.Printf("rows: %d, row groups: %d\n", reader.NumRows(), reader.NumRowGroups())

	sc := reader.Schema()
	fmt.Printf("physical schema (%d columns):\n", sc.NumColumns())
	for i := 0; i < sc.NumColumns(); i++ {
		col := sc.Column(i)
		fmt.Printf("  %d: %s (%s)\n", i, col.Name(), col.PhysicalType())
	}

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		log.Fatalf("arrow reader: %v", err)
	}
	arrowSchema, err := arrowReader.Schema()
	if err != nil {
		log.Fatalf("arrow schema: %v", err)
	}
	fmt.Printf("arrow schema (%d fields):\n", arrowSchema.NumFields())
	for i := 0; i < arrowSchema.NumFields(); i++ {
		field := arrowSchema.Field(i)
		fmt.Printf("  %d: %s (%s)\n", i, field.Name, field.Type)
	}

	for i := 0; i < reader.NumRowGroups(); i++ {
		fmt.Printf("row group %d: %d rows\n", i, reader.RowGroup(i).NumRows())
	}
	if err := reader.Close(); err != nil {
		log.Fatalf("close: %v", err)
	}

	rows, err := readers.NewParquetReader(path)
	if err != nil {
		log.Fatalf("row reader: %v", err)
	}
	defer rows.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		row, err := rows.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read row %d: %v", i, err)
		}
		fmt.Printf("row %d: %+v\n", i, row)
	}
}
