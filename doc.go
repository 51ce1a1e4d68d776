// Package analystdb is the embedded tabular data engine behind an analyst
// workbench. It keeps one SQLite store connection, runs arbitrary SQL and
// returns rows as dynamically typed JSON, introspects the schema, and imports
// CSV, TSV, Excel and Parquet files into ad-hoc session tables.
//
// # Basic Usage
//
//	store := analystdb.New(analystdb.WithLogger(logger))
//	defer store.Close()
//
//	if err := store.Connect(ctx, "analysis.db"); err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := store.Execute(ctx, "SELECT id, name FROM users")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, _ := json.Marshal(out) // {"cols":["id","name"],"rows":[[1,"alice"]]}
//
// # Session Tables
//
// Register creates a table on demand, with every column declared TEXT, and
// appends rows to it in one transaction. It connects to a private in-memory
// store when nothing is connected yet:
//
//	err := store.Register(ctx, "my sheet", []string{"first name"}, [][]string{{"alice"}})
//	// creates [my_sheet] ([first_name] TEXT)
//
// Files are imported with the Importer builder:
//
//	importer, err := analystdb.NewImporter(store).
//	    AddPath("sales.csv.gz").
//	    AddPathAs("book.xlsx", "budget").
//	    Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	results, err := importer.Import(ctx)
//
// # Statement Classification
//
// Execute decides between returning rows and returning an affected count by
// looking only at the leading keyword: statements starting with SELECT or
// WITH are reads, everything else is a write. INSERT ... RETURNING and
// row-returning PRAGMA statements are therefore treated as writes.
//
// # Concurrency
//
// A Store serializes every operation behind one mutex, held until results are
// fully materialized. Use internal/bridge to run calls off a latency-sensitive
// goroutine.
package analystdb
