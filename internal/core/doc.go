// Package core provides the business logic for importing Stack Overflow
// thread documents into PostgreSQL.
//
// The package has no command-line dependencies and can be driven by the CLI
// or by tests without modification.
//
// # Flow
//
// One run processes every matching file of a directory:
//
//  1. [ScanDir] lists the input files in name order
//  2. [LoadDocument] reads one file and validates its required fields
//  3. [Normalize] flattens the document into per-table rows
//  4. [Writer.Write] stores those rows inside one transaction
//
// Each file is its own transaction. A failure rolls that file back, is
// logged, and the run moves on to the next file. [Service.Run] returns a
// [Summary] with per-file outcomes.
//
// # Write Order
//
// Rows are written parents first so foreign keys always resolve:
//
//	users -> questions -> question_tags -> answers -> comments
//
// Users are upserted; every other table is write-once, so re-importing a file
// changes nothing except refreshing user attributes.
//
// # Error Handling
//
// Technical errors are mapped to readable messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB008: Database errors (duplicates, constraints, connections)
//   - DOC001-DOC004: Document errors (syntax, types, size, missing fields)
//   - RUN001-RUN002: Run errors (input directory)
package core
