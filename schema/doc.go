// Package schema defines database tables in Go and renders them as DDL
// for PostgreSQL, MySQL and SQLite.
//
// Tables are declared with portable column types and converted to the
// dialect's native types at render time:
//
//	users := schema.NewTable("users").
//	    AddColumn(schema.BigInt("id").PrimaryKey().AutoIncrement()).
//	    AddColumn(schema.Text("email").MaxLen(255).Unique()).
//	    AddColumn(schema.Text("name")).
//	    WithTimestamps()
//
//	ddl := users.CreateSQL(dialect.Postgres)
//
// # Column Types
//
// Columns are declared with portable types and mapped per dialect:
//
//	schema.SmallInt("rank")      // SMALLINT everywhere, INTEGER on SQLite
//	schema.Int("count")          // INTEGER, INT on MySQL
//	schema.BigInt("id")          // BIGINT, INTEGER on SQLite
//	schema.Real("ratio")         // REAL, FLOAT on MySQL
//	schema.Double("score")       // DOUBLE PRECISION, DOUBLE on MySQL
//	schema.Bool("active")        // BOOLEAN, TINYINT(1) on MySQL
//	schema.Text("name")          // TEXT, VARCHAR(n) with MaxLen
//	schema.Timestamp("sent_at")  // TIMESTAMP, DATETIME on SQLite
//	schema.UUID("token")         // UUID, CHAR(36) on MySQL, TEXT on SQLite
//	schema.JSON("meta")          // JSONB, JSON on MySQL, TEXT on SQLite
//
// Unrecognized type strings pass through unchanged on PostgreSQL and
// MySQL; SQLite stores them as TEXT.
//
// # Constraints and Indexes
//
// Column modifiers chain onto the constructors:
//
//	schema.Text("email").MaxLen(255).Unique()
//	schema.Int("category_id").Nullable().Indexed()
//	schema.Bool("active").Default("TRUE")
//
// IndexSQL renders CREATE INDEX statements for indexed columns and
// unique constraints for unique columns; primary keys are skipped.
//
// # Timestamps and Soft Delete
//
// WithTimestamps appends created_at and updated_at columns defaulting to
// CURRENT_TIMESTAMP. WithSoftDelete appends a nullable deleted_at column.
//
// # Execution
//
// Create runs the table and index statements on a driver:
//
//	err := schema.Create(ctx, drv, users, posts)
//
// # Validation
//
// ValidateDiff compares a deployed schema with a desired one and
// reports destructive changes before they run; ValidateTable catches
// definitions that would render broken DDL:
//
//	report := schema.ValidateDiff(current, desired, schema.AllowDropIndex())
//	if !report.OK() {
//	    log.Fatal(report)
//	}
//
// # Naming
//
// Naming helpers bridge Go identifiers and database names:
//
//	schema.TableName("UserProfile")  // "user_profiles"
//	schema.GoName("user_id")         // "UserID"
//	schema.Label("created_at")       // "Created At"
package schema
