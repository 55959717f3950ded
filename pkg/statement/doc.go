// Package statement compiles INSERT, UPDATE and MERGE statements for a table
// description and runs them one row at a time.
//
// A compilation yields a single statement whenever it can. Tables that store
// extra properties in exp.ObjectProperty, and MERGE on tables with updatable
// columns, need several statements sharing state; those become a T-SQL batch on
// SQL Server and a temporary plpgsql function on PostgreSQL:
//
//	c := statement.NewCompiler(dialect.NewPostgres())
//	stmt, err := c.Compile(ctx, db, table, statement.Insert, statement.Options{SelectIDs: true})
//	if err != nil {
//		return err
//	}
//	defer stmt.Close(ctx)
//
//	for _, row := range rows {
//		if err := stmt.Bind(row); err != nil {
//			return err
//		}
//		if _, err := stmt.Exec(ctx); err != nil {
//			return err
//		}
//	}
package statement
