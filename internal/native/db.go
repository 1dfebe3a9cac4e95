package native

import (
	"database/sql"
	"ember/internal/errs"
	"ember/internal/object"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var dbDrivers = []string{"sqlite3", "mysql", "postgres"}

// dbHandles owns the open connections of one registry. Handles are small
// integers handed to scripts as Numbers.
type dbHandles struct {
	conns  map[int64]*sql.DB
	nextID int64
}

func DbModule() Module {
	h := &dbHandles{conns: map[int64]*sql.DB{}}
	return Module{
		Name: "db",
		Functions: map[string]Function{
			"open":  h.open,
			"exec":  h.exec,
			"query": h.query,
			"close": h.close,
		},
		Close: h.closeAll,
	}
}

func (h *dbHandles) open(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkArity("open", args, 2); err != nil {
		return nil, err
	}
	driver, err := unpackString("open", args, 0)
	if err != nil {
		return nil, err
	}
	dsn, err := unpackString("open", args, 1)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(dbDrivers, driver) {
		return nil, errs.New(errs.TypeError, "unsupported driver %q, want one of %v", driver, dbDrivers)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err, "failed to open connection")
	}
	if driver == "sqlite3" {
		// every pooled connection to :memory: would be a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx.Context()); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.IOError, err, "failed to ping database")
	}

	h.nextID++
	id := h.nextID
	h.conns[id] = db

	ctx.Logger().Debug("db opened",
		slog.String("driver", driver),
		slog.Int64("handle", id))

	return &object.Number{Value: float64(id)}, nil
}

func (h *dbHandles) exec(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkMinArity("exec", args, 2); err != nil {
		return nil, err
	}
	db, query, params, err := h.statement("exec", args)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx.Context(), query, params...)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err, "exec failed")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err, "exec failed")
	}

	return &object.Number{Value: float64(affected)}, nil
}

// query returns the result set as an array of row arrays, columns in
// select order.
func (h *dbHandles) query(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkMinArity("query", args, 2); err != nil {
		return nil, err
	}
	db, query, params, err := h.statement("query", args)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx.Context(), query, params...)
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err, "query failed")
	}
	defer rows.Close()

	return renderRows(rows)
}

func (h *dbHandles) close(ctx Context, args []object.Object) (object.Object, error) {
	if err := checkArity("close", args, 1); err != nil {
		return nil, err
	}
	id, db, err := h.lookup("close", args)
	if err != nil {
		return nil, err
	}

	delete(h.conns, id)
	if err := db.Close(); err != nil {
		return nil, errs.Wrap(errs.IOError, err, "close failed")
	}

	ctx.Logger().Debug("db closed", slog.Int64("handle", id))
	return object.NULL, nil
}

func (h *dbHandles) closeAll() error {
	var errList []error
	for id, db := range h.conns {
		if err := db.Close(); err != nil {
			errList = append(errList, fmt.Errorf("closing db handle %d: %w", id, err))
		}
		delete(h.conns, id)
	}
	return errors.Join(errList...)
}

func (h *dbHandles) lookup(fnName string, args []object.Object) (int64, *sql.DB, error) {
	n, err := unpackNumber(fnName, args, 0)
	if err != nil {
		return 0, nil, err
	}
	id := int64(n)
	db, ok := h.conns[id]
	if !ok || float64(id) != n {
		return 0, nil, errs.New(errs.IOError, "invalid connection handle %s", object.FormatNumber(n))
	}
	return id, db, nil
}

func (h *dbHandles) statement(fnName string, args []object.Object) (*sql.DB, string, []any, error) {
	_, db, err := h.lookup(fnName, args)
	if err != nil {
		return nil, "", nil, err
	}
	query, err := unpackString(fnName, args, 1)
	if err != nil {
		return nil, "", nil, err
	}

	params := make([]any, 0, len(args)-2)
	for i := 2; i < len(args); i++ {
		p, err := toParam(fnName, i, args[i])
		if err != nil {
			return nil, "", nil, err
		}
		params = append(params, p)
	}
	return db, query, params, nil
}

// toParam converts a script value into a driver argument. Integral numbers
// are sent as int64 so they bind to integer columns and LIMIT clauses.
func toParam(fnName string, i int, arg object.Object) (any, error) {
	switch v := arg.(type) {
	case *object.Number:
		if v.Value == math.Trunc(v.Value) && math.Abs(v.Value) < 1<<53 {
			return int64(v.Value), nil
		}
		return v.Value, nil
	case *object.String:
		return v.Value, nil
	case *object.Boolean:
		return v.Value, nil
	case *object.Null:
		return nil, nil
	default:
		return nil, errs.New(errs.TypeError, "argument %d to `%s` cannot be bound as a parameter, got=%s", i+1, fnName, arg.Type())
	}
}

func renderRows(rows *sql.Rows) (object.Object, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.IOError, err, "query failed")
	}

	resultRows := []object.Object{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, errs.Wrap(errs.IOError, err, "scan failed")
		}

		row := make([]object.Object, len(columns))
		for i := range values {
			row[i] = mapValue(values[i])
		}
		resultRows = append(resultRows, &object.Array{Elements: row})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.IOError, err, "query failed")
	}

	return &object.Array{Elements: resultRows}, nil
}

func mapValue(v any) object.Object {
	switch x := v.(type) {
	case nil:
		return object.NULL
	case int64:
		return &object.Number{Value: float64(x)}
	case float64:
		return &object.Number{Value: x}
	case []byte:
		return &object.String{Value: string(x)}
	case string:
		return &object.String{Value: x}
	case bool:
		return object.NativeBoolToBooleanObject(x)
	case time.Time:
		return &object.String{Value: x.Format(time.RFC3339)}
	default:
		return &object.String{Value: fmt.Sprintf("%v", v)}
	}
}
