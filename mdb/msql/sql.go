// Package msql implements connecting to a MySQL/MariaDB instance and archiving
// encoded payloads into it.
package msql

import (
	"context"
	"fmt"

	// If something is importing msql it must need mysql, because that's all
	// that is implemented at the moment
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/Nick-ccq/k10-base64/mcfg"
	"github.com/Nick-ccq/k10-base64/mcmp"
	"github.com/Nick-ccq/k10-base64/mctx"
	"github.com/Nick-ccq/k10-base64/merr"
	"github.com/Nick-ccq/k10-base64/mlog"
	"github.com/Nick-ccq/k10-base64/mrun"
)

// SQL is a wrapper around a sqlx client which provides more functionality.
type SQL struct {
	*sqlx.DB
	cmp     *mcmp.Component
	enabled *bool
}

// MySQLOpt is an option which can be passed into InstMySQL.
type MySQLOpt func(*mysqlOpts)

type mysqlOpts struct {
	optional bool
}

// MySQLOptional causes InstMySQL to add an "enable" flag parameter to the
// Component. Unless the flag is set the SQL instance won't connect on Init,
// and Enabled will return false.
func MySQLOptional() MySQLOpt {
	return func(opts *mysqlOpts) {
		opts.optional = true
	}
}

// InstMySQL returns a SQL instance which will be initialized when the Init
// event is triggered on the given Component. The SQL instance will have Close
// called on it when the Shutdown event is triggered on the given Component.
//
// defaultDB indicates the name of the database in MySQL to use by default,
// though it will be overwritable in the config.
func InstMySQL(cmp *mcmp.Component, defaultDB string, options ...MySQLOpt) *SQL {
	var opts mysqlOpts
	for _, opt := range options {
		opt(&opts)
	}

	sql := SQL{cmp: cmp.Child("mysql"), enabled: new(bool)}
	*sql.enabled = true
	if opts.optional {
		sql.enabled = mcfg.Bool(sql.cmp, "enable",
			mcfg.ParamUsage("Connect to MySQL and archive payloads to it"))
	}

	addr := mcfg.String(sql.cmp, "addr",
		mcfg.ParamDefault("[::1]:3306"),
		mcfg.ParamUsage("Address where MySQL server can be found"))
	user := mcfg.String(sql.cmp, "user",
		mcfg.ParamDefault("root"),
		mcfg.ParamUsage("User to authenticate to MySQL server as"))
	pass := mcfg.String(sql.cmp, "password",
		mcfg.ParamUsage("Password to authenticate to MySQL server with"))
	db := mcfg.String(sql.cmp, "database",
		mcfg.ParamDefault(defaultDB),
		mcfg.ParamUsage("MySQL database to use"))

	mrun.InitHook(sql.cmp, func(ctx context.Context) error {
		if !*sql.enabled {
			return nil
		}
		sql.cmp.Annotate("addr", *addr, "user", *user)
		dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s", *user, *pass, *addr, *db)
		mlog.From(sql.cmp).Debug("constructed dsn", mctx.Annotate(ctx, "database", *db))
		mlog.From(sql.cmp).Info("connecting to MySQL server", ctx)
		var err error
		sql.DB, err = sqlx.ConnectContext(ctx, "mysql", dsn)
		return merr.Wrap(err, sql.cmp.Context(), ctx)
	})

	mrun.ShutdownHook(sql.cmp, func(ctx context.Context) error {
		if sql.DB == nil {
			return nil
		}
		mlog.From(sql.cmp).Info("closing connection to MySQL server", ctx)
		return merr.Wrap(sql.Close(), sql.cmp.Context(), ctx)
	})

	return &sql
}

// Context returns the annotated Context from this instance's initialization.
func (sql *SQL) Context() context.Context {
	return sql.cmp.Context()
}

// Enabled returns false if MySQLOptional was given to InstMySQL and the
// "enable" parameter wasn't set. It's only meaningful once configuration has
// been populated.
func (sql *SQL) Enabled() bool {
	return *sql.enabled
}
