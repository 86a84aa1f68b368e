//
// Tencent is pleased to support the open source community by making trpc-workflow-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-workflow-go is licensed under the Apache License Version 2.0.
//
//

package nodes

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the pgx database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DBExecuteNode runs an SQL statement against PostgreSQL. Meant for
// INSERT/UPDATE/DELETE; the connection lives only for the call.
type DBExecuteNode struct {
	defaultDSN string
}

// Execute implements node.Node.
func (n *DBExecuteNode) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	statement, err := requireString(params, "statement")
	if err != nil {
		return nil, err
	}
	dsn := optionalString(params, "dsn", n.defaultDSN)
	if dsn == "" {
		return nil, fmt.Errorf("no dsn param and no configured database URL")
	}
	var args []any
	if raw, ok := params["parameters"].([]any); ok {
		args = raw
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, statement, args...)
	if err != nil {
		return nil, fmt.Errorf("execute statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return map[string]any{
		"result":        "success",
		"rows_affected": affected,
		"statement":     statement,
	}, nil
}
