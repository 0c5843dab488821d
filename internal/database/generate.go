package database

// Code generation for the database package:
//
//	go generate ./internal/database
//
// The first step rebuilds sqlc/schema.sql from the migrations, the second
// regenerates the typed queries from it.

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
