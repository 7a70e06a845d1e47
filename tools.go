//go:build tools

// Package tools imports development dependencies so they are tracked
// in go.mod. Install with: go install -tags tools ./...
package tools

import (
	_ "github.com/golang/mock/mockgen"
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
	_ "golang.org/x/tools/cmd/goimports"
	_ "gotest.tools/gotestsum"
)
