//go:build mage

// Package main provides build targets for the gameshelf project using Mage.
//
// Usage:
//
//	mage build             Compile gameshelf binary to bin/
//	mage test:all          Run all tests (unit + integration)
//	mage test:unit         Run only unit tests (exclude integration)
//	mage test:integration  Run only integration tests (builds first)
//	mage test:cover        Run unit tests with a coverage profile
//	mage lint              Run golangci-lint
//	mage clean             Remove build artifacts
//	mage install           Install gameshelf to GOPATH/bin
package main
