// Package main is the coinranking CLI entry point.
//
// Usage:
//
//	go run ./cmd/app list --pages 2 --sort price:desc
//	go run ./cmd/app detail Qwsogvtv82FCd --period 30d
//	go run ./cmd/app favorites toggle Qwsogvtv82FCd
//	go run ./cmd/app watchlist --follow
//	go run ./cmd/app mock-server --addr :8089
package main

import (
	"os"

	"coinranking_go/cmd/app/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
