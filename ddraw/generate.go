package ddraw

//go:generate go run ./cmd/exportgen
