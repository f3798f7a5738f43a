//go:build tools

//go:generate go install github.com/swaggo/swag/cmd/swag@latest
//go:generate swag init -g cmd/kuuzukid/docs.go

package tools

import (
	_ "github.com/swaggo/swag"
)
